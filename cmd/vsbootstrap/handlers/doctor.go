package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hashicorp/go-multierror"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/artifacts"
	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/logging"
	"github.com/vsops/vsbootstrap/internal/util/prerequisites"
)

// Doctor status values.
const (
	StatusPresent = "present"
	StatusMissing = "missing"
	StatusUnknown = "unknown"
)

// DoctorRow is one line of the doctor table.
type DoctorRow struct {
	Kind   string
	Name   string
	Status string
	Detail string
}

// DoctorReport is the result of a doctor run.
type DoctorReport struct {
	Rows []DoctorRow
	// Errs collects probe errors; those rows show StatusUnknown.
	Errs *multierror.Error
	// Missing lists required host tools that were not found.
	Missing error
}

// Doctor reports which tools, directories and capabilities are present.
// It runs presence probes only and never changes the host.
func Doctor(ctx context.Context, out io.Writer, platformDir string) error {
	ctx = logging.Discard(ctx)
	rep := Diagnose(ctx, platformDir)

	fmt.Fprintln(out, renderDoctor(rep.Rows))
	if err := rep.Errs.ErrorOrNil(); err != nil {
		fmt.Fprintf(out, "\nSome probes failed:\n%v\n", err)
	}
	return rep.Missing
}

// Diagnose runs every probe.
func Diagnose(ctx context.Context, platformDir string) DoctorReport {
	var rep DoctorReport

	tools := prerequisites.Check(append(prerequisites.DefaultTools(), prerequisites.CapabilityTools()...), true)
	for _, r := range tools.Results {
		row := DoctorRow{Kind: "tool", Name: r.Tool.Name, Status: StatusPresent, Detail: r.Path}
		if r.Version != "" {
			row.Detail = r.Version
		}
		if !r.Found {
			row.Status = StatusMissing
			row.Detail = r.Tool.InstallURL
		}
		rep.Rows = append(rep.Rows, row)
	}
	rep.Missing = tools.Error()

	layout := config.Layout{Root: platformDir}
	dirRow := DoctorRow{Kind: "directory", Name: platformDir, Status: StatusPresent}
	if err := layout.Verify(); err != nil {
		dirRow.Status = StatusMissing
		dirRow.Detail = err.Error()
	}
	rep.Rows = append(rep.Rows, dirRow)

	kubeconfig := userKubeconfig()
	d := capability.Deps{
		Layout:     layout,
		Kubeconfig: kubeconfig,
		Releases: func(ns string) (helm.ReleaseManager, error) {
			return newReleases(ctx, kubeconfig, ns)
		},
	}
	for _, c := range capability.Catalogue(d) {
		row := DoctorRow{Kind: "capability", Name: c.Name}
		ok, err := c.Check(ctx)
		switch {
		case err != nil:
			row.Status = StatusUnknown
			rep.Errs = multierror.Append(rep.Errs, fmt.Errorf("%s: %w", c.Name, err))
		case ok:
			row.Status = StatusPresent
		default:
			row.Status = StatusMissing
		}
		rep.Rows = append(rep.Rows, row)
	}

	daemon := DoctorRow{Kind: "daemon", Name: "docker", Status: StatusPresent}
	if v, err := dockerVersion(ctx); err != nil {
		daemon.Status = StatusMissing
		daemon.Detail = "not reachable"
	} else {
		daemon.Detail = v
	}
	rep.Rows = append(rep.Rows, daemon)

	row, err := configMapRow(ctx, kubeconfig)
	if err != nil {
		rep.Errs = multierror.Append(rep.Errs, fmt.Errorf("configmap: %w", err))
	}
	rep.Rows = append(rep.Rows, row)
	return rep
}

// configMapProber is implemented by k8s.Client.
type configMapProber interface {
	ConfigMapExists(ctx context.Context, namespace, name string) (bool, error)
}

func configMapRow(ctx context.Context, kubeconfig string) (DoctorRow, error) {
	row := DoctorRow{Kind: "cluster", Name: artifacts.AppNamespace + "/" + artifacts.ConfigMapName, Status: StatusUnknown}
	cluster, err := newKubeClient(kubeconfig)
	if err != nil {
		return row, err
	}
	prober, ok := cluster.(configMapProber)
	if !ok {
		return row, nil
	}
	exists, err := prober.ConfigMapExists(ctx, artifacts.AppNamespace, artifacts.ConfigMapName)
	if err != nil {
		return row, err
	}
	row.Status = StatusMissing
	if exists {
		row.Status = StatusPresent
	}
	return row, nil
}

func userKubeconfig() string {
	if p := os.Getenv("KUBECONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kube", "config")
}

var (
	doctorHeader  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	doctorCell    = lipgloss.NewStyle().Padding(0, 1)
	doctorPresent = doctorCell.Foreground(lipgloss.Color("#22c55e"))
	doctorMissing = doctorCell.Foreground(lipgloss.Color("#eab308"))
	doctorUnknown = doctorCell.Foreground(lipgloss.Color("#6b7280"))
)

func renderDoctor(rows []DoctorRow) string {
	var data [][]string
	for _, r := range rows {
		data = append(data, []string{r.Kind, r.Name, r.Status, r.Detail})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Kind", "Name", "Status", "Detail").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return doctorHeader
			}
			if col == 2 && row >= 0 && row < len(rows) {
				switch rows[row].Status {
				case StatusPresent:
					return doctorPresent
				case StatusMissing:
					return doctorMissing
				default:
					return doctorUnknown
				}
			}
			return doctorCell
		})
	return t.String()
}
