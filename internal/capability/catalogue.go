package capability

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
	"github.com/vsops/vsbootstrap/internal/util/prerequisites"
)

// Capability names.
const (
	NameDocker      = "docker"
	NameK3s         = "k3s"
	NameKubeconfig  = "kubeconfig"
	NameHelm        = "helm"
	NameJava        = "java"
	NameMaven       = "maven"
	NamePostgreSQL  = "postgresql"
	NameApplication = "application"
)

// Installer sources and fixed paths.
const (
	DockerScriptURL  = "https://get.docker.com"
	K3sScriptURL     = "https://get.k3s.io"
	HelmScriptURL    = "https://raw.githubusercontent.com/helm/helm/main/scripts/get-helm-3"
	K3sKubeconfig    = "/etc/rancher/k3s/k3s.yaml"
	K3sInstallExec   = "--write-kubeconfig-mode 644"
	JavaPackage      = "openjdk-17-jdk"
	MavenPackage     = "maven"
	DatabaseRelease  = "postgres"
	DatabaseNS       = "database"
	AppRelease       = "verify"
	AppNamespace     = "verify"
	NonInteractiveOn = "1"
)

// Function variables for dependency injection in tests.
var (
	runScript = shell.RunScript
	readFile  = os.ReadFile
)

// Deps carries what the catalogue's install actions need.
type Deps struct {
	Runner shell.Runner
	Record config.Record
	Layout config.Layout
	// User is added to the docker group.
	User string
	// Kubeconfig is the user kubeconfig path.
	Kubeconfig string
	// Releases opens Helm release access for a namespace.
	Releases func(namespace string) (helm.ReleaseManager, error)
	Redeploy bool
	// AppRelease names the Helm release install-all.sh creates. Empty means
	// AppRelease.
	AppRelease string
}

func (d Deps) appRelease() string {
	if d.AppRelease != "" {
		return d.AppRelease
	}
	return AppRelease
}

// Catalogue returns every capability in install order.
func Catalogue(d Deps) []Capability {
	return []Capability{
		Docker(d), K3s(d), Kubeconfig(d), HelmCLI(d),
		Java(d), Maven(d), PostgreSQL(d), Application(d),
	}
}

// Docker installs Docker with the convenience script, adds the user to the
// docker group and enables the service.
func Docker(d Deps) Capability {
	return Capability{
		Name:  NameDocker,
		Check: prerequisites.Binary("docker"),
		Install: func(ctx context.Context) error {
			if err := runScript(ctx, d.Runner, DockerScriptURL, true, nil); err != nil {
				return err
			}
			if d.User != "" {
				if _, err := d.Runner.Run(ctx, shell.Command{
					Name: "usermod", Args: []string{"-aG", "docker", d.User}, Privileged: true,
				}); err != nil {
					return err
				}
			}
			_, err := d.Runner.Run(ctx, shell.Command{
				Name: "systemctl", Args: []string{"enable", "--now", "docker"}, Privileged: true,
			})
			return err
		},
	}
}

// K3s installs single-node k3s with a world-readable kubeconfig.
func K3s(d Deps) Capability {
	return Capability{
		Name:  NameK3s,
		Check: prerequisites.Binary("k3s"),
		Install: func(ctx context.Context) error {
			return runScript(ctx, d.Runner, K3sScriptURL, true,
				[]string{"INSTALL_K3S_EXEC=" + K3sInstallExec})
		},
	}
}

// Kubeconfig copies the k3s kubeconfig into the user's home.
func Kubeconfig(d Deps) Capability {
	return Capability{
		Name:  NameKubeconfig,
		Check: prerequisites.File(d.Kubeconfig),
		Install: func(ctx context.Context) error {
			if err := os.MkdirAll(filepath.Dir(d.Kubeconfig), 0o700); err != nil {
				return fmt.Errorf("failed to create kube directory: %w", err)
			}
			data, err := readFile(K3sKubeconfig)
			if errors.Is(err, fs.ErrPermission) && d.Runner != nil {
				return installKubeconfig(ctx, d)
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", K3sKubeconfig, err)
			}
			if err := os.WriteFile(d.Kubeconfig, data, 0o600); err != nil {
				return fmt.Errorf("failed to write kubeconfig: %w", err)
			}
			clog.FromContext(ctx).Info("kubeconfig written", "path", d.Kubeconfig)
			return nil
		},
	}
}

// installKubeconfig copies a root-only k3s kubeconfig with a privileged
// install(1), handing the copy to d.User.
func installKubeconfig(ctx context.Context, d Deps) error {
	args := []string{"-m", "600"}
	if d.User != "" {
		args = append(args, "-o", d.User)
	}
	args = append(args, K3sKubeconfig, d.Kubeconfig)
	clog.FromContext(ctx).Info("k3s kubeconfig is not readable, copying it with privileges", "path", d.Kubeconfig)
	if _, err := d.Runner.Run(ctx, shell.Command{Name: "install", Args: args, Privileged: true}); err != nil {
		return fmt.Errorf("failed to copy kubeconfig: %w", err)
	}
	return nil
}

// HelmCLI installs the helm binary for the application deploy script.
func HelmCLI(d Deps) Capability {
	return Capability{
		Name:  NameHelm,
		Check: prerequisites.Binary("helm"),
		Install: func(ctx context.Context) error {
			return runScript(ctx, d.Runner, HelmScriptURL, false, nil)
		},
	}
}

// Java installs a JDK from apt. A runtime without javac does not count.
func Java(d Deps) Capability {
	return Capability{
		Name:  NameJava,
		Check: prerequisites.All(prerequisites.Binary("java"), prerequisites.Binary("javac")),
		Install: func(ctx context.Context) error {
			if err := aptUpdate(ctx, d.Runner); err != nil {
				return err
			}
			return aptInstall(ctx, d.Runner, JavaPackage)
		},
	}
}

// Maven installs Maven from apt.
func Maven(d Deps) Capability {
	return Capability{
		Name:  NameMaven,
		Check: prerequisites.Binary("mvn"),
		Install: func(ctx context.Context) error {
			return aptInstall(ctx, d.Runner, MavenPackage)
		},
	}
}

func aptUpdate(ctx context.Context, r shell.Runner) error {
	_, err := r.Run(ctx, shell.Command{Name: "apt-get", Args: []string{"update"}, Privileged: true})
	return err
}

func aptInstall(ctx context.Context, r shell.Runner, pkg string) error {
	_, err := r.Run(ctx, shell.Command{
		Name:       "apt-get",
		Args:       []string{"install", "-y", pkg},
		Env:        []string{"DEBIAN_FRONTEND=noninteractive"},
		Privileged: true,
	})
	return err
}

// releaseProbe reports whether a Helm release is deployed.
func releaseProbe(d Deps, namespace, release string) prerequisites.Probe {
	return func(ctx context.Context) (bool, error) {
		rm, err := d.Releases(namespace)
		if err != nil {
			return false, err
		}
		return rm.ReleaseDeployed(ctx, release)
	}
}

// PostgreSQL installs the database chart with the rewritten values file.
func PostgreSQL(d Deps) Capability {
	return Capability{
		Name:  NamePostgreSQL,
		Check: releaseProbe(d, DatabaseNS, DatabaseRelease),
		Install: func(ctx context.Context) error {
			values, err := helm.ReadValuesFile(d.Layout.ValuesFile())
			if err != nil {
				return err
			}
			rm, err := d.Releases(DatabaseNS)
			if err != nil {
				return err
			}
			_, err = rm.InstallOrUpgrade(ctx, DatabaseRelease, helm.PostgreSQLSpec(), values)
			return err
		},
	}
}

// Application runs the platform's install-all script. Parameters go in as
// environment variables; the same answers are also piped to stdin for
// scripts that still prompt.
func Application(d Deps) Capability {
	return Capability{
		Name:  NameApplication,
		Check: releaseProbe(d, AppNamespace, d.appRelease()),
		Force: d.Redeploy,
		Install: func(ctx context.Context) error {
			script := d.Layout.InstallAllScript()
			_, err := d.Runner.Run(ctx, shell.Command{
				Name:  "bash",
				Args:  []string{script},
				Dir:   d.Layout.DeployDir(),
				Env:   ApplicationEnv(d.Record, d.Kubeconfig),
				Stdin: strings.NewReader(ScriptedAnswers(d.Record)),
			})
			return err
		},
	}
}

// ApplicationEnv is the environment passed to the install-all script.
func ApplicationEnv(rec config.Record, kubeconfig string) []string {
	return []string{
		"VSB_DOMAIN=" + rec.Domain(),
		"VSB_SSL=" + strconv.FormatBool(rec.SSL()),
		"VSB_DB_PASSWORD=" + rec.DBPassword(),
		"VSB_NAMESPACE=" + AppNamespace,
		"VSB_NONINTERACTIVE=" + NonInteractiveOn,
		"KUBECONFIG=" + kubeconfig,
	}
}

// ScriptedAnswers are the stdin answers for a prompting install script:
// domain, SSL y/n, and password, one per line.
func ScriptedAnswers(rec config.Record) string {
	ssl := "n"
	if rec.SSL() {
		ssl = "y"
	}
	return rec.Domain() + "\n" + ssl + "\n" + rec.DBPassword() + "\n"
}
