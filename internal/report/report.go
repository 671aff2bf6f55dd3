package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/chainguard-dev/clog"
	"github.com/hashicorp/go-multierror"

	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/k8s"
	"github.com/vsops/vsbootstrap/internal/provisioning"
)

// Unavailable replaces any value a live query could not provide.
const Unavailable = "<unavailable>"

var errCluster = errors.New("cluster access unavailable")

// Cluster-side names the summary queries.
const (
	AppNamespace      = "verify"
	DatabaseNamespace = "database"
	UIService         = "verify-ui"
	APIService        = "verify-api"
	APIPath           = "/v1/verify"
)

// Cluster is the cluster access the summary needs.
type Cluster interface {
	ServiceNodePort(ctx context.Context, namespace, name string) (int32, error)
	PodStatuses(ctx context.Context, namespace, labelSelector string) ([]k8s.PodStatus, error)
}

// PortAdvisor reports NodePorts the instance's security groups leave closed.
type PortAdvisor interface {
	ClosedPorts(ctx context.Context, instanceID string, ports []int32) ([]int32, error)
}

// Reporter builds summaries. Every field is optional.
type Reporter struct {
	Cluster Cluster
	Advisor PortAdvisor
	// InstanceID looks up the EC2 instance for the advisory.
	InstanceID func(ctx context.Context) (string, error)
	LogPath    string
	// Steps are the run's recorded steps; warned ones are listed.
	Steps []provisioning.StepResult
}

// PodGroup is the pod listing of one namespace.
type PodGroup struct {
	Namespace string
	Pods      []k8s.PodStatus
	// Available is false when the listing failed.
	Available bool
}

// Summary is everything the access summary shows.
type Summary struct {
	Domain   string
	SSL      bool
	PublicIP string

	UIURL   string
	APIURL  string
	UIPort  string
	APIPort string

	Pods            []PodGroup
	Advisories      []string
	Warnings        []string
	Troubleshooting []string
	LogPath         string

	// Errs collects the query failures behind any Unavailable value.
	Errs *multierror.Error
}

// Build queries the cluster for rec's summary. It never fails.
func (r *Reporter) Build(ctx context.Context, rec config.Record) Summary {
	s := Summary{
		Domain:          rec.Domain(),
		SSL:             rec.SSL(),
		PublicIP:        rec.PublicIP(),
		UIPort:          Unavailable,
		APIPort:         Unavailable,
		Troubleshooting: troubleshooting(),
		LogPath:         r.LogPath,
	}

	var uiPort, apiPort int32
	if r.Cluster == nil {
		s.Errs = multierror.Append(s.Errs, errCluster)
	} else {
		uiPort = r.nodePort(ctx, &s, UIService)
		apiPort = r.nodePort(ctx, &s, APIService)
		if uiPort > 0 {
			s.UIPort = strconv.Itoa(int(uiPort))
		}
		if apiPort > 0 {
			s.APIPort = strconv.Itoa(int(apiPort))
		}
		for _, ns := range []string{AppNamespace, DatabaseNamespace} {
			s.Pods = append(s.Pods, r.pods(ctx, &s, ns))
		}
	}

	if rec.SSL() {
		s.UIURL = "https://" + rec.Domain()
		s.APIURL = "https://" + rec.Domain() + APIPath
	} else {
		host := rec.AccessHost()
		s.UIURL = fmt.Sprintf("http://%s:%s", host, s.UIPort)
		s.APIURL = fmt.Sprintf("http://%s:%s%s", host, s.APIPort, APIPath)
		s.Advisories = r.advise(ctx, &s, uiPort, apiPort)
	}

	for _, st := range r.Steps {
		if st.Outcome == provisioning.OutcomeFailedWarned {
			msg := st.Name
			if st.Err != nil {
				msg = fmt.Sprintf("%s: %v", st.Name, st.Err)
			}
			s.Warnings = append(s.Warnings, msg)
		}
	}

	if err := s.Errs.ErrorOrNil(); err != nil {
		clog.FromContext(ctx).Debug("summary queries degraded", "error", err)
	}
	return s
}

func (r *Reporter) nodePort(ctx context.Context, s *Summary, service string) int32 {
	p, err := r.Cluster.ServiceNodePort(ctx, AppNamespace, service)
	if err != nil {
		s.Errs = multierror.Append(s.Errs, fmt.Errorf("service %s: %w", service, err))
		return 0
	}
	return p
}

func (r *Reporter) pods(ctx context.Context, s *Summary, namespace string) PodGroup {
	pods, err := r.Cluster.PodStatuses(ctx, namespace, "")
	if err != nil {
		s.Errs = multierror.Append(s.Errs, fmt.Errorf("pods in %s: %w", namespace, err))
		return PodGroup{Namespace: namespace}
	}
	return PodGroup{Namespace: namespace, Pods: pods, Available: true}
}

// advise checks the security groups for closed NodePorts. Any failure
// skips the advisory.
func (r *Reporter) advise(ctx context.Context, s *Summary, ports ...int32) []string {
	if r.Advisor == nil || r.InstanceID == nil {
		return nil
	}
	var known []int32
	for _, p := range ports {
		if p > 0 {
			known = append(known, p)
		}
	}
	if len(known) == 0 {
		return nil
	}
	id, err := r.InstanceID(ctx)
	if err != nil {
		s.Errs = multierror.Append(s.Errs, fmt.Errorf("instance identity: %w", err))
		return nil
	}
	closed, err := r.Advisor.ClosedPorts(ctx, id, known)
	if err != nil {
		s.Errs = multierror.Append(s.Errs, fmt.Errorf("security group advisory: %w", err))
		return nil
	}
	var out []string
	for _, p := range closed {
		out = append(out, fmt.Sprintf("NodePort %d/tcp is not open to 0.0.0.0/0 in the instance security groups", p))
	}
	return out
}

func troubleshooting() []string {
	return []string{
		"kubectl get pods -n " + AppNamespace,
		"kubectl get pods -n " + DatabaseNamespace,
		"kubectl logs -n " + AppNamespace + " -l app=" + APIService,
		"kubectl describe configmap verify-config -n " + AppNamespace,
		"helm list -A",
		"sudo systemctl status k3s",
	}
}
