package workload

import (
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/artifacts"
	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/provisioning/steps"
	"github.com/vsops/vsbootstrap/internal/readiness"
)

// StepConfigMap is the in-cluster ConfigMap apply step.
const StepConfigMap = "configmap"

// Phases returns the workload phases that follow the host phases.
// The artifacts phase runs before the host phases and is not included.
func Phases() []provisioning.Phase {
	return []provisioning.Phase{
		NewDatabasePhase(),
		NewConfigMapPhase(),
		NewApplicationPhase(),
		NewReadinessPhase(),
	}
}

// ConfigMapPhase applies the generated ConfigMap manifest.
type ConfigMapPhase struct{}

// NewConfigMapPhase creates the configmap phase.
func NewConfigMapPhase() *ConfigMapPhase { return &ConfigMapPhase{} }

// Name implements provisioning.Phase.
func (p *ConfigMapPhase) Name() string { return "configmap" }

// Stage implements provisioning.Phase.
func (p *ConfigMapPhase) Stage() provisioning.Stage { return provisioning.StageDeploying }

// Provision implements provisioning.Phase.
func (p *ConfigMapPhase) Provision(ctx *provisioning.Context) error {
	start := time.Now()
	cm, err := artifacts.ReadConfigMap(ctx.Layout.ConfigMapFile())
	if err != nil {
		return steps.Fail(ctx, StepConfigMap, true, err)
	}
	cluster, err := ctx.Cluster()
	if err != nil {
		return steps.Fail(ctx, StepConfigMap, true, err)
	}
	changed, err := cluster.ApplyConfigMap(ctx, cm)
	if err != nil {
		return steps.Fail(ctx, StepConfigMap, true, err)
	}
	clog.FromContext(ctx).Debug("configmap applied", "namespace", cm.Namespace, "name", cm.Name, "changed", changed)
	steps.Done(ctx, StepConfigMap, changed, time.Since(start))
	return nil
}

// ApplicationPhase runs the application deploy script.
type ApplicationPhase struct{}

// NewApplicationPhase creates the application phase.
func NewApplicationPhase() *ApplicationPhase { return &ApplicationPhase{} }

// Name implements provisioning.Phase.
func (p *ApplicationPhase) Name() string { return "application" }

// Stage implements provisioning.Phase.
func (p *ApplicationPhase) Stage() provisioning.Stage { return provisioning.StageDeploying }

// Provision implements provisioning.Phase.
func (p *ApplicationPhase) Provision(ctx *provisioning.Context) error {
	return steps.Ensure(ctx, capability.Application(steps.Deps(ctx)))
}

// ReadinessPhase waits for the application pods. It never fails the run.
type ReadinessPhase struct{}

// NewReadinessPhase creates the readiness phase.
func NewReadinessPhase() *ReadinessPhase { return &ReadinessPhase{} }

// Name implements provisioning.Phase.
func (p *ReadinessPhase) Name() string { return "readiness" }

// Stage implements provisioning.Phase.
func (p *ReadinessPhase) Stage() provisioning.Stage { return provisioning.StagePolling }

// Provision implements provisioning.Phase.
func (p *ReadinessPhase) Provision(ctx *provisioning.Context) error {
	for _, t := range readiness.ApplicationTargets(ctx.Timeouts) {
		t.Fatal = false
		if err := steps.WaitCluster(ctx, t); err != nil {
			// only a cancelled context gets here
			return err
		}
	}
	return nil
}
