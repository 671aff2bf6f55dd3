package host

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/platform/docker"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/provisioning/steps"
	"github.com/vsops/vsbootstrap/internal/readiness"
)

// daemonProbe opens the Docker daemon probe; swapped in tests.
var daemonProbe = func(runner shell.Runner) (func(ctx context.Context) (bool, error), error) {
	d, err := docker.NewDaemon(runner)
	if err != nil {
		return nil, err
	}
	return d.Ready, nil
}

// Phases returns the host phases in run order.
func Phases() []provisioning.Phase {
	return []provisioning.Phase{
		NewDockerPhase(),
		NewK3sPhase(),
		NewHelmPhase(),
		NewJavaPhase(),
	}
}

// DockerPhase installs Docker and waits for the daemon.
type DockerPhase struct{}

// NewDockerPhase creates the docker phase.
func NewDockerPhase() *DockerPhase { return &DockerPhase{} }

// Name implements provisioning.Phase.
func (p *DockerPhase) Name() string { return "docker" }

// Stage implements provisioning.Phase.
func (p *DockerPhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

// Provision implements provisioning.Phase. A daemon that never answers is
// a warning.
func (p *DockerPhase) Provision(ctx *provisioning.Context) error {
	if err := steps.Ensure(ctx, capability.Docker(steps.Deps(ctx))); err != nil {
		return err
	}

	probe, err := daemonProbe(ctx.Runner)
	if err != nil {
		return steps.Fail(ctx, readiness.TargetDocker, false, err)
	}
	return steps.Wait(ctx, readiness.NewPoller(nil), readiness.DockerTarget(ctx.Timeouts, probe))
}

// K3sPhase installs k3s, writes the user kubeconfig and waits for the node.
type K3sPhase struct{}

// NewK3sPhase creates the k3s phase.
func NewK3sPhase() *K3sPhase { return &K3sPhase{} }

// Name implements provisioning.Phase.
func (p *K3sPhase) Name() string { return "k3s" }

// Stage implements provisioning.Phase.
func (p *K3sPhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

// Provision implements provisioning.Phase. Node readiness is fatal.
func (p *K3sPhase) Provision(ctx *provisioning.Context) error {
	d := steps.Deps(ctx)
	if err := steps.EnsureAll(ctx, capability.K3s(d), capability.Kubeconfig(d)); err != nil {
		return err
	}
	ctx.State.KubeconfigPath = d.Kubeconfig
	clog.FromContext(ctx).Debug("kubeconfig ready", "path", d.Kubeconfig)

	return steps.WaitCluster(ctx, readiness.NodesTarget(ctx.Timeouts))
}

// HelmPhase installs the Helm CLI.
type HelmPhase struct{}

// NewHelmPhase creates the helm phase.
func NewHelmPhase() *HelmPhase { return &HelmPhase{} }

// Name implements provisioning.Phase.
func (p *HelmPhase) Name() string { return "helm" }

// Stage implements provisioning.Phase.
func (p *HelmPhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

// Provision implements provisioning.Phase.
func (p *HelmPhase) Provision(ctx *provisioning.Context) error {
	return steps.Ensure(ctx, capability.HelmCLI(steps.Deps(ctx)))
}

// JavaPhase installs Java and Maven.
type JavaPhase struct{}

// NewJavaPhase creates the java phase.
func NewJavaPhase() *JavaPhase { return &JavaPhase{} }

// Name implements provisioning.Phase.
func (p *JavaPhase) Name() string { return "java" }

// Stage implements provisioning.Phase.
func (p *JavaPhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

// Provision implements provisioning.Phase.
func (p *JavaPhase) Provision(ctx *provisioning.Context) error {
	d := steps.Deps(ctx)
	return steps.EnsureAll(ctx, capability.Java(d), capability.Maven(d))
}
