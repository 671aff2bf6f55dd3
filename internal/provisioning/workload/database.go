package workload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/provisioning/steps"
	"github.com/vsops/vsbootstrap/internal/readiness"
)

// StepInitScript is the database init script step.
const StepInitScript = "db-init"

// DatabasePhase deploys PostgreSQL, runs the optional init script and waits
// for the database pods.
type DatabasePhase struct{}

// NewDatabasePhase creates the database phase.
func NewDatabasePhase() *DatabasePhase { return &DatabasePhase{} }

// Name implements provisioning.Phase.
func (p *DatabasePhase) Name() string { return "database" }

// Stage implements provisioning.Phase.
func (p *DatabasePhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

// Provision implements provisioning.Phase.
func (p *DatabasePhase) Provision(ctx *provisioning.Context) error {
	if err := steps.Ensure(ctx, capability.PostgreSQL(steps.Deps(ctx))); err != nil {
		return err
	}
	if err := p.runInitScript(ctx); err != nil {
		return err
	}
	return steps.WaitCluster(ctx, readiness.DatabaseTarget(ctx.Timeouts))
}

// runInitScript runs db-init/init.sh when present. A missing script is a
// warning; a failing one is fatal.
func (p *DatabasePhase) runInitScript(ctx *provisioning.Context) error {
	script := ctx.Layout.InitScript()
	if _, err := os.Stat(script); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			clog.FromContext(ctx).Warn("database init script not found, skipping", "path", script)
			return steps.Fail(ctx, StepInitScript, false, fmt.Errorf("init script not found: %s", script))
		}
		return steps.Fail(ctx, StepInitScript, true, err)
	}

	start := time.Now()
	_, err := ctx.Runner.Run(ctx, shell.Command{
		Name: "bash",
		Args: []string{script},
		Dir:  ctx.Layout.DBInitDir(),
		Env: []string{
			"VSB_DB_PASSWORD=" + ctx.Record.DBPassword(),
			"VSB_NAMESPACE=" + capability.DatabaseNS,
			"VSB_NONINTERACTIVE=" + capability.NonInteractiveOn,
			"KUBECONFIG=" + ctx.KubeconfigPath(),
		},
	})
	if err != nil {
		return steps.Fail(ctx, StepInitScript, true, err)
	}
	steps.Done(ctx, StepInitScript, true, time.Since(start))
	return nil
}
