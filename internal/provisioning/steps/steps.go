// Package steps records capability installs and readiness waits as run
// steps. It is shared by the host and workload phases.
package steps

import (
	"time"

	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/readiness"
)

var installer = capability.NewInstaller()

// Deps builds the capability dependencies for a run.
func Deps(ctx *provisioning.Context) capability.Deps {
	return capability.Deps{
		Runner:     ctx.Runner,
		Record:     ctx.Record,
		Layout:     ctx.Layout,
		User:       ctx.User,
		Kubeconfig: ctx.KubeconfigPath(),
		Releases:   ctx.Releases,
		Redeploy:   ctx.Options.Redeploy,
		AppRelease: ctx.Options.AppRelease,
	}
}

// Ensure installs c if absent and records the step. The returned error is
// non-nil only for a fatal outcome.
func Ensure(ctx *provisioning.Context, c capability.Capability) error {
	start := time.Now()
	outcome, err := installer.Ensure(ctx, c)
	ctx.RecordStep(provisioning.StepResult{
		Name:     c.Name,
		Outcome:  outcome,
		Duration: time.Since(start),
		Err:      err,
	})
	return err
}

// EnsureAll ensures each capability in order, stopping at the first failure.
func EnsureAll(ctx *provisioning.Context, caps ...capability.Capability) error {
	for _, c := range caps {
		if err := Ensure(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Wait polls t and records the step. Only fatal targets return an error.
func Wait(ctx *provisioning.Context, poller *readiness.Poller, t readiness.Target) error {
	res := poller.Wait(ctx, t)
	ctx.RecordStep(provisioning.StepResult{
		Name:     t.Name,
		Outcome:  res.Outcome,
		Duration: res.Duration,
		Err:      res.Err,
	})
	if res.Outcome == provisioning.OutcomeFailedFatal {
		return res.Err
	}
	return nil
}

// WaitCluster is Wait with a Poller on the run's cluster. Failing to open
// the cluster counts against t like a timeout would.
func WaitCluster(ctx *provisioning.Context, t readiness.Target) error {
	cluster, err := ctx.Cluster()
	if err != nil {
		return Fail(ctx, t.Name, t.Fatal, err)
	}
	return Wait(ctx, readiness.NewPoller(cluster), t)
}

// Fail records a failed step. Fatal failures are returned as a StepError;
// others are recorded as warned and swallowed.
func Fail(ctx *provisioning.Context, name string, fatal bool, err error) error {
	res := provisioning.StepResult{Name: name, Outcome: provisioning.OutcomeFailedWarned, Err: err}
	if fatal {
		res.Outcome = provisioning.OutcomeFailedFatal
		res.Err = provisioning.NewStepError(name, err)
	}
	ctx.RecordStep(res)
	if fatal {
		return res.Err
	}
	return nil
}

// Done records a step that completed outside the installer.
func Done(ctx *provisioning.Context, name string, changed bool, d time.Duration) {
	outcome := provisioning.OutcomeAlreadySatisfied
	if changed {
		outcome = provisioning.OutcomeNewlySatisfied
	}
	ctx.RecordStep(provisioning.StepResult{Name: name, Outcome: outcome, Duration: d})
}
