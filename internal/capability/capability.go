package capability

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/util/prerequisites"
)

// Capability is something the host or cluster must have.
type Capability struct {
	Name string
	// Check reports presence without side effects.
	Check prerequisites.Probe
	// Install makes the capability present.
	Install func(ctx context.Context) error
	// Force runs Install even when Check reports presence.
	Force bool
}

// Installer ensures capabilities. Every capability is probed before any
// install action runs.
type Installer struct{}

// NewInstaller creates an Installer.
func NewInstaller() *Installer {
	return &Installer{}
}

// Ensure makes c present. The error is non-nil exactly when the outcome is
// OutcomeFailedFatal, and is a *provisioning.StepError naming c.
func (i *Installer) Ensure(ctx context.Context, c Capability) (provisioning.Outcome, error) {
	log := clog.FromContext(ctx).With("capability", c.Name)

	if !c.Force && prerequisites.Present(ctx, c.Name, c.Check) {
		log.Debug("already present, skipping install")
		return provisioning.OutcomeAlreadySatisfied, nil
	}
	if c.Force {
		log.Info("install forced")
	} else {
		log.Info("not present, installing")
	}

	if err := c.Install(ctx); err != nil {
		return provisioning.OutcomeFailedFatal, provisioning.NewStepError(c.Name, err)
	}

	if !prerequisites.Present(ctx, c.Name, c.Check) {
		return provisioning.OutcomeFailedFatal, provisioning.NewStepError(c.Name,
			fmt.Errorf("%w: probe still negative", provisioning.ErrNotSatisfied))
	}
	return provisioning.OutcomeNewlySatisfied, nil
}
