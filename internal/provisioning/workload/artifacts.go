package workload

import (
	"time"

	"github.com/vsops/vsbootstrap/internal/artifacts"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/provisioning/steps"
)

// Step names for the generated files.
const (
	StepValuesFile        = "values-file"
	StepConfigMapManifest = "configmap-manifest"
)

// ArtifactsPhase rewrites the database values file and the ConfigMap
// manifest from the record.
type ArtifactsPhase struct{}

// NewArtifactsPhase creates the artifacts phase.
func NewArtifactsPhase() *ArtifactsPhase { return &ArtifactsPhase{} }

// Name implements provisioning.Phase.
func (p *ArtifactsPhase) Name() string { return "artifacts" }

// Stage implements provisioning.Phase.
func (p *ArtifactsPhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

// Provision implements provisioning.Phase.
func (p *ArtifactsPhase) Provision(ctx *provisioning.Context) error {
	start := time.Now()
	changed, err := artifacts.RewriteValues(ctx.Layout.ValuesFile(), ctx.Record)
	if err != nil {
		return steps.Fail(ctx, StepValuesFile, true, err)
	}
	steps.Done(ctx, StepValuesFile, changed, time.Since(start))

	start = time.Now()
	changed, err = artifacts.WriteConfigMap(ctx.Layout.ConfigMapFile(), ctx.Record)
	if err != nil {
		return steps.Fail(ctx, StepConfigMapManifest, true, err)
	}
	steps.Done(ctx, StepConfigMapManifest, changed, time.Since(start))
	return nil
}
