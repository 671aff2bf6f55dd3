package steps

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	testutil "github.com/vsops/vsbootstrap/internal/testing"
)

func newContext(t *testing.T) *provisioning.Context {
	t.Helper()
	rec := config.NewRecord("verify.example.com", false, "pw", "")
	ctx := provisioning.NewContext(testutil.TestContext(t), rec, config.Layout{Root: "/srv/platform"}, testutil.NewFakeRunner())
	ctx.Home = "/home/ubuntu"
	ctx.User = "ubuntu"
	return ctx
}

func TestDeps(t *testing.T) {
	ctx := newContext(t)
	ctx.Options = provisioning.Options{Redeploy: true, AppRelease: "verify-platform"}

	d := Deps(ctx)
	assert.Equal(t, "ubuntu", d.User)
	assert.Equal(t, filepath.Join("/home/ubuntu", ".kube", "config"), d.Kubeconfig)
	assert.True(t, d.Redeploy)
	assert.Equal(t, "verify-platform", d.AppRelease)
	assert.Equal(t, ctx.Runner, d.Runner)
}

func TestFail(t *testing.T) {
	ctx := newContext(t)
	cause := errors.New("no route to host")

	require.NoError(t, Fail(ctx, "verify-ui-pods", false, cause))
	err := Fail(ctx, "k3s-nodes", true, cause)
	require.Error(t, err)
	assert.Equal(t, "k3s-nodes", provisioning.FailedStep(err))

	steps := ctx.State.Steps
	require.Len(t, steps, 2)
	assert.Equal(t, provisioning.OutcomeFailedWarned, steps[0].Outcome)
	assert.Equal(t, provisioning.OutcomeFailedFatal, steps[1].Outcome)
}

func TestDone(t *testing.T) {
	ctx := newContext(t)
	Done(ctx, "configmap", true, 0)
	Done(ctx, "artifacts", false, 0)

	require.Len(t, ctx.State.Steps, 2)
	assert.Equal(t, provisioning.OutcomeNewlySatisfied, ctx.State.Steps[0].Outcome)
	assert.Equal(t, provisioning.OutcomeAlreadySatisfied, ctx.State.Steps[1].Outcome)
}
