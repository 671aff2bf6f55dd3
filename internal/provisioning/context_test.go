package provisioning

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/k8s"
)

func TestNewContext(t *testing.T) {
	rec := config.NewRecord("verify.example.com", true, "pw", "")
	ctx := NewContext(context.Background(), rec, config.Layout{Root: "/srv/platform"}, nil)

	require.NotNil(t, ctx)
	assert.Equal(t, rec, ctx.Record)
	assert.Equal(t, StageCollecting, ctx.State.Stage)
	assert.NotNil(t, ctx.Observer)
	assert.NotNil(t, ctx.Timeouts)
	assert.NotNil(t, ctx.KubeFactory)
	assert.NotNil(t, ctx.ReleasesFactory)
}

func TestContext_KubeconfigPath(t *testing.T) {
	ctx := testContext(NewMockObserver())
	ctx.Home = "/home/ubuntu"
	assert.Equal(t, filepath.Join("/home/ubuntu", ".kube", "config"), ctx.KubeconfigPath())

	ctx.State.KubeconfigPath = "/tmp/kubeconfig"
	assert.Equal(t, "/tmp/kubeconfig", ctx.KubeconfigPath())
}

func TestContext_ClusterIsCached(t *testing.T) {
	ctx := testContext(NewMockObserver())
	calls := 0
	ctx.KubeFactory = func(string) (Cluster, error) {
		calls++
		return k8s.NewFromClientset(fake.NewSimpleClientset()), nil
	}

	c1, err := ctx.Cluster()
	require.NoError(t, err)
	c2, err := ctx.Cluster()
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, calls)
}

func TestContext_ClusterError(t *testing.T) {
	ctx := testContext(NewMockObserver())
	ctx.KubeFactory = func(string) (Cluster, error) { return nil, errors.New("no kubeconfig") }

	_, err := ctx.Cluster()
	assert.ErrorContains(t, err, "no kubeconfig")
}

func TestContext_ReleasesPerNamespace(t *testing.T) {
	ctx := testContext(NewMockObserver())
	var namespaces []string
	ctx.ReleasesFactory = func(_ context.Context, _ string, ns string) (helm.ReleaseManager, error) {
		namespaces = append(namespaces, ns)
		return helm.NewClientFromConfig(nil, ns), nil
	}

	_, err := ctx.Releases("database")
	require.NoError(t, err)
	_, err = ctx.Releases("database")
	require.NoError(t, err)
	_, err = ctx.Releases("verify")
	require.NoError(t, err)
	assert.Equal(t, []string{"database", "verify"}, namespaces)
}

func TestContext_RecordStepAndWarnings(t *testing.T) {
	observer := NewMockObserver()
	ctx := testContext(observer)
	ctx.Transition(StagePolling)

	ctx.RecordStep(StepResult{Name: "postgres-pods", Outcome: OutcomeFailedWarned, Err: ErrReadinessTimeout})
	ctx.RecordStep(StepResult{Name: "ui-pods", Outcome: OutcomeNewlySatisfied})

	warnings := ctx.State.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "postgres-pods", warnings[0].Name)
	assert.Equal(t, StagePolling, warnings[0].Stage)

	outcome, ok := ctx.State.Outcome("ui-pods")
	require.True(t, ok)
	assert.Equal(t, OutcomeNewlySatisfied, outcome)

	_, ok = ctx.State.Outcome("missing")
	assert.False(t, ok)
	assert.Len(t, observer.ofType(EventStepCompleted), 2)
}

func TestContext_TransitionSameStageIsNoop(t *testing.T) {
	observer := NewMockObserver()
	ctx := testContext(observer)
	ctx.Transition(StageCollecting)
	assert.Empty(t, observer.events)
}

func TestErrors(t *testing.T) {
	assert.ErrorIs(t, CheckPrivileges(0), ErrPrivilegeViolation)
	assert.NoError(t, CheckPrivileges(1000))

	assert.Nil(t, NewStepError("docker", nil))
	err := NewStepError("docker", errors.New("boom"))
	assert.Equal(t, "docker: boom", err.Error())
	assert.Equal(t, "docker", FailedStep(err))
	assert.Equal(t, "", FailedStep(errors.New("plain")))

	assert.True(t, OutcomeFailedWarned.Failed())
	assert.False(t, OutcomeAlreadySatisfied.Failed())
	assert.Equal(t, 0, StageCollecting.Index())
	assert.Equal(t, -1, Stage("bogus").Index())
}
