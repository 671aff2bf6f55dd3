package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcPhase adapts a function to the Phase interface.
type funcPhase struct {
	name  string
	stage Stage
	fn    func(*Context) error
}

func (p *funcPhase) Name() string                 { return p.name }
func (p *funcPhase) Stage() Stage                 { return p.stage }
func (p *funcPhase) Provision(ctx *Context) error { return p.fn(ctx) }

func phaseFunc(name string, stage Stage, fn func(*Context) error) Phase {
	return &funcPhase{name: name, stage: stage, fn: fn}
}

func testContext(observer Observer) *Context {
	return &Context{
		Context:  context.Background(),
		State:    NewState(),
		Observer: observer,
	}
}

func TestNewPipeline(t *testing.T) {
	t.Parallel()
	pipeline := NewPipeline(
		phaseFunc("docker", StageInstalling, nil),
		phaseFunc("k3s", StageInstalling, nil),
	)

	require.NotNil(t, pipeline)
	assert.Len(t, pipeline.Phases, 2)
	assert.Equal(t, "docker", pipeline.Phases[0].Name())
}

func TestPipeline_Run_Success(t *testing.T) {
	t.Parallel()
	executed := make([]string, 0)
	record := func(name string) func(*Context) error {
		return func(_ *Context) error { executed = append(executed, name); return nil }
	}

	observer := NewMockObserver()
	ctx := testContext(observer)
	ctx.State.Stage = StageConfirmed

	err := NewPipeline(
		phaseFunc("docker", StageInstalling, record("docker")),
		phaseFunc("k3s", StageInstalling, record("k3s")),
		phaseFunc("application", StageDeploying, record("application")),
		phaseFunc("readiness", StagePolling, record("readiness")),
	).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "k3s", "application", "readiness"}, executed)
	assert.Equal(t, StagePolling, ctx.State.Stage)

	var stages []Stage
	for _, e := range observer.ofType(EventStageChanged) {
		stages = append(stages, e.Stage)
	}
	assert.Equal(t, []Stage{StageInstalling, StageDeploying, StagePolling}, stages)
	assert.Len(t, observer.ofType(EventPhaseCompleted), 4)
}

func TestPipeline_Run_StopsOnError(t *testing.T) {
	t.Parallel()
	executed := make([]string, 0)
	observer := NewMockObserver()
	ctx := testContext(observer)

	err := NewPipeline(
		phaseFunc("docker", StageInstalling, func(_ *Context) error { executed = append(executed, "docker"); return nil }),
		phaseFunc("k3s", StageInstalling, func(_ *Context) error {
			return NewStepError("k3s", errors.New("exit status 1"))
		}),
		phaseFunc("helm", StageInstalling, func(_ *Context) error { executed = append(executed, "helm"); return nil }),
	).Run(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "k3s phase failed")
	assert.Equal(t, "k3s", FailedStep(err))
	assert.Equal(t, []string{"docker"}, executed)
	assert.Equal(t, StageAborted, ctx.State.Stage)

	last := observer.events[len(observer.events)-1]
	assert.Equal(t, EventStageChanged, last.Type)
	assert.Equal(t, StageAborted, last.Stage)
	assert.Equal(t, "k3s", last.Step)
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	t.Parallel()
	cctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	ctx := testContext(NewMockObserver())
	ctx.Context = cctx

	err := RunPhases(ctx, []Phase{phaseFunc("docker", StageInstalling, func(_ *Context) error { called = true; return nil })})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, StageAborted, ctx.State.Stage)
}
