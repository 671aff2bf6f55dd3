package provisioning

import (
	"fmt"
	"time"
)

// Pipeline runs phases in order.
type Pipeline struct {
	Phases []Phase
}

// NewPipeline creates a pipeline from phases.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// Run executes all phases sequentially, moving the run through each
// phase's stage. The first phase error aborts the run.
func (p *Pipeline) Run(ctx *Context) error {
	for i, phase := range p.Phases {
		if err := ctx.Err(); err != nil {
			ctx.Abort(phase.Name(), err)
			return fmt.Errorf("%s phase not started: %w", phase.Name(), err)
		}

		ctx.Transition(phase.Stage())
		ctx.Observer.Event(Event{
			Type:    EventPhaseStarted,
			Phase:   phase.Name(),
			Stage:   phase.Stage(),
			Message: fmt.Sprintf("%d/%d", i+1, len(p.Phases)),
		})

		start := time.Now()
		if err := phase.Provision(ctx); err != nil {
			ctx.Observer.Event(Event{Type: EventPhaseFailed, Phase: phase.Name(), Stage: phase.Stage(), Err: err})
			step := FailedStep(err)
			if step == "" {
				step = phase.Name()
			}
			ctx.Abort(step, err)
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		ctx.Observer.Event(Event{
			Type:     EventPhaseCompleted,
			Phase:    phase.Name(),
			Stage:    phase.Stage(),
			Duration: time.Since(start),
		})
	}
	return nil
}

// RunPhases executes phases with a one-off pipeline.
func RunPhases(ctx *Context, phases []Phase) error {
	return NewPipeline(phases...).Run(ctx)
}
