package provisioning

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
)

// Observer receives structured provisioning events.
type Observer interface {
	Event(event Event)
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType
	Phase     string
	Step      string
	Stage     Stage
	From      Stage // previous stage, for EventStageChanged
	Outcome   Outcome
	Message   string
	Duration  time.Duration
	Err       error
	Timestamp time.Time
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventStageChanged indicates a run state transition.
	EventStageChanged EventType = "stage.changed"
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"
	// EventStepCompleted carries the outcome of one step.
	EventStepCompleted EventType = "step.completed"
)

// LogObserver writes events to the context logger.
type LogObserver struct {
	log *clog.Logger
}

// NewLogObserver creates an observer using the logger carried by ctx.
func NewLogObserver(ctx context.Context) *LogObserver {
	return &LogObserver{log: clog.FromContext(ctx)}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	switch event.Type {
	case EventStageChanged:
		if event.Stage == StageAborted {
			o.log.Error("run aborted", "from", event.From, "step", event.Step, "error", event.Err)
			return
		}
		o.log.Info("stage changed", "from", event.From, "to", event.Stage)
	case EventPhaseStarted:
		o.log.Debug("phase starting", "phase", event.Phase, "progress", event.Message)
	case EventPhaseCompleted:
		o.log.Debug("phase completed", "phase", event.Phase, "duration", event.Duration.Round(time.Millisecond))
	case EventPhaseFailed:
		o.log.Error("phase failed", "phase", event.Phase, "error", event.Err)
	case EventStepCompleted:
		args := []any{"capability", event.Step, "outcome", event.Outcome, "duration", event.Duration.Round(time.Millisecond)}
		switch event.Outcome {
		case OutcomeFailedWarned:
			o.log.Warn("step finished", append(args, "error", event.Err)...)
		case OutcomeFailedFatal:
			o.log.Error("step finished", append(args, "error", event.Err)...)
		default:
			o.log.Info("step finished", args...)
		}
	default:
		o.log.Info(event.Message, "type", event.Type)
	}
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

// Event implements Observer.
func (m MultiObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, o := range m {
		if o != nil {
			o.Event(event)
		}
	}
}
