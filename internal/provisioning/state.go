package provisioning

import "time"

// StepResult is the recorded outcome of one step.
type StepResult struct {
	Name     string
	Stage    Stage
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes.
type State struct {
	Stage Stage
	Steps []StepResult
	// KubeconfigPath is set once the kubeconfig capability is satisfied.
	KubeconfigPath string
}

// NewState creates a state at StageCollecting.
func NewState() *State {
	return &State{Stage: StageCollecting}
}

// Outcome returns the recorded outcome of a step.
func (s *State) Outcome(name string) (Outcome, bool) {
	for i := len(s.Steps) - 1; i >= 0; i-- {
		if s.Steps[i].Name == name {
			return s.Steps[i].Outcome, true
		}
	}
	return "", false
}

// Warnings returns the steps that failed without aborting the run.
func (s *State) Warnings() []StepResult {
	var out []StepResult
	for _, st := range s.Steps {
		if st.Outcome == OutcomeFailedWarned {
			out = append(out, st)
		}
	}
	return out
}
