package provisioning

import (
	"errors"
	"fmt"
)

var (
	// ErrPrivilegeViolation means the tool was started as root.
	ErrPrivilegeViolation = errors.New("must not run as root: run as a regular user with passwordless sudo")

	// ErrReadinessTimeout means a readiness target did not become ready
	// after its fallback attempts.
	ErrReadinessTimeout = errors.New("readiness timeout")

	// ErrNotSatisfied means a capability was still absent after its
	// install action succeeded.
	ErrNotSatisfied = errors.New("capability still absent after install")
)

// StepError records which step failed. External command failures are
// wrapped in it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err for step. A nil err returns nil.
func NewStepError(step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}

// FailedStep returns the step name carried by err, or "".
func FailedStep(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}

// CheckPrivileges fails when euid is root.
func CheckPrivileges(euid int) error {
	if euid == 0 {
		return ErrPrivilegeViolation
	}
	return nil
}
