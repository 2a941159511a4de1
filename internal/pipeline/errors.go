package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrBackwardJump is returned when a stage asks to jump to a stage that
	// already ran.
	ErrBackwardJump = errors.New("jump target is not ahead of the current stage")

	// ErrNoPostingNumber is returned when posting succeeded but no posting
	// number could be read.
	ErrNoPostingNumber = errors.New("posting number is empty")
)

// StepError wraps a fault raised while a stage talked to the session.
type StepError struct {
	// Op is the stage or helper that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Details identifies the document being processed.
	Details string
}

func (e *StepError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Error in function %s. %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("Error in function %s: %v", e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStepError creates a StepError.
func NewStepError(op, details string, err error) *StepError {
	return &StepError{Op: op, Err: err, Details: details}
}

// WrapStepError wraps err unless it already is a StepError.
func WrapStepError(op, details string, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return NewStepError(op, details, err)
}
