package operations

import (
	"errors"
	"fmt"
)

// ErrStepNotFound is returned for an unknown step ID
var ErrStepNotFound = errors.New("step not found")

// StepError ties a failure to the step that produced it
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
