package publisher

import "fmt"

// StageError is a fatal failure raised by one stage of the automation
// run. Code maps to the job's error_code; Stage is recorded as the
// job's last_step.
type StageError struct {
	Stage string
	Code  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageFailure(stage, code string, err error) *StageError {
	return &StageError{Stage: stage, Code: code, Err: err}
}
