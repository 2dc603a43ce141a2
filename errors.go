package harbor

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational error that should lead to exit
// code 1 independent of test counts: configuration problems, engine
// failures, report-rendering failures.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError represents failed test assertions. The failed count
// becomes the process exit code.
type TestFailureError struct {
	FailedCount int
	Message     string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(failedCount int, message string) *TestFailureError {
	return &TestFailureError{FailedCount: failedCount, Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) (*TestFailureError, bool) {
	var testErr *TestFailureError
	if err != nil && errors.As(err, &testErr) {
		return testErr, true
	}
	return nil, false
}
