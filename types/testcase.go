package types

import "time"

// TestStatus represents the possible outcomes of a single test case
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// TestCaseHandle is the opaque identity of one discoverable test, produced by
// the engine during discovery. The orchestrator never mutates a handle; it
// only reads the identity fields for filtering and passes the handle back to
// the engine for execution.
type TestCaseHandle struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"display_name,omitempty"`
	MethodName  string              `json:"method_name"`
	ClassName   string              `json:"class_name"`
	Traits      map[string][]string `json:"traits,omitempty"`
}

// HasTrait reports whether the handle carries the given (name, value) pair.
func (h TestCaseHandle) HasTrait(name, value string) bool {
	for _, v := range h.Traits[name] {
		if v == value {
			return true
		}
	}
	return false
}

// Name returns the handle's display name, falling back to the qualified
// method name when none was provided by the engine.
func (h TestCaseHandle) Name() string {
	if h.DisplayName != "" {
		return h.DisplayName
	}
	if h.ClassName != "" {
		return h.ClassName + "." + h.MethodName
	}
	return h.MethodName
}

// CaseResult is one per-case outcome delivered by the engine during execution.
type CaseResult struct {
	Case     TestCaseHandle
	Status   TestStatus
	Duration time.Duration
	Output   string // captured output, engines may leave this empty
	Message  string // failure or skip reason
}
