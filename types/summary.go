package types

import "time"

// ExecutionSummary holds aggregate counts and elapsed time for one suite's
// run. A summary is immutable once stored in the completion map; the
// zero-test-matched case produces an all-zero summary.
type ExecutionSummary struct {
	Total    int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Passed returns the number of cases that neither failed nor were skipped.
func (s ExecutionSummary) Passed() int {
	return s.Total - s.Failed - s.Skipped
}

// Status collapses the summary into a single run status.
func (s ExecutionSummary) Status() TestStatus {
	switch {
	case s.Failed > 0:
		return TestStatusFail
	case s.Total > 0 && s.Skipped == s.Total:
		return TestStatusSkip
	default:
		return TestStatusPass
	}
}

// SummaryEntry pairs a suite key with its summary for the final reporter
// event. Entries handed to reporters are always sorted by key ascending.
type SummaryEntry struct {
	Key     string
	Summary ExecutionSummary
}

// SuiteInfo identifies a suite in reporter lifecycle events.
type SuiteInfo struct {
	Key        string
	Path       string
	ConfigPath string
}
