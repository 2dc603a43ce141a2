// Package exitcodes defines the exit code contract of testharbor.
package exitcodes

// The process exit code carries the run outcome:
//
// * Success (0): every executed test passed
// * OrchestrationErr (1): argument-parsing failure or an unhandled
//   engine/orchestration error, regardless of test counts
// * any other value: the total number of failed tests across all suites
const (
	Success          = 0
	OrchestrationErr = 1
)
