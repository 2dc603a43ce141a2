// Package engine defines the boundary to the external test engine: the
// component that, given a suite descriptor, enumerates test cases and
// executes a filtered subset, reporting per-case results through a sink.
package engine

import (
	"context"
	"time"

	"github.com/testharbor/testharbor/types"
)

// ResultSink receives per-case outcomes during execution. Accept returns
// false when the sink will take no further results (e.g. the run was
// cancelled); the engine then stops delivering, though work already in flight
// inside the engine cannot be interrupted. Finished is called exactly once
// after the last delivered result.
type ResultSink interface {
	Accept(result types.CaseResult) bool
	Finished(elapsed time.Duration)
}

// Engine discovers and executes test cases for a suite. Discover and Execute
// are synchronous from the caller's perspective; an implementation may
// parallelize internally, bounded by the options it is handed.
type Engine interface {
	// Name identifies the engine in diagnostics.
	Name() string

	// Discover enumerates the full set of test cases in the suite.
	Discover(ctx context.Context, desc types.SuiteDescriptor, opts types.SuiteOptions) ([]types.TestCaseHandle, error)

	// Execute runs the given cases and streams results into sink. It blocks
	// until the engine signals completion.
	Execute(ctx context.Context, desc types.SuiteDescriptor, cases []types.TestCaseHandle, opts types.SuiteOptions, sink ResultSink) error
}
