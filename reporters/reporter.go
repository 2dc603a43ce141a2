// Package reporters defines the reporter capability: a sink for run
// lifecycle events, selectable by switch name from a static registry.
package reporters

import (
	"time"

	"github.com/testharbor/testharbor/types"
)

// Reporter receives lifecycle events during a run. Discovery events arrive
// per suite and may interleave across concurrently running suites; the final
// summary event arrives exactly once, with entries sorted by suite key.
type Reporter interface {
	DiscoveryStarting(suite types.SuiteInfo, opts types.SuiteOptions)
	DiscoveryFinished(suite types.SuiteInfo, opts types.SuiteOptions, discovered, matched int)
	RunFinished(elapsed time.Duration, entries []types.SummaryEntry)
}
