package runner

import (
	"sync"
	"time"

	"github.com/testharbor/testharbor/metrics"
	"github.com/testharbor/testharbor/reporting"
	"github.com/testharbor/testharbor/types"
)

// Aggregator accumulates one suite's execution results into a summary and,
// when reporting is enabled, into the suite's report fragment. It is the
// sink handed to the engine's Execute call and is safe for concurrent
// writers within one suite's execution.
type Aggregator struct {
	mu       sync.Mutex
	cancel   *Flag
	summary  types.ExecutionSummary
	fragment *reporting.SuiteFragment // nil when no output transform was requested
	elapsed  time.Duration
	runID    string
	suiteKey string
}

// NewAggregator creates a sink for one suite run. fragment may be nil; the
// aggregator then only maintains counts.
func NewAggregator(cancel *Flag, fragment *reporting.SuiteFragment, runID, suiteKey string) *Aggregator {
	return &Aggregator{
		cancel:   cancel,
		fragment: fragment,
		runID:    runID,
		suiteKey: suiteKey,
	}
}

// Accept records one case outcome. Once the cancellation flag is set the
// aggregator stops accepting: already-recorded results are kept, no rollback.
func (a *Aggregator) Accept(res types.CaseResult) bool {
	if a.cancel != nil && a.cancel.IsSet() {
		return false
	}

	a.mu.Lock()
	a.summary.Total++
	switch res.Status {
	case types.TestStatusFail:
		a.summary.Failed++
	case types.TestStatusSkip:
		a.summary.Skipped++
	}
	a.mu.Unlock()

	if a.fragment != nil {
		a.fragment.Append(reporting.CaseRecord{
			ID:         res.Case.ID,
			Name:       res.Case.Name(),
			MethodName: res.Case.MethodName,
			ClassName:  res.Case.ClassName,
			Status:     res.Status,
			Duration:   res.Duration,
			Message:    res.Message,
			Output:     res.Output,
		})
	}

	metrics.RecordCase(a.runID, a.suiteKey, res.Status)
	return true
}

// Finished records the engine-reported execution time.
func (a *Aggregator) Finished(elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.elapsed = elapsed
}

// Summary returns the accumulated summary. The duration is the
// engine-reported execution time; callers overwrite it with the suite's wall
// clock when they track one.
func (a *Aggregator) Summary() types.ExecutionSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.summary
	s.Duration = a.elapsed
	return s
}
