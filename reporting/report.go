// Package reporting assembles per-suite result fragments into a single
// report document and renders it through output transforms.
package reporting

import (
	"sync"
	"time"

	"github.com/testharbor/testharbor/types"
)

// CaseRecord is one executed case in a suite fragment.
type CaseRecord struct {
	ID         string
	Name       string
	MethodName string
	ClassName  string
	Status     types.TestStatus
	Duration   time.Duration
	Message    string
	Output     string
}

// SuiteFragment is the structured representation of one suite's results.
// A fragment is built only when at least one output transform was requested.
// Concurrent result callbacks within one suite append under the fragment's
// own lock; across suites each fragment is owned by exactly one run.
type SuiteFragment struct {
	SuiteName string
	Summary   types.ExecutionSummary
	Cases     []CaseRecord

	mu sync.Mutex
}

// NewSuiteFragment creates an empty fragment for the given suite key.
func NewSuiteFragment(suiteName string) *SuiteFragment {
	return &SuiteFragment{SuiteName: suiteName}
}

// Append records one case result. Safe for concurrent callers.
func (f *SuiteFragment) Append(rec CaseRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cases = append(f.Cases, rec)
}

// Finalize stamps the suite summary once execution has completed.
func (f *SuiteFragment) Finalize(summary types.ExecutionSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Summary = summary
}

// Document is the assembled report for a whole run. Fragments appear in
// suite-listing order, not completion order, so generated documents are
// deterministic. The document is assembled by the orchestrator after all
// suite runs have completed and is never mutated concurrently.
type Document struct {
	RunID     string
	Generated time.Time
	Elapsed   time.Duration
	Suites    []*SuiteFragment
}

// NewDocument creates an empty report document.
func NewDocument(runID string) *Document {
	return &Document{RunID: runID, Generated: time.Now()}
}

// Append adds one suite's fragment. Single-owner: only the orchestrator
// calls this, once per suite.
func (d *Document) Append(f *SuiteFragment) {
	if f != nil {
		d.Suites = append(d.Suites, f)
	}
}

// Stats sums the suite summaries into run totals.
func (d *Document) Stats() types.ExecutionSummary {
	var total types.ExecutionSummary
	for _, s := range d.Suites {
		total.Total += s.Summary.Total
		total.Failed += s.Summary.Failed
		total.Skipped += s.Summary.Skipped
	}
	total.Duration = d.Elapsed
	return total
}
