package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/testharbor/testharbor/metrics"
	"github.com/testharbor/testharbor/project"
	"github.com/testharbor/testharbor/reporters"
	"github.com/testharbor/testharbor/reporting"
	"github.com/testharbor/testharbor/types"
)

// completionMap maps suite keys to execution summaries. Concurrent suite
// tasks insert disjoint keys; the mutex covers the container itself. Keys
// are write-once: on the unexpected collision of two same-named suites the
// first insertion wins and the duplicate is dropped.
type completionMap struct {
	mu sync.Mutex
	m  map[string]types.ExecutionSummary
}

func newCompletionMap() *completionMap {
	return &completionMap{m: make(map[string]types.ExecutionSummary)}
}

// insert records one suite's summary. Returns false when the key already
// existed and the new summary was dropped.
func (c *completionMap) insert(key string, s types.ExecutionSummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; exists {
		return false
	}
	c.m[key] = s
	return true
}

func (c *completionMap) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// sortedEntries returns all (key, summary) pairs sorted by key ascending,
// masking completion-order nondeterminism from downstream consumers.
func (c *completionMap) sortedEntries() []types.SummaryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]types.SummaryEntry, 0, len(c.m))
	for k, s := range c.m {
		entries = append(entries, types.SummaryEntry{Key: k, Summary: s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// RunResult is the outcome of a whole orchestrated run.
type RunResult struct {
	RunID    string
	ExitCode int
	Elapsed  time.Duration
	Entries  []types.SummaryEntry
	Document *reporting.Document
}

// Orchestrator drives a full run: it decides sequential vs concurrent suite
// execution, dispatches the suite runner per suite, collects summaries into
// the completion map, emits the final summary event and hands the assembled
// report to the output transforms.
type Orchestrator struct {
	suites          *SuiteRunner
	reporter        reporters.Reporter
	parallelSuites  *bool // explicit option; nil = derive from suite configs
	maxSuiteThreads int   // bound on concurrent suites; <= 0 means unbounded
	outputs         map[string]string
	fail            *Flag
	log             *slog.Logger
	tracer          trace.Tracer
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	Suites          *SuiteRunner
	Reporter        reporters.Reporter
	ParallelSuites  *bool
	MaxSuiteThreads int
	Outputs         map[string]string // format name -> destination path
	Fail            *Flag
	Log             *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Suites == nil {
		return nil, errors.New("suite runner is required")
	}
	if cfg.Reporter == nil {
		return nil, errors.New("reporter is required")
	}
	if cfg.Fail == nil {
		return nil, errors.New("failure flag is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Orchestrator{
		suites:          cfg.Suites,
		reporter:        cfg.Reporter,
		parallelSuites:  cfg.ParallelSuites,
		maxSuiteThreads: cfg.MaxSuiteThreads,
		outputs:         cfg.Outputs,
		fail:            cfg.Fail,
		log:             cfg.Log,
		tracer:          otel.Tracer("orchestrator"),
	}, nil
}

// Run executes all suites in the project and returns the aggregate result.
// The returned error covers orchestration-level problems (report rendering);
// test failures are expressed through the exit code only.
func (o *Orchestrator) Run(ctx context.Context, p *project.Project) (*RunResult, error) {
	runID := uuid.New().String()
	parallel := o.resolveParallel(p)
	o.log.Info("starting run", "run_id", runID, "suites", len(p.Suites), "parallel", parallel)

	ctx, span := o.tracer.Start(ctx, "test run")
	defer span.End()

	start := time.Now()
	completion := newCompletionMap()
	results := make([]SuiteRunResult, len(p.Suites))

	runOne := func(ctx context.Context, i int) {
		desc := p.Suites[i]
		res := o.suites.Run(ctx, desc, runID)
		results[i] = res
		if !res.Ran {
			return
		}
		if !completion.insert(desc.Key(), res.Summary) {
			o.log.Warn("duplicate suite key, dropping result", "suite", desc.Key())
		}
	}

	if parallel {
		// Every dispatched suite runs to completion (or until the
		// cancellation flag stops it); one suite's failure never cancels
		// its siblings.
		tasks := pool.New().WithContext(ctx)
		if o.maxSuiteThreads > 0 {
			tasks = tasks.WithMaxGoroutines(o.maxSuiteThreads)
		}
		for i := range p.Suites {
			i := i
			tasks.Go(func(ctx context.Context) error {
				runOne(ctx, i)
				return nil
			})
		}
		_ = tasks.Wait()
	} else {
		for i := range p.Suites {
			runOne(ctx, i)
		}
	}

	elapsed := time.Since(start)

	entries := completion.sortedEntries()
	if completion.len() > 0 {
		o.reporter.RunFinished(elapsed, entries)
	}

	result := &RunResult{
		RunID:   runID,
		Elapsed: elapsed,
		Entries: entries,
	}

	var renderErr error
	if len(o.outputs) > 0 {
		doc := reporting.NewDocument(runID)
		doc.Elapsed = elapsed
		// Fragments are assembled in suite-listing order, not completion
		// order, so generated documents are deterministic.
		for _, res := range results {
			doc.Append(res.Fragment)
		}
		result.Document = doc
		renderErr = reporting.RenderAll(doc, o.outputs, o.log)
		if renderErr != nil {
			metrics.RecordError("render_report")
			renderErr = fmt.Errorf("rendering reports: %w", renderErr)
		}
	}

	result.ExitCode = o.exitCode(entries)
	o.recordMetrics(runID, result)
	return result, renderErr
}

// resolveParallel applies the effective "parallelize suites" rule: an
// explicit option wins; otherwise suites run in parallel only if every
// suite's own configuration requests it.
func (o *Orchestrator) resolveParallel(p *project.Project) bool {
	if o.parallelSuites != nil {
		return *o.parallelSuites
	}
	return p.ParallelizeByDefault()
}

// exitCode is 1 when any unhandled engine or orchestration error occurred,
// regardless of test counts; otherwise the sum of failed counts across all
// recorded summaries, so 0 means full success.
func (o *Orchestrator) exitCode(entries []types.SummaryEntry) int {
	if o.fail.IsSet() {
		return 1
	}
	failed := 0
	for _, e := range entries {
		failed += e.Summary.Failed
	}
	return failed
}

func (o *Orchestrator) recordMetrics(runID string, res *RunResult) {
	var total types.ExecutionSummary
	for _, e := range res.Entries {
		total.Total += e.Summary.Total
		total.Failed += e.Summary.Failed
		total.Skipped += e.Summary.Skipped
	}
	metrics.RecordRun(runID, string(total.Status()), total.Total, total.Passed(), total.Failed, res.Elapsed)
}
