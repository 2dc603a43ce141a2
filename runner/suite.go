package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/testharbor/testharbor/engine"
	"github.com/testharbor/testharbor/filtering"
	"github.com/testharbor/testharbor/metrics"
	"github.com/testharbor/testharbor/reporters"
	"github.com/testharbor/testharbor/reporting"
	"github.com/testharbor/testharbor/types"
)

// SuiteRunResult is the outcome of one suite run. Ran distinguishes a real
// result (including the zero-test-matched case) from a suite that was
// skipped: missing files, pre-run cancellation and suite-level errors all
// yield Ran == false and contribute no completion-map entry.
type SuiteRunResult struct {
	Ran      bool
	Summary  types.ExecutionSummary
	Fragment *reporting.SuiteFragment
}

// SuiteRunner runs one suite end to end: validation, option merge,
// discovery, filtering, execution and aggregation. It is the unit of work
// the orchestrator parallelizes across suites; a single SuiteRunner is
// shared by all of them and holds no per-suite state.
type SuiteRunner struct {
	engine        engine.Engine
	reporter      reporters.Reporter
	filters       filtering.Filters
	globalOptions types.SuiteOptions
	roundTrip     bool
	buildReports  bool
	cancel        *Flag
	fail          *Flag
	log           *slog.Logger
	tracer        trace.Tracer

	// Guards console diagnostics written from concurrent suite runs.
	diagMu sync.Mutex
}

// SuiteRunnerConfig configures a SuiteRunner.
type SuiteRunnerConfig struct {
	Engine        engine.Engine
	Reporter      reporters.Reporter
	Filters       filtering.Filters
	GlobalOptions types.SuiteOptions
	RoundTrip     bool // serialize/deserialize each case before execution
	BuildReports  bool // construct report fragments for output transforms
	Cancel        *Flag
	Fail          *Flag
	Log           *slog.Logger
}

// NewSuiteRunner creates a suite runner.
func NewSuiteRunner(cfg SuiteRunnerConfig) (*SuiteRunner, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Reporter == nil {
		return nil, errors.New("reporter is required")
	}
	if cfg.Cancel == nil || cfg.Fail == nil {
		return nil, errors.New("cancellation and failure flags are required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &SuiteRunner{
		engine:        cfg.Engine,
		reporter:      cfg.Reporter,
		filters:       cfg.Filters,
		globalOptions: cfg.GlobalOptions,
		roundTrip:     cfg.RoundTrip,
		buildReports:  cfg.BuildReports,
		cancel:        cfg.Cancel,
		fail:          cfg.Fail,
		log:           cfg.Log,
		tracer:        otel.Tracer("suite runner"),
	}, nil
}

// Run executes one suite. Any error escaping discovery, filtering or
// execution is caught here: the global failure flag is set, the full causal
// chain is printed, and the suite contributes no summary. Sibling suites are
// unaffected.
func (sr *SuiteRunner) Run(ctx context.Context, desc types.SuiteDescriptor, runID string) SuiteRunResult {
	key := desc.Key()

	if !sr.validatePaths(desc) {
		return SuiteRunResult{}
	}

	opts := desc.MergeOptions(sr.globalOptions)

	// A flag set before this suite started means it must not invoke
	// discovery at all.
	if sr.cancel.IsSet() {
		sr.log.Info("skipping suite, run cancelled", "suite", key)
		return SuiteRunResult{}
	}

	res, err := sr.run(ctx, desc, opts, runID)
	if err != nil {
		sr.fail.Set()
		metrics.RecordError("suite_run")
		sr.reportFailure(key, err)
		return SuiteRunResult{}
	}
	return res
}

func (sr *SuiteRunner) run(ctx context.Context, desc types.SuiteDescriptor, opts types.SuiteOptions, runID string) (res SuiteRunResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = SuiteRunResult{}
			err = fmt.Errorf("runtime error running suite %s: %v", desc.Key(), rec)
		}
	}()

	ctx, span := sr.tracer.Start(ctx, fmt.Sprintf("suite %s", desc.Key()))
	defer span.End()

	info := types.SuiteInfo{Key: desc.Key(), Path: desc.Path, ConfigPath: desc.ConfigPath}
	start := time.Now()

	sr.reporter.DiscoveryStarting(info, opts)
	discovered, err := sr.engine.Discover(ctx, desc, opts)
	if err != nil {
		return SuiteRunResult{}, fmt.Errorf("discovering suite %s: %w", desc.Key(), err)
	}
	matched := sr.filters.Apply(discovered)
	sr.reporter.DiscoveryFinished(info, opts, len(discovered), len(matched))

	var fragment *reporting.SuiteFragment
	if sr.buildReports {
		fragment = reporting.NewSuiteFragment(desc.Key())
	}

	if len(matched) == 0 {
		// Nothing to execute: synthesize an all-zero summary without
		// invoking the engine.
		summary := types.ExecutionSummary{Duration: time.Since(start)}
		if fragment != nil {
			fragment.Finalize(summary)
		}
		return SuiteRunResult{Ran: true, Summary: summary, Fragment: fragment}, nil
	}

	if sr.roundTrip {
		matched, err = engine.RoundTrip(matched)
		if err != nil {
			return SuiteRunResult{}, fmt.Errorf("round-tripping cases for suite %s: %w", desc.Key(), err)
		}
	}

	agg := NewAggregator(sr.cancel, fragment, runID, desc.Key())
	if err := sr.engine.Execute(ctx, desc, matched, opts, agg); err != nil {
		return SuiteRunResult{}, fmt.Errorf("executing suite %s: %w", desc.Key(), err)
	}

	summary := agg.Summary()
	summary.Duration = time.Since(start)
	if fragment != nil {
		fragment.Finalize(summary)
	}
	return SuiteRunResult{Ran: true, Summary: summary, Fragment: fragment}, nil
}

// validatePaths checks that the suite path and, if given, the configuration
// path exist. A missing file is a diagnostic, not a run failure: the suite
// is reported "not run" and the rest of the run continues.
func (sr *SuiteRunner) validatePaths(desc types.SuiteDescriptor) bool {
	missing := ""
	if _, err := os.Stat(desc.Path); err != nil {
		missing = desc.Path
	} else if desc.ConfigPath != "" {
		if _, err := os.Stat(desc.ConfigPath); err != nil {
			missing = desc.ConfigPath
		}
	}
	if missing == "" {
		return true
	}

	sr.diagMu.Lock()
	defer sr.diagMu.Unlock()
	fmt.Fprintf(os.Stderr, "suite %s skipped: file not found: %s\n", desc.Key(), missing)
	sr.log.Warn("suite skipped, file not found", "suite", desc.Key(), "path", missing)
	return false
}

// reportFailure prints the full causal chain of a suite-level error,
// innermost cause last.
func (sr *SuiteRunner) reportFailure(suiteKey string, err error) {
	sr.diagMu.Lock()
	defer sr.diagMu.Unlock()

	sr.log.Error("suite run failed", "suite", suiteKey, "error", err)
	for i, msg := range CausalChain(err) {
		fmt.Fprintf(os.Stderr, "%*s%s\n", i*2, "", msg)
	}
}

// CausalChain unwraps an error into the messages of each cause, outermost
// first and innermost last.
func CausalChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, fmt.Sprintf("%T: %v", err, err))
		err = errors.Unwrap(err)
	}
	return chain
}
