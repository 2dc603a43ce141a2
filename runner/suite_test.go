package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testharbor/testharbor/filtering"
	"github.com/testharbor/testharbor/types"
)

// makeSuiteDir creates a real directory for a suite so path validation
// passes, returning its descriptor.
func makeSuiteDir(t *testing.T, name string) types.SuiteDescriptor {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return types.SuiteDescriptor{Path: dir}
}

func newTestSuiteRunner(t *testing.T, eng *stubEngine, rep *recordingReporter, cfg SuiteRunnerConfig) *SuiteRunner {
	t.Helper()
	cfg.Engine = eng
	cfg.Reporter = rep
	if cfg.Cancel == nil {
		cfg.Cancel = &Flag{}
	}
	if cfg.Fail == nil {
		cfg.Fail = &Flag{}
	}
	cfg.Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sr, err := NewSuiteRunner(cfg)
	require.NoError(t, err)
	return sr
}

func TestSuiteRunnerMissingPath(t *testing.T) {
	eng := newStubEngine()
	rep := newRecordingReporter()
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{})

	res := sr.Run(context.Background(), types.SuiteDescriptor{Path: "/does/not/exist"}, "run-1")
	assert.False(t, res.Ran)
	assert.Equal(t, 0, eng.discoverCount("exist"), "missing suite must not be discovered")
}

func TestSuiteRunnerMissingConfigPath(t *testing.T) {
	eng := newStubEngine()
	rep := newRecordingReporter()
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{})

	desc := makeSuiteDir(t, "alpha")
	desc.ConfigPath = filepath.Join(desc.Path, "missing.yaml")
	res := sr.Run(context.Background(), desc, "run-1")
	assert.False(t, res.Ran)
	assert.Equal(t, 0, eng.discoverCount("alpha"))
}

func TestSuiteRunnerCancelledBeforeStart(t *testing.T) {
	eng := newStubEngine()
	eng.addSuite("alpha", types.TestStatusPass)
	rep := newRecordingReporter()
	cancel := &Flag{}
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{Cancel: cancel})

	cancel.Set()
	desc := makeSuiteDir(t, "alpha")
	res := sr.Run(context.Background(), desc, "run-1")
	assert.False(t, res.Ran, "cancelled suite must be distinguishable from zero matched")
	assert.Equal(t, 0, eng.discoverCount("alpha"), "cancelled suite must not invoke discovery")
}

func TestSuiteRunnerZeroMatched(t *testing.T) {
	eng := newStubEngine()
	eng.addSuite("alpha", types.TestStatusPass, types.TestStatusPass)
	rep := newRecordingReporter()

	filters, err := filtering.New(nil, nil, []string{"TestNope"}, nil)
	require.NoError(t, err)
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{Filters: filters})

	desc := makeSuiteDir(t, "alpha")
	res := sr.Run(context.Background(), desc, "run-1")
	require.True(t, res.Ran)
	assert.Equal(t, types.ExecutionSummary{Duration: res.Summary.Duration}, res.Summary,
		"zero matched must yield an all-zero summary")
	assert.Equal(t, 0, eng.executeCount("alpha"), "no execution call for an empty filtered set")
	assert.Equal(t, 2, rep.discovered["alpha"])
	assert.Equal(t, 0, rep.matched["alpha"])
}

func TestSuiteRunnerCountsAndEvents(t *testing.T) {
	eng := newStubEngine()
	eng.addSuite("alpha", types.TestStatusPass, types.TestStatusFail, types.TestStatusSkip)
	rep := newRecordingReporter()
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{})

	desc := makeSuiteDir(t, "alpha")
	res := sr.Run(context.Background(), desc, "run-1")
	require.True(t, res.Ran)
	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, 1, res.Summary.Skipped)
	assert.Equal(t, 1, res.Summary.Passed())
	assert.Equal(t, []string{"alpha"}, rep.discoveryStarted)
	assert.Equal(t, []string{"alpha"}, rep.discoveryFinished)
	assert.Equal(t, 3, rep.matched["alpha"])
}

func TestSuiteRunnerDiscoveryError(t *testing.T) {
	eng := newStubEngine()
	eng.discoverErr["alpha"] = errors.New("boom")
	rep := newRecordingReporter()
	fail := &Flag{}
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{Fail: fail})

	desc := makeSuiteDir(t, "alpha")
	res := sr.Run(context.Background(), desc, "run-1")
	assert.False(t, res.Ran, "errored suite contributes no summary")
	assert.True(t, fail.IsSet(), "suite-level error must set the global failure flag")
}

func TestSuiteRunnerExecuteError(t *testing.T) {
	eng := newStubEngine()
	eng.addSuite("alpha", types.TestStatusPass)
	eng.executeErr["alpha"] = errors.New("engine crashed")
	rep := newRecordingReporter()
	fail := &Flag{}
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{Fail: fail})

	res := sr.Run(context.Background(), makeSuiteDir(t, "alpha"), "run-1")
	assert.False(t, res.Ran)
	assert.True(t, fail.IsSet())
}

func TestSuiteRunnerFragmentOnlyWhenRequested(t *testing.T) {
	eng := newStubEngine()
	eng.addSuite("alpha", types.TestStatusPass)
	rep := newRecordingReporter()

	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{})
	res := sr.Run(context.Background(), makeSuiteDir(t, "alpha"), "run-1")
	require.True(t, res.Ran)
	assert.Nil(t, res.Fragment, "no fragment when no transform was requested")

	sr = newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{BuildReports: true})
	res = sr.Run(context.Background(), makeSuiteDir(t, "alpha"), "run-2")
	require.True(t, res.Ran)
	require.NotNil(t, res.Fragment)
	assert.Len(t, res.Fragment.Cases, 1)
	assert.Equal(t, res.Summary, res.Fragment.Summary)
}

func TestSuiteRunnerRoundTrip(t *testing.T) {
	eng := newStubEngine()
	eng.addSuite("alpha", types.TestStatusPass, types.TestStatusPass)
	// Traits must survive the serialization boundary for filtering to see
	// round-tripped handles identically.
	eng.cases["alpha"][0].Traits = map[string][]string{"category": {"smoke"}}
	eng.results["alpha"][0].Case = eng.cases["alpha"][0]
	rep := newRecordingReporter()

	filters, err := filtering.New([]string{"category=smoke"}, nil, nil, nil)
	require.NoError(t, err)
	sr := newTestSuiteRunner(t, eng, rep, SuiteRunnerConfig{Filters: filters, RoundTrip: true})

	res := sr.Run(context.Background(), makeSuiteDir(t, "alpha"), "run-1")
	require.True(t, res.Ran)
	assert.Equal(t, 1, res.Summary.Total)
	assert.Equal(t, 1, rep.matched["alpha"])
}

func TestCausalChain(t *testing.T) {
	inner := errors.New("file vanished")
	mid := fmt.Errorf("reading suite: %w", inner)
	outer := fmt.Errorf("discovering suite alpha: %w", mid)

	chain := CausalChain(outer)
	require.Len(t, chain, 3)
	assert.Contains(t, chain[0], "discovering suite alpha")
	assert.Contains(t, chain[2], "file vanished")
}

func TestAggregatorStopsOnCancel(t *testing.T) {
	cancel := &Flag{}
	agg := NewAggregator(cancel, nil, "run-1", "alpha")

	ok := agg.Accept(types.CaseResult{Status: types.TestStatusPass, Duration: time.Millisecond})
	require.True(t, ok)
	cancel.Set()
	ok = agg.Accept(types.CaseResult{Status: types.TestStatusPass})
	assert.False(t, ok, "aggregator must stop accepting once cancelled")

	s := agg.Summary()
	assert.Equal(t, 1, s.Total, "already-emitted results are kept, no rollback")
}
