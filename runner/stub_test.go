package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/testharbor/testharbor/engine"
	"github.com/testharbor/testharbor/types"
)

// stubEngine is a scriptable engine for orchestration tests: per-suite case
// sets and results, optional per-suite errors, optional completion delays to
// force out-of-order completion in parallel mode, and call counting.
type stubEngine struct {
	mu            sync.Mutex
	cases         map[string][]types.TestCaseHandle // suite key -> discovered cases
	results       map[string][]types.CaseResult     // suite key -> execution results
	discoverErr   map[string]error
	executeErr    map[string]error
	delay         map[string]time.Duration // completion delay per suite
	discoverCalls map[string]int
	executeCalls  map[string]int
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		cases:         map[string][]types.TestCaseHandle{},
		results:       map[string][]types.CaseResult{},
		discoverErr:   map[string]error{},
		executeErr:    map[string]error{},
		delay:         map[string]time.Duration{},
		discoverCalls: map[string]int{},
		executeCalls:  map[string]int{},
	}
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Discover(ctx context.Context, desc types.SuiteDescriptor, opts types.SuiteOptions) ([]types.TestCaseHandle, error) {
	s.mu.Lock()
	s.discoverCalls[desc.Key()]++
	s.mu.Unlock()

	if err := s.discoverErr[desc.Key()]; err != nil {
		return nil, err
	}
	return s.cases[desc.Key()], nil
}

func (s *stubEngine) Execute(ctx context.Context, desc types.SuiteDescriptor, cases []types.TestCaseHandle, opts types.SuiteOptions, sink engine.ResultSink) error {
	s.mu.Lock()
	s.executeCalls[desc.Key()]++
	s.mu.Unlock()

	if d := s.delay[desc.Key()]; d > 0 {
		time.Sleep(d)
	}
	if err := s.executeErr[desc.Key()]; err != nil {
		return err
	}

	start := time.Now()
	requested := make(map[string]bool, len(cases))
	for _, tc := range cases {
		requested[tc.ID] = true
	}
	for _, res := range s.results[desc.Key()] {
		if !requested[res.Case.ID] {
			continue
		}
		if !sink.Accept(res) {
			break
		}
	}
	sink.Finished(time.Since(start))
	return nil
}

func (s *stubEngine) discoverCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discoverCalls[key]
}

func (s *stubEngine) executeCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeCalls[key]
}

// addSuite scripts a suite with n cases of the given statuses.
func (s *stubEngine) addSuite(key string, statuses ...types.TestStatus) {
	for i, status := range statuses {
		tc := types.TestCaseHandle{
			ID:         fmt.Sprintf("%s.Test%d", key, i),
			MethodName: fmt.Sprintf("Test%d", i),
			ClassName:  key,
		}
		s.cases[key] = append(s.cases[key], tc)
		s.results[key] = append(s.results[key], types.CaseResult{
			Case:     tc,
			Status:   status,
			Duration: time.Millisecond,
		})
	}
}

// recordingReporter captures lifecycle events for assertions.
type recordingReporter struct {
	mu                sync.Mutex
	discoveryStarted  []string
	discoveryFinished []string
	discovered        map[string]int
	matched           map[string]int
	finished          bool
	finalElapsed      time.Duration
	finalEntries      []types.SummaryEntry
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{discovered: map[string]int{}, matched: map[string]int{}}
}

func (r *recordingReporter) DiscoveryStarting(suite types.SuiteInfo, opts types.SuiteOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discoveryStarted = append(r.discoveryStarted, suite.Key)
}

func (r *recordingReporter) DiscoveryFinished(suite types.SuiteInfo, opts types.SuiteOptions, discovered, matched int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discoveryFinished = append(r.discoveryFinished, suite.Key)
	r.discovered[suite.Key] = discovered
	r.matched[suite.Key] = matched
}

func (r *recordingReporter) RunFinished(elapsed time.Duration, entries []types.SummaryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
	r.finalElapsed = elapsed
	r.finalEntries = entries
}

func (r *recordingReporter) entries() []types.SummaryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalEntries
}
