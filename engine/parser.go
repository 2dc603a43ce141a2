package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/testharbor/testharbor/types"
)

// test2json action constants.
// See https://cs.opensource.google/go/go/+/master:src/cmd/test2json/main.go
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// TestEvent is a single event from the go test JSON output stream.
type TestEvent struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Elapsed time in seconds for the specific action
}

// ParsedResult is the aggregated outcome of one top-level test, in the order
// its terminal event appeared in the stream.
type ParsedResult struct {
	Test     string
	Status   types.TestStatus
	Duration time.Duration
	Output   string
	Message  string
}

// ParseEvents folds a test2json event stream into per-test results. Subtest
// events (names containing '/') contribute output to their root test; the
// root test's own terminal event decides the status. Results keep stream
// order so the sink sees them as the engine produced them.
func ParseEvents(output []byte) []ParsedResult {
	type state struct {
		output  strings.Builder
		started time.Time
	}
	states := make(map[string]*state)
	var results []ParsedResult

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event TestEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Test == "" {
			continue // package-level event
		}

		root := rootTestName(event.Test)
		st := states[root]
		if st == nil {
			st = &state{}
			states[root] = st
		}

		switch event.Action {
		case ActionRun:
			if event.Test == root && st.started.IsZero() {
				st.started = event.Time
			}
		case ActionOutput:
			st.output.WriteString(event.Output)
		case ActionPass, ActionFail, ActionSkip:
			if event.Test != root {
				continue // subtest terminal events roll up via the root
			}
			results = append(results, ParsedResult{
				Test:     root,
				Status:   statusFromAction(event.Action),
				Duration: durationFor(event, st.started),
				Output:   st.output.String(),
				Message:  extractMessage(event.Action, st.output.String()),
			})
		}
	}
	return results
}

func rootTestName(name string) string {
	if idx := strings.Index(name, "/"); idx != -1 {
		return name[:idx]
	}
	return name
}

func statusFromAction(action string) types.TestStatus {
	switch action {
	case ActionPass:
		return types.TestStatusPass
	case ActionSkip:
		return types.TestStatusSkip
	default:
		return types.TestStatusFail
	}
}

func durationFor(event TestEvent, started time.Time) time.Duration {
	if event.Elapsed > 0 {
		return time.Duration(event.Elapsed * float64(time.Second))
	}
	if !started.IsZero() && event.Time.After(started) {
		return event.Time.Sub(started)
	}
	return 0
}

// extractMessage pulls the most pertinent line of a failing or skipped
// test's output for compact display.
func extractMessage(action, output string) string {
	if action == ActionPass || output == "" {
		return ""
	}
	marker := "--- FAIL:"
	if action == ActionSkip {
		marker = "--- SKIP:"
	}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, marker) {
			continue
		}
		if strings.HasPrefix(trimmed, "=== ") || strings.HasPrefix(trimmed, "--- ") {
			continue
		}
		// First meaningful line, stripped of a file:line: prefix if present.
		if idx := strings.Index(trimmed, ".go:"); idx != -1 {
			if colon := strings.Index(trimmed[idx:], ": "); colon != -1 {
				return strings.TrimSpace(trimmed[idx+colon+2:])
			}
		}
		return trimmed
	}
	return ""
}
