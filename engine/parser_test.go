package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testharbor/testharbor/types"
)

func events(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestParseEventsBasic(t *testing.T) {
	out := events(
		`{"Action":"run","Test":"TestPass"}`,
		`{"Action":"output","Test":"TestPass","Output":"=== RUN   TestPass\n"}`,
		`{"Action":"pass","Test":"TestPass","Elapsed":0.25}`,
		`{"Action":"run","Test":"TestFail"}`,
		`{"Action":"output","Test":"TestFail","Output":"--- FAIL: TestFail (0.01s)\n"}`,
		`{"Action":"output","Test":"TestFail","Output":"    main_test.go:12: expected 2, got 3\n"}`,
		`{"Action":"fail","Test":"TestFail","Elapsed":0.01}`,
	)

	results := ParseEvents(out)
	require.Len(t, results, 2)

	assert.Equal(t, "TestPass", results[0].Test)
	assert.Equal(t, types.TestStatusPass, results[0].Status)
	assert.Equal(t, 250*time.Millisecond, results[0].Duration)
	assert.Empty(t, results[0].Message)

	assert.Equal(t, "TestFail", results[1].Test)
	assert.Equal(t, types.TestStatusFail, results[1].Status)
	assert.Equal(t, "expected 2, got 3", results[1].Message)
	assert.Contains(t, results[1].Output, "expected 2, got 3")
}

func TestParseEventsKeepsStreamOrder(t *testing.T) {
	out := events(
		`{"Action":"pass","Test":"TestZebra","Elapsed":0.1}`,
		`{"Action":"pass","Test":"TestAardvark","Elapsed":0.1}`,
	)

	results := ParseEvents(out)
	require.Len(t, results, 2)
	assert.Equal(t, "TestZebra", results[0].Test)
	assert.Equal(t, "TestAardvark", results[1].Test)
}

func TestParseEventsSubtestsRollUp(t *testing.T) {
	out := events(
		`{"Action":"run","Test":"TestTable"}`,
		`{"Action":"run","Test":"TestTable/case_a"}`,
		`{"Action":"output","Test":"TestTable/case_a","Output":"    case a output\n"}`,
		`{"Action":"pass","Test":"TestTable/case_a","Elapsed":0.01}`,
		`{"Action":"run","Test":"TestTable/case_b"}`,
		`{"Action":"fail","Test":"TestTable/case_b","Elapsed":0.01}`,
		`{"Action":"fail","Test":"TestTable","Elapsed":0.05}`,
	)

	results := ParseEvents(out)
	require.Len(t, results, 1, "subtest terminal events must not produce their own results")
	assert.Equal(t, "TestTable", results[0].Test)
	assert.Equal(t, types.TestStatusFail, results[0].Status)
	assert.Contains(t, results[0].Output, "case a output")
}

func TestParseEventsSkip(t *testing.T) {
	out := events(
		`{"Action":"run","Test":"TestSkipped"}`,
		`{"Action":"output","Test":"TestSkipped","Output":"--- SKIP: TestSkipped (0.00s)\n"}`,
		`{"Action":"output","Test":"TestSkipped","Output":"    main_test.go:8: integration env not set\n"}`,
		`{"Action":"skip","Test":"TestSkipped","Elapsed":0}`,
	)

	results := ParseEvents(out)
	require.Len(t, results, 1)
	assert.Equal(t, types.TestStatusSkip, results[0].Status)
	assert.Equal(t, "integration env not set", results[0].Message)
}

func TestParseEventsIgnoresPackageAndMalformedLines(t *testing.T) {
	out := events(
		`{"Action":"start","Package":"example.com/pkg"}`,
		`not json at all`,
		`{"Action":"output","Package":"example.com/pkg","Output":"ok  \texample.com/pkg\t0.1s\n"}`,
		`{"Action":"pass","Test":"TestOnly","Elapsed":0.1}`,
		`{"Action":"pass","Package":"example.com/pkg","Elapsed":0.1}`,
	)

	results := ParseEvents(out)
	require.Len(t, results, 1)
	assert.Equal(t, "TestOnly", results[0].Test)
}

func TestParseEventsDurationFallsBackToTimestamps(t *testing.T) {
	out := events(
		`{"Action":"run","Test":"TestTimed","Time":"2026-08-24T10:00:00Z"}`,
		`{"Action":"pass","Test":"TestTimed","Time":"2026-08-24T10:00:02Z"}`,
	)

	results := ParseEvents(out)
	require.Len(t, results, 1)
	assert.Equal(t, 2*time.Second, results[0].Duration)
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name   string
		action string
		output string
		want   string
	}{
		{name: "pass yields nothing", action: ActionPass, output: "anything", want: ""},
		{name: "empty output", action: ActionFail, output: "", want: ""},
		{
			name:   "file line prefix stripped",
			action: ActionFail,
			output: "--- FAIL: TestX (0.01s)\n    x_test.go:42: boom happened\n",
			want:   "boom happened",
		},
		{
			name:   "plain line kept",
			action: ActionFail,
			output: "panic: nil dereference\n",
			want:   "panic: nil dereference",
		},
		{
			name:   "framework markers skipped",
			action: ActionSkip,
			output: "=== RUN   TestX\n--- SKIP: TestX (0.00s)\n    short mode\n",
			want:   "short mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessage(tt.action, tt.output))
		})
	}
}
