// Package metrics exposes Prometheus metrics for test runs.
package metrics

import (
	"log/slog"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/testharbor/testharbor/types"
)

const MetricsNamespace = "testharbor"

var (
	validStatuses = []types.TestStatus{types.TestStatusPass, types.TestStatusFail, types.TestStatusSkip}

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of orchestration errors",
	}, []string{
		"error",
	})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of executed test cases",
	}, []string{
		"run_id",
		"suite",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of test runs",
	}, []string{
		"run_id",
		"result",
	})

	runTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_total",
		Help:      "Total number of tests in a run",
	}, []string{
		"run_id",
	})

	runTestsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_passed",
		Help:      "Number of passed tests in a run",
	}, []string{
		"run_id",
	})

	runTestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_failed",
		Help:      "Number of failed tests in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of test runs",
	}, []string{
		"run_id",
	})
)

// RecordError counts one orchestration error by label.
func RecordError(label string) {
	errorsTotal.WithLabelValues(label).Inc()
}

// RecordCase counts one executed test case.
func RecordCase(runID, suite string, result types.TestStatus) {
	if !slices.Contains(validStatuses, result) {
		slog.Error("RecordCase: invalid result", "result", result)
		return
	}
	casesTotal.WithLabelValues(runID, suite, string(result)).Inc()
}

// RecordRun records the aggregate outcome of one run.
func RecordRun(runID, result string, total, passed, failed int, duration time.Duration) {
	runResults.WithLabelValues(runID, result).Set(1)
	runTestsTotal.WithLabelValues(runID).Add(float64(total))
	runTestsPassed.WithLabelValues(runID).Add(float64(passed))
	runTestsFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}
