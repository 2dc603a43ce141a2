package reporters

import (
	"log/slog"
	"time"

	"github.com/testharbor/testharbor/types"
)

// VerboseReporter logs every lifecycle event as it arrives.
type VerboseReporter struct {
	log *slog.Logger
}

// NewVerboseReporter creates a reporter that narrates the run.
func NewVerboseReporter(log *slog.Logger) *VerboseReporter {
	if log == nil {
		log = slog.Default()
	}
	return &VerboseReporter{log: log}
}

func (v *VerboseReporter) DiscoveryStarting(suite types.SuiteInfo, opts types.SuiteOptions) {
	v.log.Info("discovery starting",
		"suite", suite.Key,
		"path", suite.Path,
		"config", suite.ConfigPath,
		"diagnostics", opts.Diagnostics)
}

func (v *VerboseReporter) DiscoveryFinished(suite types.SuiteInfo, opts types.SuiteOptions, discovered, matched int) {
	v.log.Info("discovery finished",
		"suite", suite.Key,
		"discovered", discovered,
		"matched", matched)
}

func (v *VerboseReporter) RunFinished(elapsed time.Duration, entries []types.SummaryEntry) {
	for _, e := range entries {
		v.log.Info("suite finished",
			"suite", e.Key,
			"total", e.Summary.Total,
			"failed", e.Summary.Failed,
			"skipped", e.Summary.Skipped,
			"duration", e.Summary.Duration,
			"status", e.Summary.Status())
	}
	v.log.Info("run finished", "suites", len(entries), "elapsed", elapsed)
}
