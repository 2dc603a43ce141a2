package types

import (
	"path/filepath"
	"time"
)

// SuiteOptions carries discovery/execution options for one suite. Pointer
// fields distinguish "explicitly set" from "use the engine default" so that
// global overrides can be merged onto suite-local values.
type SuiteOptions struct {
	MaxParallelThreads     *int  `yaml:"max_parallel_threads,omitempty"`
	ParallelizeCollections *bool `yaml:"parallelize_collections,omitempty"`
	ParallelizeSuites      *bool `yaml:"parallelize_suites,omitempty"`
	Diagnostics            bool  `yaml:"diagnostics,omitempty"`
	PreEnumerate           bool  `yaml:"pre_enumerate,omitempty"`
}

// TraitRule attaches a trait to every discovered case whose method name
// matches the given glob pattern. Rules live on the suite descriptor so the
// engine stays free of filtering concerns.
type TraitRule struct {
	Pattern string `yaml:"pattern"`
	Name    string `yaml:"name"`
	Value   string `yaml:"value"`
}

// SuiteDescriptor identifies one test suite to discover and execute.
// Descriptors are immutable after project load; concurrent suite runs share
// them read-only.
type SuiteDescriptor struct {
	Name       string       `yaml:"name,omitempty"`
	Path       string       `yaml:"path"`
	ConfigPath string       `yaml:"config,omitempty"`
	ShadowCopy bool         `yaml:"shadow_copy,omitempty"`
	Options    SuiteOptions `yaml:"options,omitempty"`
	TraitRules []TraitRule  `yaml:"traits,omitempty"`

	// Timeout bounds a single engine execution call for this suite. Zero,
	// the default, means no limit: the orchestrator blocks on the engine
	// indefinitely. Engines decide how to honor a non-zero value.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Key returns the identifier used for this suite in the completion map:
// the suite's file name. Uniqueness is expected from unique input paths;
// collisions are resolved first-insertion-wins by the orchestrator.
func (d SuiteDescriptor) Key() string {
	if d.Name != "" {
		return d.Name
	}
	return filepath.Base(d.Path)
}

// MergeOptions applies global overrides onto the suite's own options and
// returns the effective set. Explicit MaxParallelThreads >= 0 and
// ParallelizeCollections win over suite defaults; Diagnostics is OR-ed in.
// Pre-enumeration is always forced off: no interactive selection UI exists
// downstream.
func (d SuiteDescriptor) MergeOptions(global SuiteOptions) SuiteOptions {
	merged := d.Options
	if global.MaxParallelThreads != nil && *global.MaxParallelThreads >= 0 {
		merged.MaxParallelThreads = global.MaxParallelThreads
	}
	if global.ParallelizeCollections != nil {
		merged.ParallelizeCollections = global.ParallelizeCollections
	}
	merged.Diagnostics = merged.Diagnostics || global.Diagnostics
	merged.PreEnumerate = false
	return merged
}
