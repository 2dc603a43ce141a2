package flags

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "TESTHARBOR"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// ParallelMode controls which level of parallelism a run uses.
type ParallelMode string

const (
	ParallelNone        ParallelMode = "none"
	ParallelCollections ParallelMode = "collections"
	ParallelAssemblies  ParallelMode = "assemblies"
	ParallelAll         ParallelMode = "all"
)

func (m ParallelMode) IsValid() bool {
	switch m {
	case ParallelNone, ParallelCollections, ParallelAssemblies, ParallelAll:
		return true
	}
	return false
}

// Suites reports whether suites themselves run concurrently in this mode.
func (m ParallelMode) Suites() bool {
	return m == ParallelAssemblies || m == ParallelAll
}

// Collections reports whether the engine may parallelize collections within
// a suite in this mode.
func (m ParallelMode) Collections() bool {
	return m == ParallelCollections || m == ParallelAll
}

var (
	Project = &cli.StringFlag{
		Name:    "project",
		Value:   "",
		EnvVars: prefixEnvVars("PROJECT"),
		Usage:   "Path to a YAML project file listing suites (alternative to suite path arguments)",
	}
	Parallel = &cli.StringFlag{
		Name:    "parallel",
		Value:   "",
		EnvVars: prefixEnvVars("PARALLEL"),
		Usage:   "Parallelization mode: none|collections|assemblies|all (default: per-suite configuration)",
	}
	MaxThreads = &cli.StringFlag{
		Name:    "max-threads",
		Value:   "default",
		EnvVars: prefixEnvVars("MAX_THREADS"),
		Usage:   "Maximum engine threads per suite: default|unlimited|<N>",
	}
	MaxSuiteThreads = &cli.IntFlag{
		Name:    "max-suite-threads",
		Value:   0,
		EnvVars: prefixEnvVars("MAX_SUITE_THREADS"),
		Usage:   "Bound on concurrently running suites (0 = unbounded)",
	}
	Trait = &cli.StringSliceFlag{
		Name:    "trait",
		EnvVars: prefixEnvVars("TRAIT"),
		Usage:   "Run only cases with a matching name=value trait (repeatable, OR semantics)",
	}
	NoTrait = &cli.StringSliceFlag{
		Name:    "no-trait",
		EnvVars: prefixEnvVars("NO_TRAIT"),
		Usage:   "Exclude cases with a matching name=value trait (repeatable, any match excludes)",
	}
	Method = &cli.StringSliceFlag{
		Name:    "method",
		EnvVars: prefixEnvVars("METHOD"),
		Usage:   "Run only the named test methods (repeatable, OR semantics)",
	}
	Class = &cli.StringSliceFlag{
		Name:    "class",
		EnvVars: prefixEnvVars("CLASS"),
		Usage:   "Run only tests in the named classes (repeatable, OR semantics)",
	}
	ListReporters = &cli.BoolFlag{
		Name:    "list-reporters",
		Value:   false,
		EnvVars: prefixEnvVars("LIST_REPORTERS"),
		Usage:   "List the installed reporters and exit",
	}
	Reporter = &cli.StringFlag{
		Name:    "reporter",
		Value:   "",
		EnvVars: prefixEnvVars("REPORTER"),
		Usage:   "Reporter switch name (case-insensitive; default: console)",
	}
	Serialize = &cli.BoolFlag{
		Name:    "serialize",
		Value:   false,
		EnvVars: prefixEnvVars("SERIALIZE"),
		Usage:   "Round-trip each test case through serialization before execution (diagnostic)",
	}
	Diagnostics = &cli.BoolFlag{
		Name:    "diagnostics",
		Value:   false,
		EnvVars: prefixEnvVars("DIAGNOSTICS"),
		Usage:   "Enable diagnostic engine output",
	}
	Wait = &cli.BoolFlag{
		Name:    "wait",
		Value:   false,
		EnvVars: prefixEnvVars("WAIT"),
		Usage:   "Wait for a key press after completion",
	}
	NoLogo = &cli.BoolFlag{
		Name:    "no-logo",
		Value:   false,
		EnvVars: prefixEnvVars("NO_LOGO"),
		Usage:   "Suppress the startup banner",
	}
	NoColor = &cli.BoolFlag{
		Name:    "no-color",
		Value:   false,
		EnvVars: prefixEnvVars("NO_COLOR"),
		Usage:   "Disable colored console output",
	}
	XMLOutput = &cli.StringFlag{
		Name:    "xml",
		Value:   "",
		EnvVars: prefixEnvVars("XML"),
		Usage:   "Write an XML report to the given path",
	}
	JSONOutput = &cli.StringFlag{
		Name:    "json",
		Value:   "",
		EnvVars: prefixEnvVars("JSON"),
		Usage:   "Write a JSON report to the given path",
	}
	TextOutput = &cli.StringFlag{
		Name:    "text",
		Value:   "",
		EnvVars: prefixEnvVars("TEXT"),
		Usage:   "Write a plain-text report to the given path",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   "go",
		EnvVars: prefixEnvVars("GO_BINARY"),
		Usage:   "Path to the Go binary the reference engine runs tests with",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Watch = &cli.BoolFlag{
		Name:    "watch",
		Value:   false,
		EnvVars: prefixEnvVars("WATCH"),
		Usage:   "Watch suite directories and re-run on change",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz-addr",
		Value:   "",
		EnvVars: prefixEnvVars("HEALTHZ_ADDR"),
		Usage:   "Address for the healthz/metrics server in interval or watch mode (e.g. ':8080')",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level: debug|info|warn|error",
	}
)

var Flags = []cli.Flag{
	Project,
	Parallel,
	MaxThreads,
	MaxSuiteThreads,
	Trait,
	NoTrait,
	Method,
	Class,
	ListReporters,
	Reporter,
	Serialize,
	Diagnostics,
	Wait,
	NoLogo,
	NoColor,
	XMLOutput,
	JSONOutput,
	TextOutput,
	GoBinary,
	RunInterval,
	Watch,
	HealthzAddr,
	LogLevel,
}

// ParseMaxThreads interprets the --max-threads value. "default" yields nil
// (no override of suite configuration), "unlimited" yields 0, and a
// non-negative integer yields itself.
func ParseMaxThreads(value string) (*int, error) {
	switch value {
	case "", "default":
		return nil, nil
	case "unlimited":
		n := 0
		return &n, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid max-threads value %q: expected default, unlimited or a non-negative integer", value)
	}
	return &n, nil
}

// ParseParallel interprets the --parallel value. An empty value yields nil,
// deferring the suite-parallelism decision to per-suite configuration.
func ParseParallel(value string) (*ParallelMode, error) {
	if value == "" {
		return nil, nil
	}
	mode := ParallelMode(value)
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid parallel mode %q: expected %s, %s, %s or %s",
			value, ParallelNone, ParallelCollections, ParallelAssemblies, ParallelAll)
	}
	return &mode, nil
}
