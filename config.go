package harbor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/testharbor/testharbor/engine"
	"github.com/testharbor/testharbor/filtering"
	"github.com/testharbor/testharbor/flags"
	"github.com/testharbor/testharbor/types"
)

// Config holds the application configuration for one invocation.
type Config struct {
	ProjectFile string   // YAML project file; empty when suites come from args
	SuiteArgs   []string // bare path[=configpath] suite arguments

	Filters       filtering.Filters
	GlobalOptions types.SuiteOptions // merged onto each suite's own options
	ParallelMode  *flags.ParallelMode

	MaxSuiteThreads int
	RoundTripCases  bool
	ReporterSwitch  string
	Outputs         map[string]string // format name -> destination path

	// Engine overrides the execution engine; nil selects the go test
	// reference engine.
	Engine engine.Engine

	GoBinary    string
	RunInterval time.Duration // interval between runs; 0 = run-once mode
	RunOnce     bool
	Watch       bool
	HealthzAddr string
	Wait        bool
	NoLogo      bool
	NoColor     bool

	Log *slog.Logger
}

// NewConfig creates a Config from the cli context.
func NewConfig(ctx *cli.Context, log *slog.Logger) (*Config, error) {
	projectFile := ctx.String(flags.Project.Name)
	suiteArgs := ctx.Args().Slice()

	if projectFile == "" && len(suiteArgs) == 0 {
		return nil, errors.New("no suites given: pass suite paths or --project")
	}
	if projectFile != "" && len(suiteArgs) > 0 {
		return nil, errors.New("suite path arguments and --project are mutually exclusive")
	}

	filters, err := filtering.New(
		ctx.StringSlice(flags.Trait.Name),
		ctx.StringSlice(flags.NoTrait.Name),
		ctx.StringSlice(flags.Method.Name),
		ctx.StringSlice(flags.Class.Name),
	)
	if err != nil {
		return nil, err
	}

	parallelMode, err := flags.ParseParallel(ctx.String(flags.Parallel.Name))
	if err != nil {
		return nil, err
	}

	maxThreads, err := flags.ParseMaxThreads(ctx.String(flags.MaxThreads.Name))
	if err != nil {
		return nil, err
	}

	global := types.SuiteOptions{
		MaxParallelThreads: maxThreads,
		Diagnostics:        ctx.Bool(flags.Diagnostics.Name),
	}
	if parallelMode != nil {
		collections := parallelMode.Collections()
		global.ParallelizeCollections = &collections
	}

	outputs := map[string]string{}
	for flagName, format := range map[string]string{
		flags.XMLOutput.Name:  "xml",
		flags.JSONOutput.Name: "json",
		flags.TextOutput.Name: "text",
	} {
		if path := ctx.String(flagName); path != "" {
			outputs[format] = path
		}
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	watch := ctx.Bool(flags.Watch.Name)
	if watch && runInterval != 0 {
		return nil, errors.New("--watch and --run-interval are mutually exclusive")
	}

	maxSuiteThreads := ctx.Int(flags.MaxSuiteThreads.Name)
	if maxSuiteThreads < 0 {
		return nil, fmt.Errorf("max-suite-threads must be non-negative, got %d", maxSuiteThreads)
	}

	return &Config{
		ProjectFile:     projectFile,
		SuiteArgs:       suiteArgs,
		Filters:         filters,
		GlobalOptions:   global,
		ParallelMode:    parallelMode,
		MaxSuiteThreads: maxSuiteThreads,
		RoundTripCases:  ctx.Bool(flags.Serialize.Name),
		ReporterSwitch:  ctx.String(flags.Reporter.Name),
		Outputs:         outputs,
		GoBinary:        ctx.String(flags.GoBinary.Name),
		RunInterval:     runInterval,
		RunOnce:         runInterval == 0 && !watch,
		Watch:           watch,
		HealthzAddr:     ctx.String(flags.HealthzAddr.Name),
		Wait:            ctx.Bool(flags.Wait.Name),
		NoLogo:          ctx.Bool(flags.NoLogo.Name),
		NoColor:         ctx.Bool(flags.NoColor.Name),
		Log:             log,
	}, nil
}

// ParallelSuites resolves the explicit suite-parallelism option, nil when
// the decision is left to per-suite configuration.
func (c *Config) ParallelSuites() *bool {
	if c.ParallelMode == nil {
		return nil
	}
	suites := c.ParallelMode.Suites()
	return &suites
}
