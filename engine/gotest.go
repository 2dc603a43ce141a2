package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/modfile"

	"github.com/testharbor/testharbor/types"
)

const (
	defaultGoBinary = "go"

	// discoveryTimeout bounds the -list child process. The orchestration
	// layer itself never times a suite out; this deadline is internal to
	// this engine, covering the case where listing hangs on a broken
	// toolchain before any test has run.
	discoveryTimeout = 30 * time.Second

	// Disables go test result caching so every run actually executes.
	disableCacheCount = "1"
)

// GoTestEngine is the reference Engine implementation. It discovers tests
// with `go test -list` and executes them with `go test -json`, parsing the
// test2json event stream into per-case results.
type GoTestEngine struct {
	goBinary string
	log      *slog.Logger
}

// GoTestConfig configures a GoTestEngine.
type GoTestConfig struct {
	GoBinary string
	Log      *slog.Logger
}

// NewGoTestEngine creates the reference engine.
func NewGoTestEngine(cfg GoTestConfig) *GoTestEngine {
	if cfg.GoBinary == "" {
		cfg.GoBinary = defaultGoBinary
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &GoTestEngine{goBinary: cfg.GoBinary, log: cfg.Log}
}

func (e *GoTestEngine) Name() string { return "gotest" }

// Discover lists the test functions in the suite's package directory and
// wraps them into handles. The class name is the package import path; trait
// rules from the descriptor attach traits by method-name glob.
func (e *GoTestEngine) Discover(ctx context.Context, desc types.SuiteDescriptor, opts types.SuiteOptions) ([]types.TestCaseHandle, error) {
	pkgPath, err := e.resolvePackagePath(desc.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.goBinary, "test", ".", "-list", "^Test")
	cmd.Dir = desc.Path
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug("listing tests", "suite", desc.Key(), "dir", desc.Path, "command", cmd.String())
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("listing tests in %s timed out after %s", desc.Path, discoveryTimeout)
		}
		return nil, fmt.Errorf("listing tests in %s: %w\nstderr: %s", desc.Path, err, stderr.String())
	}

	names := parseTestListOutput(stdout.Bytes())
	cases := make([]types.TestCaseHandle, 0, len(names))
	for _, name := range names {
		cases = append(cases, types.TestCaseHandle{
			ID:         pkgPath + "." + name,
			MethodName: name,
			ClassName:  pkgPath,
			Traits:     traitsFor(name, desc.TraitRules),
		})
	}
	return cases, nil
}

// Execute runs the given cases in one `go test -json` invocation and feeds
// parsed results to the sink in the order the events arrived. The command is
// never interrupted once started; when the sink stops accepting, remaining
// parsed results are dropped.
func (e *GoTestEngine) Execute(ctx context.Context, desc types.SuiteDescriptor, cases []types.TestCaseHandle, opts types.SuiteOptions, sink ResultSink) error {
	if len(cases) == 0 {
		sink.Finished(0)
		return nil
	}

	if desc.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.Timeout)
		defer cancel()
	}

	args := []string{"test", ".", "-json", "-count", disableCacheCount, "-run", runPattern(cases)}
	if opts.MaxParallelThreads != nil && *opts.MaxParallelThreads > 0 {
		args = append(args, "-parallel", strconv.Itoa(*opts.MaxParallelThreads))
	}
	if opts.Diagnostics {
		args = append(args, "-v")
	}

	cmd := exec.CommandContext(ctx, e.goBinary, args...)
	cmd.Dir = desc.Path
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug("executing tests", "suite", desc.Key(), "count", len(cases), "command", cmd.String())
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	// A non-zero exit with parseable JSON output means test failures, which
	// the parsed events already carry. Anything without output is a real
	// engine failure.
	if runErr != nil && stdout.Len() == 0 {
		return fmt.Errorf("executing tests in %s: %w\nstderr: %s", desc.Path, runErr, stderr.String())
	}

	byMethod := make(map[string]types.TestCaseHandle, len(cases))
	for _, tc := range cases {
		byMethod[tc.MethodName] = tc
	}

	for _, parsed := range ParseEvents(stdout.Bytes()) {
		tc, ok := byMethod[parsed.Test]
		if !ok {
			continue // subtest or unrequested test
		}
		if !sink.Accept(types.CaseResult{
			Case:     tc,
			Status:   parsed.Status,
			Duration: parsed.Duration,
			Output:   parsed.Output,
			Message:  parsed.Message,
		}) {
			break
		}
	}
	sink.Finished(elapsed)
	return nil
}

// resolvePackagePath finds the enclosing Go module of the suite directory and
// derives the package import path from it.
func (e *GoTestEngine) resolvePackagePath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving suite path %s: %w", dir, err)
	}

	root := abs
	for {
		goMod := filepath.Join(root, "go.mod")
		if data, err := os.ReadFile(goMod); err == nil {
			mf, err := modfile.Parse(goMod, data, nil)
			if err != nil {
				return "", fmt.Errorf("parsing %s: %w", goMod, err)
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return "", fmt.Errorf("relativizing %s against module root %s: %w", abs, root, err)
			}
			return path.Join(mf.Module.Mod.Path, filepath.ToSlash(rel)), nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			// No module found; fall back to the directory name.
			return filepath.Base(abs), nil
		}
		root = parent
	}
}

// runPattern builds the -run regexp selecting exactly the given cases.
func runPattern(cases []types.TestCaseHandle) string {
	names := make([]string, 0, len(cases))
	for _, tc := range cases {
		names = append(names, regexp.QuoteMeta(tc.MethodName))
	}
	return "^(" + strings.Join(names, "|") + ")$"
}

func traitsFor(method string, rules []types.TraitRule) map[string][]string {
	var traits map[string][]string
	for _, rule := range rules {
		ok, err := path.Match(rule.Pattern, method)
		if err != nil || !ok {
			continue
		}
		if traits == nil {
			traits = make(map[string][]string)
		}
		traits[rule.Name] = append(traits[rule.Name], rule.Value)
	}
	return traits
}

// parseTestListOutput extracts test names from `go test -list` output,
// dropping the trailing "ok <pkg> <time>" summary line.
func parseTestListOutput(output []byte) []string {
	var names []string
	for _, line := range bytes.Split(output, []byte("\n")) {
		name := string(bytes.TrimSpace(line))
		if isValidTestName(name) {
			names = append(names, name)
		}
	}
	return names
}

func isValidTestName(name string) bool {
	if name == "" || name == "ok" || strings.HasPrefix(name, "?") {
		return false
	}
	if strings.HasPrefix(name, "ok ") && strings.HasSuffix(name, "s") {
		return false
	}
	return true
}
