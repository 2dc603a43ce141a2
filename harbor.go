// Package harbor wires the test-run orchestrator into a runnable service:
// it loads the project, selects the active reporter, and drives one-shot,
// interval or watch-mode runs.
package harbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/testharbor/testharbor/engine"
	"github.com/testharbor/testharbor/project"
	"github.com/testharbor/testharbor/reporters"
	"github.com/testharbor/testharbor/runner"
)

// Harbor is the orchestrator service.
type Harbor struct {
	ctx          context.Context
	config       *Config
	version      string
	project      *project.Project
	orchestrator *runner.Orchestrator
	cancelFlag   *runner.Flag
	failFlag     *runner.Flag
	lastResult   *runner.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the service: project load, reporter selection and orchestrator
// wiring all happen here, so configuration problems surface before Start.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Harbor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	log := config.Log
	if log == nil {
		log = slog.Default()
	}

	var p *project.Project
	var err error
	if config.ProjectFile != "" {
		p, err = project.Load(config.ProjectFile)
	} else {
		p, err = project.FromArgs(config.SuiteArgs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	registry := reporters.NewRegistry(log)
	var reporter reporters.Reporter
	if config.NoColor && (config.ReporterSwitch == "" || strings.EqualFold(config.ReporterSwitch, "console")) {
		reporter = reporters.NewConsoleReporter(reporters.ConsoleConfig{NoColor: true, Log: log})
	} else {
		reporter, err = registry.Lookup(config.ReporterSwitch)
		if err != nil {
			return nil, fmt.Errorf("failed to select reporter: %w", err)
		}
	}

	cancelFlag := &runner.Flag{}
	failFlag := &runner.Flag{}

	eng := config.Engine
	if eng == nil {
		eng = engine.NewGoTestEngine(engine.GoTestConfig{GoBinary: config.GoBinary, Log: log})
	}

	suiteRunner, err := runner.NewSuiteRunner(runner.SuiteRunnerConfig{
		Engine:        eng,
		Reporter:      reporter,
		Filters:       config.Filters,
		GlobalOptions: config.GlobalOptions,
		RoundTrip:     config.RoundTripCases,
		BuildReports:  len(config.Outputs) > 0,
		Cancel:        cancelFlag,
		Fail:          failFlag,
		Log:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create suite runner: %w", err)
	}

	orchestrator, err := runner.NewOrchestrator(runner.OrchestratorConfig{
		Suites:          suiteRunner,
		Reporter:        reporter,
		ParallelSuites:  config.ParallelSuites(),
		MaxSuiteThreads: config.MaxSuiteThreads,
		Outputs:         config.Outputs,
		Fail:            failFlag,
		Log:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return &Harbor{
		ctx:              ctx,
		config:           config,
		version:          version,
		project:          p,
		orchestrator:     orchestrator,
		cancelFlag:       cancelFlag,
		failFlag:         failFlag,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the suites once and, unless in run-once mode, keeps re-running
// on the configured interval or on watched file changes.
func (h *Harbor) Start(ctx context.Context) error {
	h.ctx = ctx
	h.done = make(chan struct{})
	h.running.Store(true)

	if !h.config.NoLogo {
		printBanner(h.version)
	}

	// Context cancellation (interrupt) sets the cooperative cancellation
	// flag: no new suites start, in-flight engine calls run to completion.
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		select {
		case <-ctx.Done():
			h.config.Log.Info("interrupt received, cancelling run")
			h.cancelFlag.Set()
		case <-h.done:
		}
	}()

	err := h.runSuites()
	if err != nil {
		h.config.Log.Error("runtime error running suites", "error", err)
		return NewRuntimeError(err)
	}

	if h.config.RunOnce {
		if h.config.Wait {
			waitForKeyPress()
		}
		if exit := h.lastResult.ExitCode; exit != 0 {
			if h.failFlag.IsSet() {
				return NewRuntimeError(errors.New("one or more suites failed to run"))
			}
			return NewTestFailureError(exit, fmt.Sprintf("%d test(s) failed", exit))
		}
		go func() {
			h.shutdownCallback(nil)
		}()
		return nil
	}

	if h.config.Watch {
		return h.startWatch()
	}
	return h.startInterval()
}

// runSuites performs one orchestrated run and keeps the result for exit-code
// computation.
func (h *Harbor) runSuites() error {
	result, err := h.orchestrator.Run(h.ctx, h.project)
	if result != nil {
		h.lastResult = result
	}
	if err != nil {
		return err
	}
	h.config.Log.Info("run completed",
		"run_id", result.RunID,
		"suites", len(result.Entries),
		"exit_code", result.ExitCode,
		"elapsed", result.Elapsed)
	return nil
}

// startInterval re-runs the suites on a fixed interval until stopped.
func (h *Harbor) startInterval() error {
	h.config.Log.Info("running in continuous mode", "interval", h.config.RunInterval)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-time.After(h.config.RunInterval):
				if !h.running.Load() {
					return
				}
				if err := h.runSuites(); err != nil {
					h.config.Log.Error("error running periodic suites", "error", err)
				}
			case <-h.done:
				return
			case <-h.ctx.Done():
				h.running.Store(false)
				return
			}
		}
	}()
	return nil
}

// startWatch re-runs the suites when a watched suite directory changes.
// Events are debounced so one save triggering several writes causes a
// single re-run.
func (h *Harbor) startWatch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create watcher: %w", err))
	}
	for _, s := range h.project.Suites {
		if err := watcher.Add(s.Path); err != nil {
			h.config.Log.Warn("cannot watch suite path", "path", s.Path, "error", err)
		}
	}
	h.config.Log.Info("running in watch mode", "suites", len(h.project.Suites))

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer watcher.Close()

		var debounce *time.Timer
		trigger := make(chan struct{}, 1)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			case <-trigger:
				if !h.running.Load() {
					return
				}
				h.config.Log.Info("change detected, re-running suites")
				if err := h.runSuites(); err != nil {
					h.config.Log.Error("error running suites after change", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				h.config.Log.Warn("watch error", "error", err)
			case <-h.done:
				return
			case <-h.ctx.Done():
				h.running.Store(false)
				return
			}
		}
	}()
	return nil
}

// Stop stops the service.
func (h *Harbor) Stop(ctx context.Context) error {
	if !h.running.Load() {
		return nil
	}
	h.running.Store(false)
	h.cancelFlag.Set()
	close(h.done)
	h.config.Log.Info("stopped")
	return nil
}

// Stopped returns true if the service is stopped.
func (h *Harbor) Stopped() bool {
	return !h.running.Load()
}

// LastResult returns the most recent run result, nil before the first run.
func (h *Harbor) LastResult() *runner.RunResult {
	return h.lastResult
}

// WaitForShutdown blocks until all goroutines have terminated. Useful in
// tests to ensure complete cleanup before moving on.
func (h *Harbor) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
