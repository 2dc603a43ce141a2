package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	harbor "github.com/testharbor/testharbor"
	"github.com/testharbor/testharbor/exitcodes"
	"github.com/testharbor/testharbor/flags"
	"github.com/testharbor/testharbor/reporters"
	"github.com/testharbor/testharbor/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "testharbor"
	app.Usage = "Test suite orchestrator"
	app.Description = "testharbor discovers, filters and executes test suites and aggregates their results"
	app.ArgsUsage = "suite-path[=config-path] ..."
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if failure, ok := harbor.IsTestFailureError(err); ok {
				cli.HandleExitCoder(cli.Exit(err.Error(), failure.FailedCount))
			} else {
				// Runtime errors and anything else unclassified.
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.OrchestrationErr))
			}
		}
	}

	// Telemetry is best-effort: a missing collector must never block a run.
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		slog.Warn("telemetry disabled", "error", err)
	} else {
		defer shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler exits for classified errors; this is the fallback.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.OrchestrationErr)
	}
}

func run(ctx *cli.Context) error {
	log := newLogger(ctx.String(flags.LogLevel.Name))
	slog.SetDefault(log)

	if ctx.Bool(flags.ListReporters.Name) {
		fmt.Fprintln(ctx.App.Writer, "Installed reporters:")
		reporters.NewRegistry(log).List(ctx.App.Writer)
		return nil
	}

	cfg, err := harbor.NewConfig(ctx, log)
	if err != nil {
		return harbor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	runCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	svc, err := harbor.New(runCtx, cfg, Version, func(error) { cancel() })
	if err != nil {
		return harbor.NewRuntimeError(fmt.Errorf("failed to create service: %w", err))
	}

	if err := svc.Start(runCtx); err != nil {
		return err
	}
	if cfg.RunOnce {
		return nil
	}

	// Continuous mode: serve health and metrics until interrupted.
	if cfg.HealthzAddr != "" {
		hz := &service.HealthzServer{}
		go func() {
			if err := hz.Start(runCtx, cfg.HealthzAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("healthz server stopped", "error", err)
			}
		}()
		defer func() {
			_ = hz.Shutdown()
		}()
	}

	<-runCtx.Done()
	_ = svc.Stop(context.Background())

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	return svc.WaitForShutdown(waitCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
