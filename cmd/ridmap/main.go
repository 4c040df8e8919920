package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/ridmap/internal/app"
	"github.com/lcalzada-xor/ridmap/internal/config"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

func main() {
	// load config
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "usage: ridmap [-config file] [-i wlan0,wlan1 | -pcap file] [flags]")
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ridmap: %v\n", err)
		os.Exit(2)
	}

	// Setup Structured Logging
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// Initialize Tracing
	if cfg.Log.Tracing {
		shutdownTracer, err := telemetry.InitTracer(os.Stderr)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	// Initialize Application
	application, err := app.New(cfg, app.Options{Logger: logger, Stdout: os.Stdout})
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
		cancel()
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
