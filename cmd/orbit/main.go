// Command orbit opens a window and draws a slowly rotating ring with WebGPU.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-orbit/engine"
	"github.com/Carmen-Shannon/oxy-orbit/engine/config"
	"github.com/Carmen-Shannon/oxy-orbit/engine/window"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a .toml or .yaml config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Error("failed to load config", slog.String("path", *configPath), slog.Any("error", err))
			return 1
		}
	}

	// ── Window ──────────────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		logger.Error("failed to open window", slog.Any("error", err))
		return 1
	}

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(win,
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithStatusReporter(engine.MultiStatusReporter{
			engine.NewTitleStatusReporter(win, cfg.Window.Title),
			engine.LogStatusReporter{Logger: logger},
		}),
	)
	win.SetResizeCallback(eng.Resize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed start leaves the window open showing the status until it is closed.
	if _, err := eng.Run(ctx); err != nil {
		logger.Error("engine failed to start", slog.Any("error", err))
	}

	// GPU objects are released before the window that owns the surface is destroyed.
	shutdown := func() {
		eng.Release()
		_ = win.Close()
	}
	win.SetUpdateCallback(func() {
		if ctx.Err() != nil {
			shutdown()
		}
	})
	win.ProcessMessages()
	shutdown()
	return 0
}
