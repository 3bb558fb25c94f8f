// Command awaaz is the main entry point for the Awaaz voice intent server.
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

	"golang.org/x/sync/errgroup"

	"github.com/awaazpay/awaaz/internal/app"
	"github.com/awaazpay/awaaz/internal/config"
	"github.com/awaazpay/awaaz/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	// ── Load configuration ────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, onConfigChange(&level))
	var cfg *config.Config
	switch {
	case err == nil:
		cfg = watcher.Current()
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(os.Stderr, "awaaz: config file %q not found, using built-in defaults\n", *configPath)
		cfg = config.Default()
	default:
		fmt.Fprintf(os.Stderr, "awaaz: %v\n", err)
		return 1
	}
	level.Set(cfg.Server.LogLevel.SlogLevel())

	slog.Info("awaaz starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Observe.ServiceName,
		ServiceVersion: cfg.Observe.ServiceVersion,
		SampleRatio:    cfg.Observe.TraceSampleRatio,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready, press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return application.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	code := 0
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		code = 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	slog.Info("shutdown signal received, stopping")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		code = 1
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return code
}

// onConfigChange applies the log level from a reloaded config and reports
// the sections that only take effect after a restart.
func onConfigChange(level *slog.LevelVar) func(config.Change) {
	return func(ch config.Change) {
		if ch.Diff.LogLevelChanged {
			level.Set(ch.Diff.NewLogLevel.SlogLevel())
			slog.Info("log level changed", "level", ch.Diff.NewLogLevel)
		}
		if len(ch.Diff.RestartRequired) > 0 {
			slog.Warn("config changed, restart required to apply", "sections", ch.Diff.RestartRequired)
		}
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Awaaz: startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("TLS", enabled(cfg.Server.TLS != nil))
	directory := fmt.Sprintf("%d entries", len(cfg.Directory.Entries))
	if cfg.Directory.IncludeBuiltin {
		directory += " + builtin"
	}
	printRow("Directory", directory)
	printRow("Directory DB", enabled(cfg.Directory.PostgresDSN != ""))
	printRow("Phonetic match", enabled(cfg.Matching.Phonetic.Enabled))
	printRow("Discord alerts", enabled(cfg.Alert.Discord.WebhookURL != ""))
	printRow("Alert phone", cfg.Alert.PhoneNumber)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", label, value)
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "(disabled)"
}
