// Package cli provides common process bootstrap utilities shared by
// cmd/asesor and cmd/asesor-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asesor/internal/budget"
	"asesor/internal/config"
	applog "asesor/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger initializes structured logging at the given level name and
// installs it as the default slog logger.
func SetupLogger(level string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// LoadEngine builds the advisory engine from the optional policy file.
// Exits the process when the file is present but invalid.
func LoadEngine(logger *applog.Logger, path string) *budget.Engine {
	policy, err := budget.LoadPolicy(path)
	if err != nil {
		logger.Error("Failed to load budget policy", "error", err, "path", path)
		os.Exit(1)
	}
	engine, err := budget.NewEngine(policy)
	if err != nil {
		logger.Error("Invalid budget policy", "error", err, "path", path)
		os.Exit(1)
	}
	if path != "" {
		logger.Info("Loaded budget policy", "path", path)
	}
	return engine
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
