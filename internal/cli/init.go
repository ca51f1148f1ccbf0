// Package cli holds the start-up steps shared by cmd/emipilot and
// cmd/emipilot-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"emipilot/internal/config"
	emilog "emipilot/internal/log"
)

// LoadEnvFile loads .env files for local development. Missing files are
// ignored and variables already set in the environment win.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadConfig loads .env and then the configuration from the environment.
func LoadConfig() *config.Config {
	LoadEnvFile()
	return config.Load()
}

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default. An unknown level falls back
// to info; Validate reports it.
func SetupLogger(cfg *config.Config, component string) *emilog.Logger {
	level, _ := emilog.ParseLevel(cfg.LogLevel)
	logger := emilog.New(emilog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
	})
	emilog.SetDefault(logger)
	return logger
}

// MustValidate exits the process when validate reports a problem.
func MustValidate(logger *emilog.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", emilog.FieldError, err)
		os.Exit(1)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *emilog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
