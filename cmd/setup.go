package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veltra/corpusd/internal/app"
	"github.com/veltra/corpusd/internal/config"
	"github.com/veltra/corpusd/internal/log"
)

// Global flags shared by all subcommands.
var (
	flagVerbose bool
	flagJSONLog bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "log in JSON format")
}

// newLogger builds the process logger from the global flags.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: flagJSONLog})
}

// loadConfig loads and validates the base configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// setupApp loads config, validates the embedding and Drive settings, and
// builds the full application container. The caller owns a.Close().
func setupApp(ctx context.Context) (*app.App, log.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateEmbedding(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}
	if err := cfg.ValidateDrive(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, logger, nil
}

// setupStore builds a database-only container for commands that never touch
// the embedder or Drive.
func setupStore(ctx context.Context) (*app.App, log.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger()
	a, err := app.SetupStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, logger, nil
}

func closeApp(a *app.App, logger log.Logger) {
	if err := a.Close(); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
}
