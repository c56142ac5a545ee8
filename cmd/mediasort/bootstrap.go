package main

import (
	"fmt"

	"github.com/haldane/mediasort/pkg/mediasort/config"
	"github.com/haldane/mediasort/pkg/mediasort/logging"
	"github.com/haldane/mediasort/pkg/mediasort/types"
	"github.com/spf13/cobra"
)

// defaultRotationSize is used when the configured max_size is missing
// or unparseable.
const defaultRotationSize = 10 * 1024 * 1024 // 10MB

// initializeLogging is the PersistentPreRunE hook for all commands. It
// ensures the application directories exist and initializes the logging
// system from configuration before any command logic runs.
func initializeLogging(_ *cobra.Command, _ []string) error {
	// Ensure directories exist before anything tries to write to them.
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.EnsureManifestDir(); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := config.EnsureStateDir(); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		// Logging must not block the command; fall back to defaults.
		printVerbose("Failed to load config for logging, using defaults: %v", err)
		cfg = &config.Config{}
		cfg.Logging.Level = "info"
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if logCfg.Level == "" {
		logCfg.Level = "info"
	}
	if logCfg.Path == "" {
		logCfg.Path = config.DefaultLogPath()
	}

	// Verbose mode mirrors debug logs to stderr.
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	return nil
}

// parseRotationConfig converts the string-based rotation settings from
// the config file into the typed form the logging package uses. An
// unparseable max_size falls back to the default rather than failing
// the command.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize := int64(defaultRotationSize)
	if rc.MaxSize != "" {
		if parsed, err := types.ParseSize(rc.MaxSize); err == nil && parsed > 0 {
			maxSize = parsed
		}
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}
