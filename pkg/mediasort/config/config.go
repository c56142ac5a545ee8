package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ArchiveConfig configures archive expansion.
type ArchiveConfig struct {
	// Extensions lists filename extensions treated as archives.
	Extensions []string `mapstructure:"extensions"`
	// MaxPasses bounds repeated expansion; leftovers become errors.
	MaxPasses int `mapstructure:"max_passes"`
}

// Config represents the application configuration.
type Config struct {
	SourceRoot      string        `mapstructure:"source_root"`
	BackupRoot      string        `mapstructure:"backup_root"`
	Mode            string        `mapstructure:"mode"`
	Confirm         bool          `mapstructure:"confirm"`
	Sniff           bool          `mapstructure:"sniff"`
	Output          string        `mapstructure:"output"`
	MediaExtensions []string      `mapstructure:"media_extensions"`
	Archive         ArchiveConfig `mapstructure:"archive"`
	Exclude         []string      `mapstructure:"exclude"`
	Manifest        struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"manifest"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/mediasort/config.yaml
//   - $HOME/.config/mediasort/config.yaml
//
// Environment variables are prefixed with MEDIASORT_ (e.g., MEDIASORT_MODE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "mediasort"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "mediasort"))

	v.SetEnvPrefix("MEDIASORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("source_root", "")
	v.SetDefault("backup_root", "")
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("confirm", true)
	v.SetDefault("sniff", true)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("media_extensions", DefaultMediaExtensions)
	v.SetDefault("archive.extensions", DefaultArchiveExtensions)
	v.SetDefault("archive.max_passes", DefaultMaxPasses)
	v.SetDefault("exclude", []string{})
	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)
	v.SetDefault("manifest.path", filepath.Join(homeDir, ".config", "mediasort", ".manifest"))

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"runner":   "info",
		"scanner":  "info",
		"archive":  "info",
		"relocate": "info",
		"cli":      "warn",
	})

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in user-supplied paths
	for _, p := range []*string{&cfg.SourceRoot, &cfg.BackupRoot, &cfg.Manifest.Path} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// DefaultBackupRoot returns the backup root used when none is configured:
// a directory named NonMedia directly inside the source root. The scanner
// skips this subtree so relocated files are never reprocessed.
func DefaultBackupRoot(sourceRoot string) string {
	return filepath.Join(sourceRoot, DefaultBackupDirName)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "mediasort"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "mediasort"), nil
}

// ManifestDir returns the run log directory path.
func ManifestDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ".manifest"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// EnsureManifestDir creates the run log directory if it doesn't exist.
func EnsureManifestDir() error {
	dir, err := ManifestDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	manifestDir, err := ManifestDir()
	if err != nil {
		return err
	}

	defaultConfig := fmt.Sprintf(`# Mediasort Configuration

# Directory tree to sort. Empty means it must be given on the command line.
source_root: ""

# Where non-media files are relocated.
# Empty means <source_root>/%s.
backup_root: ""

# Destination layout: preserve (mirror relative paths under the backup root)
# or flatten (media to the top of each person directory, non-media to a
# per-person directory under the backup root).
mode: %s

# Ask for confirmation after the dry-run preview before making changes.
confirm: true

# Sniff file content to catch media with missing or misleading extensions.
sniff: true

# Summary output format: pretty, plain, json, yaml
output: %s

# Extensions classified as media without sniffing.
media_extensions:
  - .mp4
  - .avi
  - .mov
  - .mkv
  - .wmv
  - .flv
  - .mp3
  - .wav
  - .flac
  - .m4a
  - .aac
  - .jpg
  - .jpeg
  - .png
  - .gif
  - .bmp
  - .tiff

# Archive expansion
archive:
  extensions:
    - .zip
  # Nested archives are expanded in repeated passes up to this bound.
  max_passes: %d

# Glob patterns excluded from scanning
exclude: []

# Run log settings
manifest:
  enabled: true
  path: %s
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/mediasort/mediasort.log)
  path: ""
  # Log rotation settings
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    runner: info
    scanner: info
    archive: info
    relocate: info
    cli: warn
`, DefaultBackupDirName, DefaultMode, DefaultOutput, DefaultMaxPasses, manifestDir, DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/mediasort/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "mediasort")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "mediasort.log")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}
