package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage mediasort configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/mediasort/config.yaml (if set)
  2. ~/.config/mediasort/config.yaml

Environment variables can override config file settings using the MEDIASORT_ prefix:
  MEDIASORT_MODE=flatten
  MEDIASORT_BACKUP_ROOT=/mnt/backup
  MEDIASORT_SNIFF=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		cfg = &config.Config{
			Mode:            config.DefaultMode,
			Confirm:         true,
			Sniff:           true,
			Output:          config.DefaultOutput,
			MediaExtensions: config.DefaultMediaExtensions,
		}
		cfg.Archive.Extensions = config.DefaultArchiveExtensions
		cfg.Archive.MaxPasses = config.DefaultMaxPasses
		cfg.Manifest.Enabled = true
		cfg.Manifest.RetentionDays = config.DefaultRetentionDays
	}

	// Show config file being used
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	// Display configuration
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("source_root:          %s\n", orUnset(cfg.SourceRoot))
	fmt.Printf("backup_root:          %s\n", orDefaultBackup(cfg.BackupRoot))
	fmt.Printf("mode:                 %s\n", cfg.Mode)
	fmt.Printf("confirm:              %t\n", cfg.Confirm)
	fmt.Printf("sniff:                %t\n", cfg.Sniff)
	fmt.Printf("output:               %s\n", cfg.Output)
	fmt.Printf("media_extensions:     %s\n", strings.Join(cfg.MediaExtensions, " "))
	fmt.Printf("archive.extensions:   %s\n", strings.Join(cfg.Archive.Extensions, " "))
	fmt.Printf("archive.max_passes:   %d\n", cfg.Archive.MaxPasses)
	fmt.Printf("exclude:              %v\n", cfg.Exclude)
	fmt.Printf("manifest.enabled:     %t\n", cfg.Manifest.Enabled)
	fmt.Printf("manifest.path:        %s\n", cfg.Manifest.Path)
	fmt.Printf("manifest.retention:   %d days\n", cfg.Manifest.RetentionDays)
	fmt.Printf("logging.level:        %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:         %s\n", orDefaultLogPath(cfg.Logging.Path))

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"MEDIASORT_SOURCE_ROOT",
		"MEDIASORT_BACKUP_ROOT",
		"MEDIASORT_MODE",
		"MEDIASORT_CONFIRM",
		"MEDIASORT_SNIFF",
		"MEDIASORT_OUTPUT",
		"MEDIASORT_EXCLUDE",
		"MEDIASORT_ARCHIVE_MAX_PASSES",
		"MEDIASORT_MANIFEST_ENABLED",
		"MEDIASORT_MANIFEST_PATH",
		"MEDIASORT_MANIFEST_RETENTION_DAYS",
		"MEDIASORT_LOGGING_LEVEL",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(unset; pass a path on the command line)"
	}
	return s
}

func orDefaultBackup(s string) string {
	if s == "" {
		return "(default: <source>/" + config.DefaultBackupDirName + ")"
	}
	return s
}

func orDefaultLogPath(s string) string {
	if s == "" {
		return config.DefaultLogPath()
	}
	return s
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	// Get config file path
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	// Open editor
	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'mediasort config edit' to modify it.")
		return nil
	}

	// Create default config
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	// Show if file exists
	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
