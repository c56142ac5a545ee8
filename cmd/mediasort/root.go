package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mediasort [path]",
		Short: "Sort media files and relocate everything else",
		Long: `Mediasort scans a directory tree, keeps media files (video, audio,
images) in place or flattens them to the top of the person directory
they belong to, and relocates every other file into a backup directory.
Zip archives are expanded in place first so their contents are sorted
like any other file.

Every run starts with a dry-run preview and asks for confirmation
before touching the filesystem. Use --dry-run to stop after the
preview or --yes to skip the prompt.

Examples:
  mediasort ~/staging/alice        # Preview, confirm, then sort
  mediasort -d ~/staging/alice     # Preview only
  mediasort --flatten -y ~/in      # Flatten media, no prompt
  mediasort -o json ~/in           # Machine-readable summary
  mediasort history                # View past runs
  mediasort config show            # Show configuration`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: initializeLogging,
		RunE:              runSort,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/mediasort/config.yaml)")
	rootCmd.PersistentFlags().String("backup-root", "", "directory receiving non-media files (default: <path>/NonMedia)")
	rootCmd.PersistentFlags().Bool("flatten", false, "move media to the top of its person directory instead of leaving it in place")
	rootCmd.PersistentFlags().BoolP("dry-run", "d", false, "stop after the preview, don't move anything")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.PersistentFlags().StringP("output", "o", "", "summary format (pretty, plain, json, jsonl, yaml, tsv, csv, markdown, paths, null, template)")
	rootCmd.PersistentFlags().String("template", "", "Go template for -o template")
	rootCmd.PersistentFlags().Bool("no-sniff", false, "classify by extension only, skip content sniffing")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "glob patterns to skip (can be specified multiple times)")
	rootCmd.PersistentFlags().Int("max-passes", 0, "bound on nested archive expansion passes (0=default)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("backup_root", rootCmd.PersistentFlags().Lookup("backup-root"))
	_ = viper.BindPFlag("flatten", rootCmd.PersistentFlags().Lookup("flatten"))
	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("no_sniff", rootCmd.PersistentFlags().Lookup("no-sniff"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("archive.max_passes", rootCmd.PersistentFlags().Lookup("max-passes"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Set config name and type
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "mediasort"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "mediasort"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("MEDIASORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("source_root", "")
	viper.SetDefault("mode", config.DefaultMode)
	viper.SetDefault("confirm", true)
	viper.SetDefault("sniff", true)
	viper.SetDefault("output", config.DefaultOutput)
	viper.SetDefault("media_extensions", config.DefaultMediaExtensions)
	viper.SetDefault("archive.extensions", config.DefaultArchiveExtensions)
	viper.SetDefault("archive.max_passes", config.DefaultMaxPasses)
	viper.SetDefault("manifest.enabled", true)
	viper.SetDefault("manifest.retention_days", config.DefaultRetentionDays)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
