package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/config"
	"github.com/haldane/mediasort/pkg/mediasort/manifest"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	Long: `View the history of mediasort runs.

The run log stores a record of every run, including the files that were
moved, skipped, or failed. Interrupted runs are recorded too.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific run",
	Long: `Display the full summary of a run by its ID.

The summary honors the -o flag, so 'history show -o json <id>' emits
the same JSON a live run would.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old run logs",
	Long:  `Remove run logs older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest returns a manifest instance with the configured directory.
func getManifest() (*manifest.Manifest, error) {
	cfg, err := config.Load()
	if err != nil || cfg.Manifest.Path == "" {
		// Use default manifest path if config fails to load
		manifestDir, dirErr := config.ManifestDir()
		if dirErr != nil {
			return nil, fmt.Errorf("failed to get manifest directory: %w", dirErr)
		}
		return manifest.New(manifestDir)
	}

	return manifest.New(cfg.Manifest.Path)
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize run log: %w", err)
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No run history found.")
		printInfo("Run 'mediasort [path]' to sort a directory.")
		return nil
	}

	// Print header
	fmt.Printf("\n%-34s  %-16s  %-11s  %-6s  %-10s  %s\n", "RUN ID", "STARTED", "STATUS", "MOVED", "SIZE", "SOURCE")
	fmt.Println(strings.Repeat("-", 100))

	for _, entry := range entries {
		fmt.Printf("%-34s  %-16s  %-11s  %-6d  %-10s  %s\n",
			truncateString(entry.RunID, 34),
			entry.StartedAt.Local().Format("2006-01-02 15:04"),
			string(entry.Status),
			entry.Moved,
			entry.HumanBytes(),
			entry.Root,
		)
	}

	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'mediasort history show <id>' for the full record of a run.")

	return nil
}

// runHistoryShow displays the full summary of one run, rendered through
// the same formatter registry as live output.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize run log: %w", err)
	}

	entry, err := m.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get run %q: %w", id, err)
	}

	formatter, err := resolveFormatter()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, entry); err != nil {
		return fmt.Errorf("failed to format run summary: %w", err)
	}
	fmt.Print(buf.String())

	return nil
}

// runHistoryClean removes old run logs.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize run log: %w", err)
	}

	retentionDays := cfg.Manifest.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning run logs older than %d days...", retentionDays)

	if err := m.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
