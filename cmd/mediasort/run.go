package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/haldane/mediasort/pkg/mediasort/classify"
	"github.com/haldane/mediasort/pkg/mediasort/config"
	"github.com/haldane/mediasort/pkg/mediasort/logging"
	"github.com/haldane/mediasort/pkg/mediasort/manifest"
	"github.com/haldane/mediasort/pkg/mediasort/output"
	"github.com/haldane/mediasort/pkg/mediasort/runner"
	"github.com/haldane/mediasort/pkg/mediasort/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runSort is the root command handler: dry-run preview, confirmation,
// live run, summary output.
func runSort(_ *cobra.Command, args []string) error {
	// Determine source root
	sourcePath := ""
	if len(args) > 0 {
		sourcePath = args[0]
	} else if configured := viper.GetString("source_root"); configured != "" {
		sourcePath = configured
	}
	if sourcePath == "" {
		return errors.New("no path given and no source_root configured; see 'mediasort --help'")
	}

	// Expand ~ in path
	expandedPath, err := config.ExpandPath(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Verify path exists and is accessible
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	// Resolve the backup root; the default lives inside the source tree
	// and is skipped by the scanner.
	backupRoot := viper.GetString("backup_root")
	if backupRoot == "" {
		backupRoot = config.DefaultBackupRoot(absPath)
	} else {
		backupRoot, err = config.ExpandPath(backupRoot)
		if err != nil {
			return fmt.Errorf("failed to expand backup root: %w", err)
		}
		backupRoot, err = filepath.Abs(backupRoot)
		if err != nil {
			return fmt.Errorf("failed to resolve backup root: %w", err)
		}
	}

	// Determine destination layout
	mode, err := types.ParseMode(viper.GetString("mode"))
	if err != nil {
		return fmt.Errorf("invalid mode %q: use preserve or flatten", viper.GetString("mode"))
	}
	if viper.GetBool("flatten") {
		mode = types.ModeFlatten
	}

	dryRun := viper.GetBool("dry_run")

	// Resolve the formatter up front so a bad -o fails before any work.
	formatter, err := resolveFormatter()
	if err != nil {
		return err
	}

	// Content sniffing catches media with missing or misleading
	// extensions; --no-sniff and sniff:false fall back to extensions.
	var sniffer classify.Sniffer
	if viper.GetBool("sniff") && !viper.GetBool("no_sniff") {
		sniffer = classify.MIMESniffer{}
	}

	// Run log persistence is best-effort; a broken manifest directory
	// must not block sorting.
	var sink runner.Sink
	var store *manifest.Manifest
	if viper.GetBool("manifest.enabled") {
		store, err = getManifest()
		if err != nil {
			printVerbose("Run log disabled: %v", err)
		} else if err := store.EnsureDir(); err != nil {
			printVerbose("Run log disabled: %v", err)
		} else {
			sink = store
		}
	}

	// Decider: --yes and confirm:false approve without prompting.
	var decider runner.Decider
	switch {
	case dryRun:
		// Preview only; the decider is never consulted.
	case viper.GetBool("yes") || !viper.GetBool("confirm"):
		decider = func(types.RunSummary) bool { return true }
	default:
		decider = newConfirmDecider(os.Stdin, os.Stdout)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal; the runner stops between files.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping after the current file...")
		cancel()
	}()

	// Progress UI renders on stderr during live execution only.
	var observer runner.Observer
	if !getQuiet() && !dryRun {
		observer = newProgressObserver(cancel)
	}

	r, err := runner.New(runner.Options{
		SourceRoot:        absPath,
		BackupRoot:        backupRoot,
		Mode:              mode,
		DryRunOnly:        dryRun,
		MediaExtensions:   viper.GetStringSlice("media_extensions"),
		ArchiveExtensions: viper.GetStringSlice("archive.extensions"),
		MaxPasses:         viper.GetInt("archive.max_passes"),
		Exclude:           viper.GetStringSlice("exclude"),
		Sniffer:           sniffer,
		Decider:           decider,
		Observer:          observer,
		Sink:              sink,
	})
	if err != nil {
		return err
	}

	printVerbose("Source: %s", absPath)
	printVerbose("Backup: %s", backupRoot)
	printVerbose("Mode: %s, dry-run: %v, sniff: %v", mode, dryRun, sniffer != nil)

	sum, err := r.Run(ctx)
	interrupted := false
	if err != nil {
		if !errors.Is(err, runner.ErrInterrupted) {
			return fmt.Errorf("run failed: %w", err)
		}
		interrupted = true
	}

	logging.Get("cli").Info("run finished",
		"run_id", sum.RunID,
		"status", string(sum.Status),
		"scanned", sum.Scanned,
		"moved", sum.Moved,
		"errored", sum.Errored,
		"elapsed", sum.Elapsed.String())

	// Prune old run logs while we are here. Failures only matter in
	// verbose mode.
	if sink != nil {
		if retention := viper.GetInt("manifest.retention_days"); retention > 0 {
			if err := store.Cleanup(retention); err != nil {
				printVerbose("Run log cleanup failed: %v", err)
			}
		}
	}

	// Output the summary
	var buf bytes.Buffer
	if err := formatter.Format(&buf, sum); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())

	if interrupted {
		printInfo("Run interrupted; completed operations were recorded.")
	}

	return nil
}

// resolveFormatter picks the summary formatter from flags and config.
func resolveFormatter() (output.Formatter, error) {
	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = config.DefaultOutput
	}

	if outFormat == "template" {
		tmplStr := viper.GetString("template")
		if tmplStr == "" {
			return nil, errors.New("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(tmplStr), nil
	}

	formatter, err := output.Get(outFormat)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}
	return formatter, nil
}
