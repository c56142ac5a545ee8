package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haldane/mediasort/pkg/mediasort/archive"
	"github.com/haldane/mediasort/pkg/mediasort/classify"
	"github.com/haldane/mediasort/pkg/mediasort/lockfile"
	"github.com/haldane/mediasort/pkg/mediasort/logging"
	"github.com/haldane/mediasort/pkg/mediasort/plan"
	"github.com/haldane/mediasort/pkg/mediasort/relocate"
	"github.com/haldane/mediasort/pkg/mediasort/scanner"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// reasonFailedArchive explains skip records for archives that survived
// expansion; they stay where they are instead of moving to the backup.
const reasonFailedArchive = "archive could not be expanded"

// Runner executes the mediasort lifecycle for one configuration.
// A Runner is reusable but executes one run at a time.
type Runner struct {
	opts       Options
	classifier *classify.Classifier
	observer   Observer
	log        *logging.Logger

	running atomic.Bool

	mu    sync.Mutex
	phase Phase
}

// New validates the options and creates a Runner. Root paths are
// resolved to absolute form; a missing or unreadable source root is a
// fatal configuration error.
func New(opts Options) (*Runner, error) {
	if opts.SourceRoot == "" {
		return nil, errors.New("source root is required")
	}
	src, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root: %w", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source root does not exist: %s", src)
		}
		return nil, fmt.Errorf("cannot access source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root is not a directory: %s", src)
	}

	if opts.BackupRoot == "" {
		return nil, errors.New("backup root is required")
	}
	bak, err := filepath.Abs(opts.BackupRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup root: %w", err)
	}
	if bak == src {
		return nil, errors.New("backup root must differ from source root")
	}
	if strings.HasPrefix(src, bak+string(filepath.Separator)) {
		return nil, errors.New("source root cannot live inside the backup root")
	}

	switch opts.Mode {
	case types.ModePreserve, types.ModeFlatten:
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidMode, opts.Mode)
	}

	if opts.Decider == nil && !opts.DryRunOnly {
		return nil, errors.New("a decider is required unless the run is dry-run only")
	}

	opts.SourceRoot = src
	opts.BackupRoot = bak

	observer := opts.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Runner{
		opts:       opts,
		classifier: classify.New(opts.MediaExtensions),
		observer:   observer,
		log:        logging.Get("runner"),
		phase:      PhaseIdle,
	}, nil
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Runner) setPhase(p Phase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
	r.log.Debug("phase changed", "phase", p)
	r.observer.PhaseChanged(p)
}

// Run executes the full lifecycle and returns the run summary. On
// cancellation the summary is partial, holds exactly the operations
// completed before the stop, and is returned with ErrInterrupted; it
// is flushed through the sink before Run returns. Fatal errors during
// preflight return no summary.
func (r *Runner) Run(ctx context.Context) (*types.RunSummary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	defer r.running.Store(false)

	start := time.Now().UTC()
	runID := types.NewRunID()

	// The scope set is captured once, before any expansion; top-level
	// directories created later in the run never become scopes.
	scopes, err := r.discoverScopes()
	if err != nil {
		return nil, err
	}

	r.log.Info("run starting",
		"run_id", runID,
		"source", r.opts.SourceRoot,
		"backup", r.opts.BackupRoot,
		"mode", r.opts.Mode,
		"dry_run_only", r.opts.DryRunOnly)

	// Preview pass: simulate the whole relocation without mutating.
	r.setPhase(PhaseDryRun)
	preview := r.newSummary(runID, scopes, start, true)
	if err := r.pass(ctx, preview, nil, nil); err != nil {
		if isCancel(err) {
			return r.interrupt(preview)
		}
		return nil, err
	}

	r.log.Info("preview complete",
		"run_id", runID,
		"scanned", preview.Scanned,
		"planned_moves", preview.Moved,
		"skipped", preview.Skipped,
		"errored", preview.Errored,
		"bytes", preview.HumanBytes())

	if r.opts.DryRunOnly {
		return r.complete(preview)
	}

	// Confirmation gate. Declining keeps the preview as the run's result.
	r.setPhase(PhaseAwaitingConfirmation)
	if !r.opts.Decider(*preview) {
		r.log.Info("run declined", "run_id", runID)
		return r.complete(preview)
	}

	// Live pass. The run lock lives in the backup root and is held for
	// the rest of the run; dry-run-only invocations never take it.
	r.setPhase(PhaseExecuting)
	if err := os.MkdirAll(r.opts.BackupRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup root: %w", err)
	}
	lock := lockfile.New(filepath.Join(r.opts.BackupRoot, lockfile.FileName))
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.log.Warn("failed to release run lock", "error", err)
		}
	}()

	live := r.newSummary(runID, scopes, start, false)
	fromArchive, failedArchives, err := r.expandArchives(ctx, live)
	if err != nil {
		if isCancel(err) {
			return r.interrupt(live)
		}
		return nil, err
	}

	if err := r.pass(ctx, live, fromArchive, failedArchives); err != nil {
		if isCancel(err) {
			return r.interrupt(live)
		}
		return nil, err
	}

	// Prune the directories the moves left empty.
	r.setPhase(PhaseCleanup)
	cleaned, err := r.cleanupEmptyDirs(ctx, scopes)
	live.CleanedDirs = cleaned
	if err != nil {
		return r.interrupt(live)
	}

	return r.complete(live)
}

// newSummary builds the skeleton both passes share. The preview and the
// live summary carry the same run ID; only one of them is persisted.
func (r *Runner) newSummary(runID string, scopes []types.PersonScope, start time.Time, dry bool) *types.RunSummary {
	return &types.RunSummary{
		RunID:      runID,
		Root:       r.opts.SourceRoot,
		BackupRoot: r.opts.BackupRoot,
		Scopes:     scopes,
		Mode:       r.opts.Mode,
		DryRun:     dry,
		StartedAt:  start,
	}
}

// discoverScopes lists the person directories sitting directly under
// the source root, skipping the backup root when it lives there.
func (r *Runner) discoverScopes() ([]types.PersonScope, error) {
	entries, err := os.ReadDir(r.opts.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list person directories: %w", err)
	}

	var scopes []types.PersonScope
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		root := filepath.Join(r.opts.SourceRoot, e.Name())
		if root == r.opts.BackupRoot {
			continue
		}
		scopes = append(scopes, types.PersonScope{Name: e.Name(), Root: root})
	}
	return scopes, nil
}

// expandArchives expands archives in place and appends their records to
// the summary. It returns the files written by extraction, keyed by
// path, and the archives that failed and must stay where they are.
func (r *Runner) expandArchives(ctx context.Context, sum *types.RunSummary) (fromArchive, failed map[string]bool, err error) {
	exp := archive.New(archive.Options{
		Extensions: r.opts.ArchiveExtensions,
		MaxPasses:  r.opts.MaxPasses,
		SkipDirs:   []string{r.opts.BackupRoot},
	})

	res, err := exp.Expand(ctx, r.opts.SourceRoot)

	fromArchive = make(map[string]bool, len(res.ExtractedFiles))
	for _, path := range res.ExtractedFiles {
		fromArchive[path] = true
	}
	failed = make(map[string]bool)
	for _, op := range res.Operations {
		sum.Append(op)
		if op.Kind == types.OpError {
			failed[op.Source] = true
		}
	}
	if err != nil {
		return fromArchive, failed, err
	}

	r.log.Info("archive expansion complete",
		"run_id", sum.RunID,
		"extracted", res.Extracted,
		"failed", len(failed))
	return fromArchive, failed, nil
}

// pass scans the source tree and runs every record through planning and
// relocation, appending one record per file. The summary's DryRun flag
// selects simulation. fromArchive marks records written by expansion;
// failedArchives are recorded as skips and never relocated.
func (r *Runner) pass(ctx context.Context, sum *types.RunSummary, fromArchive, failedArchives map[string]bool) error {
	planner, err := plan.New(plan.Options{
		Mode:       r.opts.Mode,
		SourceRoot: r.opts.SourceRoot,
		BackupRoot: r.opts.BackupRoot,
		Scopes:     sum.Scopes,
	})
	if err != nil {
		return err
	}
	mover := relocate.New(sum.DryRun)

	scn := scanner.New(scanner.Options{
		Root:       r.opts.SourceRoot,
		Classifier: r.classifier,
		Sniffer:    r.opts.Sniffer,
		SkipDirs:   []string{r.opts.BackupRoot},
		Exclude:    r.opts.Exclude,
		OnProgress: r.observer.ScanProgress,
	})
	res, err := scn.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	// The scanner returns partial results without error on cancellation.
	if err := ctx.Err(); err != nil {
		return err
	}

	sum.Scanned = int64(len(res.Records))
	for _, scanErr := range res.Errors {
		sum.Append(types.OperationRecord{
			Kind:      types.OpError,
			Source:    scanErr.Path,
			Timestamp: time.Now().UTC(),
			Error:     scanErr.Error,
		})
	}

	total := int64(len(res.Records))
	for i, rec := range res.Records {
		// Cancellation is honored between files, never mid-move.
		if err := ctx.Err(); err != nil {
			return err
		}

		var op types.OperationRecord
		if failedArchives[rec.Path] {
			op = types.OperationRecord{
				Kind:      types.OpSkip,
				Source:    rec.Path,
				Timestamp: time.Now().UTC(),
				Bytes:     rec.Size,
				Reason:    reasonFailedArchive,
			}
		} else {
			if fromArchive[rec.Path] {
				rec.FromArchive = true
			}
			op = r.processFile(planner, mover, rec, sum.DryRun)
		}
		sum.Append(op)
		r.observer.FileProcessed(op, int64(i+1), total)
	}

	return nil
}

// processFile plans one record and applies or simulates the move.
// Planning failures become error records; the pass continues.
func (r *Runner) processFile(planner *plan.Planner, mover *relocate.Relocator, rec types.FileRecord, dry bool) types.OperationRecord {
	decision, err := planner.Plan(rec)
	if err != nil {
		return types.OperationRecord{
			Kind:        types.OpError,
			Source:      rec.Path,
			Timestamp:   time.Now().UTC(),
			Bytes:       rec.Size,
			Error:       err.Error(),
			FromArchive: rec.FromArchive,
		}
	}
	if !decision.Move() {
		return types.OperationRecord{
			Kind:        types.OpSkip,
			Source:      rec.Path,
			Timestamp:   time.Now().UTC(),
			Bytes:       rec.Size,
			Reason:      decision.Reason,
			Simulated:   dry,
			FromArchive: rec.FromArchive,
		}
	}
	return mover.Move(rec, decision.Dest)
}

// complete finalizes and persists a summary for a run that reached the
// end of its lifecycle. Persistence failures are logged, not fatal; the
// filesystem work is already done.
func (r *Runner) complete(sum *types.RunSummary) (*types.RunSummary, error) {
	sum.Status = types.StatusCompleted
	sum.FinishedAt = time.Now().UTC()
	sum.Elapsed = sum.FinishedAt.Sub(sum.StartedAt)
	r.setPhase(PhaseCompleted)

	if r.opts.Sink != nil {
		path, err := r.opts.Sink.WriteCompleted(sum)
		if err != nil {
			r.log.Warn("failed to persist run summary", "run_id", sum.RunID, "error", err)
		} else {
			r.log.Debug("run summary persisted", "run_id", sum.RunID, "path", path)
		}
	}

	r.log.Info("run complete",
		"run_id", sum.RunID,
		"dry_run", sum.DryRun,
		"moved", sum.Moved,
		"skipped", sum.Skipped,
		"errored", sum.Errored,
		"cleaned_dirs", sum.CleanedDirs,
		"bytes", sum.HumanBytes(),
		"elapsed", sum.Elapsed)
	return sum, nil
}

// interrupt finalizes a cancelled run. The partial summary is flushed
// to the sink's interrupted artifact before ErrInterrupted is returned.
func (r *Runner) interrupt(sum *types.RunSummary) (*types.RunSummary, error) {
	sum.Status = types.StatusInterrupted
	sum.FinishedAt = time.Now().UTC()
	sum.Elapsed = sum.FinishedAt.Sub(sum.StartedAt)
	r.setPhase(PhaseInterrupted)

	if r.opts.Sink != nil {
		path, err := r.opts.Sink.WriteInterrupted(sum)
		if err != nil {
			r.log.Error("failed to flush interrupted run summary", "run_id", sum.RunID, "error", err)
		} else {
			r.log.Info("interrupted run summary flushed", "run_id", sum.RunID, "path", path)
		}
	}

	r.log.Warn("run interrupted",
		"run_id", sum.RunID,
		"operations", len(sum.Operations))
	return sum, ErrInterrupted
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
