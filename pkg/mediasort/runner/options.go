// Package runner coordinates mediasort runs. A run moves through a
// fixed lifecycle: a read-only dry-run pass produces a preview summary,
// a decider approves or declines live execution, the live pass expands
// archives and relocates files one at a time, and a final cleanup pass
// prunes directories the moves left empty. Cancelling the context stops
// the run between files and flushes the partial summary through the
// sink before Run returns.
package runner

import (
	"errors"

	"github.com/haldane/mediasort/pkg/mediasort/classify"
	"github.com/haldane/mediasort/pkg/mediasort/scanner"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// ErrInterrupted is returned by Run when the context was cancelled.
// The partial summary accompanies the error.
var ErrInterrupted = errors.New("run interrupted")

// ErrRunActive is returned by Run while another run is in flight on
// the same Runner.
var ErrRunActive = errors.New("a run is already active")

// Phase identifies a stage of the run lifecycle.
type Phase string

// Lifecycle phases in transition order. Completed and Interrupted are
// terminal.
const (
	PhaseIdle                 Phase = "idle"
	PhaseDryRun               Phase = "dry_run"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseExecuting            Phase = "executing"
	PhaseCleanup              Phase = "cleanup"
	PhaseCompleted            Phase = "completed"
	PhaseInterrupted          Phase = "interrupted"
)

// Decider approves or declines live execution. It receives the preview
// summary produced by the dry-run pass; returning false ends the run
// with the preview as its result.
type Decider func(preview types.RunSummary) bool

// Observer receives progress notifications during a run. Observers
// drive displays only; they cannot influence the run.
type Observer interface {
	// PhaseChanged fires on every lifecycle transition.
	PhaseChanged(phase Phase)

	// ScanProgress relays throttled scanner progress during discovery.
	// It may be called from multiple goroutines.
	ScanProgress(p scanner.Progress)

	// FileProcessed fires after each relocation decision with the
	// record produced and the position within the current pass.
	FileProcessed(op types.OperationRecord, done, total int64)
}

// Sink persists run summaries. The manifest package implements it;
// interrupted runs land in an artifact distinct from completed ones.
type Sink interface {
	WriteCompleted(s *types.RunSummary) (string, error)
	WriteInterrupted(s *types.RunSummary) (string, error)
}

// noopObserver discards all notifications.
type noopObserver struct{}

func (noopObserver) PhaseChanged(Phase)                                {}
func (noopObserver) ScanProgress(scanner.Progress)                     {}
func (noopObserver) FileProcessed(types.OperationRecord, int64, int64) {}

// Options configures a Runner.
type Options struct {
	// SourceRoot is the directory to sort. Required.
	SourceRoot string

	// BackupRoot receives non-media files. Required. It may live inside
	// the source root; the scanner and expander skip its subtree.
	BackupRoot string

	// Mode selects the destination layout strategy.
	Mode types.Mode

	// DryRunOnly ends the run after the preview pass. Nothing is
	// mutated and no confirmation is requested.
	DryRunOnly bool

	// MediaExtensions lists filename extensions classified as media.
	MediaExtensions []string

	// ArchiveExtensions lists filename extensions expanded in place
	// before the live scan.
	ArchiveExtensions []string

	// MaxPasses bounds repeated archive expansion passes. Values < 1
	// use archive.DefaultMaxPasses.
	MaxPasses int

	// Exclude contains glob patterns skipped during scanning.
	Exclude []string

	// Sniffer detects MIME types by content during scanning. Nil
	// disables sniffing; classification falls back to extensions alone.
	Sniffer classify.Sniffer

	// Decider approves live execution after the preview. Required
	// unless DryRunOnly is set.
	Decider Decider

	// Observer receives progress notifications. Nil installs a no-op.
	Observer Observer

	// Sink persists the run summary. Nil disables persistence.
	Sink Sink
}
