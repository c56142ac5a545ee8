// Package types provides core data types for the mediasort engine.
// It includes the file and operation records exchanged between the
// classifier, planner, relocator, and run coordinator, along with
// utility functions for parsing modes and formatting byte counts.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// Classification is the verdict assigned to a scanned file.
type Classification string

// Classification values.
const (
	// ClassMedia marks a file recognized as media by extension or MIME type.
	ClassMedia Classification = "media"

	// ClassNonMedia marks every file that is not recognized as media.
	// Unknown and unsniffable files default here.
	ClassNonMedia Classification = "non_media"
)

// Mode selects the destination layout strategy for a run.
type Mode string

// Mode values.
const (
	// ModePreserve relocates non-media files to the backup root while
	// mirroring their path relative to the source root.
	ModePreserve Mode = "preserve"

	// ModeFlatten relocates media files to the root of their person scope
	// and non-media files to a per-scope directory under the backup root.
	ModeFlatten Mode = "flatten"
)

// ErrInvalidMode indicates that a mode string could not be parsed.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode parses a mode name from config or flags.
// It accepts "preserve" and "flatten" (case-insensitive) and returns
// ErrInvalidMode for anything else.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModePreserve):
		return ModePreserve, nil
	case string(ModeFlatten):
		return ModeFlatten, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// String returns the mode name as used in config files and flags.
func (m Mode) String() string { return string(m) }

// OpKind identifies what an operation record describes.
type OpKind string

// Operation kinds.
const (
	// OpExtract records an archive expanded in place.
	OpExtract OpKind = "extract"

	// OpMove records a file relocated to a planned destination.
	OpMove OpKind = "move"

	// OpSkip records a file deliberately left in place, with Reason set.
	OpSkip OpKind = "skip"

	// OpError records a per-file failure; the run continues past it.
	OpError OpKind = "error"
)

// RunStatus describes how a run ended.
type RunStatus string

// Run statuses.
const (
	// StatusCompleted marks a run that finished all phases.
	StatusCompleted RunStatus = "completed"

	// StatusInterrupted marks a run stopped by cancellation; its summary
	// holds exactly the operations completed before the stop.
	StatusInterrupted RunStatus = "interrupted"
)

// PersonScope is a top-level directory of the source root treated as an
// independent collection. Flatten mode moves a scope's media to its root
// and groups its non-media under the scope name in the backup root. The
// scope set is captured once at run start and does not change afterwards,
// even when archive expansion creates new top-level directories.
type PersonScope struct {
	// Name is the scope's directory name.
	Name string `json:"name"`

	// Root is the absolute path of the scope directory.
	Root string `json:"root"`
}

// FileRecord contains the scanned metadata and classification for one file.
// Records are immutable once classification is assigned.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`

	// Ext is the lower-cased filename extension including the leading dot,
	// or empty when the name has none.
	Ext string `json:"ext,omitempty"`

	// MIME is the content-sniffed MIME type, or empty when sniffing
	// failed or was unavailable.
	MIME string `json:"mime,omitempty"`

	// Class is the classification verdict for this file.
	Class Classification `json:"class"`

	// FromArchive indicates the file appeared via archive expansion
	// rather than in the original tree.
	FromArchive bool `json:"from_archive,omitempty"`
}

// IsMedia reports whether the record was classified as media.
func (f *FileRecord) IsMedia() bool { return f.Class == ClassMedia }

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileRecord) HumanSize() string { return FormatSize(f.Size) }

// ScanError represents an error encountered during scanning.
// It pairs a file path with the error message for debugging and reporting.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// OperationRecord describes a single attempted operation. Records are
// append-only; every scanned file ends a run with exactly one record.
type OperationRecord struct {
	// Kind identifies the operation.
	Kind OpKind `json:"kind"`

	// Source is the absolute path the operation acted on.
	Source string `json:"source"`

	// Dest is the destination path for extract and move operations.
	Dest string `json:"dest,omitempty"`

	// Timestamp is when the operation finished, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Bytes is the size of the affected file, or total bytes written
	// for an extraction.
	Bytes int64 `json:"bytes"`

	// Error holds the failure message for error records.
	Error string `json:"error,omitempty"`

	// Reason explains skip records, e.g. media left in place.
	Reason string `json:"reason,omitempty"`

	// Simulated is true when the operation was planned but not performed.
	Simulated bool `json:"simulated,omitempty"`

	// FromArchive is true when the source file came out of an archive
	// during this run rather than from the original tree.
	FromArchive bool `json:"from_archive,omitempty"`
}

// RunSummary aggregates everything a run did or would do.
// It is flushed to the run log on completion, and on interruption with
// Status set to StatusInterrupted.
type RunSummary struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Root is the source root the run operated on.
	Root string `json:"root"`

	// BackupRoot is where non-media files were relocated.
	BackupRoot string `json:"backup_root"`

	// Scopes lists the person directories captured at run start.
	// Flatten mode groups files by these; preserve mode ignores them.
	Scopes []PersonScope `json:"scopes,omitempty"`

	// Mode is the destination layout strategy used.
	Mode Mode `json:"mode"`

	// DryRun is true when the relocator ran in simulation.
	DryRun bool `json:"dry_run"`

	// Status reports whether the run completed or was interrupted.
	Status RunStatus `json:"status"`

	// Scanned is the number of regular files discovered.
	Scanned int64 `json:"scanned"`

	// Extracted is the number of archives expanded.
	Extracted int64 `json:"extracted"`

	// Moved is the number of files relocated (or simulated).
	Moved int64 `json:"moved"`

	// Skipped is the number of files deliberately left in place.
	Skipped int64 `json:"skipped"`

	// Errored is the number of per-file failures recorded.
	Errored int64 `json:"errored"`

	// BytesMoved is the total size of relocated files in bytes.
	BytesMoved int64 `json:"bytes_moved"`

	// CleanedDirs is the number of empty directories removed after relocation.
	CleanedDirs int64 `json:"cleaned_dirs"`

	// Operations lists every record in the order it was produced.
	Operations []OperationRecord `json:"operations"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended or was interrupted.
	FinishedAt time.Time `json:"finished_at"`

	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`
}

// Append adds an operation record and updates the summary counters.
// All record accounting goes through here so counts and the operation
// list never disagree.
func (s *RunSummary) Append(op OperationRecord) {
	s.Operations = append(s.Operations, op)
	switch op.Kind {
	case OpExtract:
		s.Extracted++
	case OpMove:
		s.Moved++
		s.BytesMoved += op.Bytes
	case OpSkip:
		s.Skipped++
	case OpError:
		s.Errored++
	}
}

// HumanBytes returns the relocated byte count as a human-readable string.
func (s *RunSummary) HumanBytes() string { return FormatSize(s.BytesMoved) }

// NewRunID creates a unique run ID like "run-2026-08-25T10-30-00-1b9d6bcd".
// The timestamp prefix keeps run log filenames sortable; the random
// suffix keeps IDs unique within a second.
func NewRunID() string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("run-%s-%s", ts, uuid.NewString()[:8])
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in
// bytes. It accepts plain byte counts ("1024"), a bare unit letter
// ("10K", "2g"), and full IEC or SI suffixes ("10KB", "2GiB").
// Decimal values are supported and truncated to the nearest byte.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	// Reduce the suffix to its unit letter
	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB) for consistency
// with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
