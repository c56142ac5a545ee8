// Package scanner provides parallel directory discovery for mediasort.
// It walks the source tree with fastwalk, stats and classifies every
// regular file, and returns records sorted by path so downstream
// planning and relocation stay deterministic.
package scanner

import (
	"errors"

	"github.com/haldane/mediasort/pkg/mediasort/classify"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// ErrNoClassifier indicates that Options.Classifier was nil.
var ErrNoClassifier = errors.New("scanner requires a classifier")

// Progress reports real-time scan progress.
type Progress struct {
	// DirsScanned is the number of directories processed so far.
	DirsScanned int64 `json:"dirs_scanned"`

	// FilesScanned is the number of files examined so far.
	FilesScanned int64 `json:"files_scanned"`

	// MediaFiles is the number of files classified as media so far.
	MediaFiles int64 `json:"media_files"`

	// BytesScanned is the total bytes of all files examined so far.
	BytesScanned int64 `json:"bytes_scanned"`

	// CurrentPath is the path currently being scanned.
	CurrentPath string `json:"current_path"`
}

// Result contains the aggregated results of a scan.
type Result struct {
	// Records contains every regular file discovered, sorted by path.
	Records []types.FileRecord `json:"records"`

	// DirsScanned is the total number of directories traversed.
	DirsScanned int64 `json:"dirs_scanned"`

	// FilesScanned is the total number of files examined.
	FilesScanned int64 `json:"files_scanned"`

	// TotalSize is the sum of all file sizes in bytes.
	TotalSize int64 `json:"total_size"`

	// Errors contains per-path errors encountered during scanning.
	// They do not stop the scan; callers account for them separately.
	Errors []types.ScanError `json:"errors,omitempty"`
}

// Options configures the scanner behavior.
type Options struct {
	// Root is the starting directory for the scan.
	Root string

	// Classifier assigns the media verdict to each record. Required.
	Classifier *classify.Classifier

	// Sniffer detects MIME types by content. Nil disables sniffing and
	// classification falls back to extensions alone.
	Sniffer classify.Sniffer

	// SkipDirs contains absolute paths whose subtrees are skipped
	// entirely, e.g. the backup root when it lives inside the source.
	SkipDirs []string

	// Exclude contains glob patterns for paths to skip during scanning.
	// Patterns are matched against both the basename and the full path.
	Exclude []string

	// OnProgress is called periodically with scan progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(Progress)

	// OnRecord is called for each discovered record as the walk runs,
	// before the final sorted result is assembled. It must be safe to
	// call from multiple goroutines.
	OnRecord func(types.FileRecord)
}

// Validate checks the options and applies defaults for zero values.
func (o *Options) Validate() error {
	if o.Classifier == nil {
		return ErrNoClassifier
	}
	if o.Root == "" {
		o.Root = "."
	}
	return nil
}
