// Package archive expands archives found in a tree, in place.
// Extraction is repeated until a pass discovers no archives, so nested
// archives unpack fully. A pass bound stops pathological inputs such as
// self-referential archives from looping forever.
package archive

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/haldane/mediasort/pkg/mediasort/logging"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// DefaultMaxPasses bounds expansion passes when Options leaves it unset.
const DefaultMaxPasses = 10

// Options configures an Expander.
type Options struct {
	// Extensions lists filename extensions treated as archives.
	// Normalized to lowercase with a leading dot.
	Extensions []string

	// MaxPasses bounds repeated expansion passes. Values < 1 use
	// DefaultMaxPasses.
	MaxPasses int

	// SkipDirs contains absolute paths whose subtrees are never
	// expanded, e.g. the backup root.
	SkipDirs []string
}

// Result aggregates what an expansion run did.
type Result struct {
	// Extracted is the number of archives successfully expanded.
	Extracted int

	// ExtractedFiles lists every file written by extraction. Callers
	// use it to tell archive contents from original tree files.
	ExtractedFiles []string

	// Operations holds one record per archive touched: extract records
	// for successes, error records for failures and pass-limit leftovers.
	Operations []types.OperationRecord
}

// Expander expands archives under a root directory.
type Expander struct {
	exts      map[string]struct{}
	maxPasses int
	skipDirs  []string
	log       *logging.Logger
}

// New creates an Expander with the given options.
func New(opts Options) *Expander {
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	maxPasses := opts.MaxPasses
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}

	return &Expander{
		exts:      exts,
		maxPasses: maxPasses,
		skipDirs:  opts.SkipDirs,
		log:       logging.Get("archive"),
	}
}

// Expand repeatedly discovers and extracts archives under root until a
// pass finds none. Each archive extracts into its own parent directory
// and is deleted on success. Failures are recorded and the archive is
// left in place; they never stop the run. On cancellation the partial
// result is returned together with the context error.
func (e *Expander) Expand(ctx context.Context, root string) (*Result, error) {
	result := &Result{}

	// Archives that already failed are not retried on later passes;
	// each produces exactly one error record.
	failed := make(map[string]bool)

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		archives, err := e.discover(root)
		if err != nil {
			return result, err
		}
		archives = slices.DeleteFunc(archives, func(p string) bool { return failed[p] })
		if len(archives) == 0 {
			return result, nil
		}

		if pass > e.maxPasses {
			// Circuit breaker: likely a self-referential archive.
			for _, path := range archives {
				e.log.Warn("expansion pass limit reached", "archive", path, "passes", e.maxPasses)
				result.Operations = append(result.Operations, types.OperationRecord{
					Kind:      types.OpError,
					Source:    path,
					Timestamp: time.Now().UTC(),
					Error:     fmt.Sprintf("archive still present after %d expansion passes", e.maxPasses),
				})
			}
			return result, nil
		}

		for _, path := range archives {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			e.expandOne(path, result, failed)
		}
	}
}

// expandOne extracts a single archive and appends its record to result.
func (e *Expander) expandOne(path string, result *Result, failed map[string]bool) {
	destDir := filepath.Dir(path)

	files, bytes, err := e.extract(path, destDir)
	if err != nil {
		e.log.Warn("archive extraction failed", "archive", path, "error", err)
		failed[path] = true
		result.Operations = append(result.Operations, types.OperationRecord{
			Kind:      types.OpError,
			Source:    path,
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		})
		return
	}

	if err := os.Remove(path); err != nil {
		// Extracted but not deleted: record the failure and make sure
		// the next pass does not extract it a second time.
		e.log.Warn("removing archive failed", "archive", path, "error", err)
		failed[path] = true
		result.Operations = append(result.Operations, types.OperationRecord{
			Kind:      types.OpError,
			Source:    path,
			Timestamp: time.Now().UTC(),
			Error:     fmt.Sprintf("extracted but could not remove archive: %v", err),
		})
		return
	}

	e.log.Info("archive expanded", "archive", path, "files", len(files), "bytes", bytes)
	result.Extracted++
	result.ExtractedFiles = append(result.ExtractedFiles, files...)
	result.Operations = append(result.Operations, types.OperationRecord{
		Kind:      types.OpExtract,
		Source:    path,
		Dest:      destDir,
		Timestamp: time.Now().UTC(),
		Bytes:     bytes,
	})
}

// extract dispatches on the archive's extension.
// Extensions configured without a matching format fail here and end up
// as error records rather than being silently skipped.
func (e *Expander) extract(path, destDir string) ([]string, int64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return extractZip(path, destDir)
	default:
		return nil, 0, fmt.Errorf("unsupported archive format %q", filepath.Ext(path))
	}
}

// discover walks the tree and returns all archive paths sorted for
// deterministic extraction order. Walk errors on individual entries are
// ignored here; the scan phase reports them.
func (e *Expander) discover(root string) ([]string, error) {
	var (
		mu       sync.Mutex
		archives []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if e.isSkippedDir(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := e.exts[strings.ToLower(filepath.Ext(path))]; ok {
			mu.Lock()
			archives = append(archives, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(archives, func(a, b string) int { return cmp.Compare(a, b) })
	return archives, nil
}

// isSkippedDir checks if a path is or lies under a skipped subtree.
func (e *Expander) isSkippedDir(path string) bool {
	for _, skip := range e.skipDirs {
		if skip == "" {
			continue
		}
		if path == skip || strings.HasPrefix(path, skip+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
