package scanner

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"

	"github.com/haldane/mediasort/pkg/mediasort/logging"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// Scanner performs parallel tree discovery using fastwalk.
// Each call to Scan re-derives ground truth from the filesystem; nothing
// is remembered between calls, so a scanner can be reused after the tree
// changed underneath it.
type Scanner struct {
	opts     Options
	excludes []glob.Glob

	// Atomic counters for thread-safe progress reporting.
	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	mediaFiles   atomic.Int64
	bytesScanned atomic.Int64

	// currentPath is the path currently being scanned (for progress).
	currentPath atomic.Value

	// errors collects per-path errors without stopping the scan.
	errors   []types.ScanError
	errorsMu sync.Mutex

	// records collects discovered files.
	records   []types.FileRecord
	recordsMu sync.Mutex

	// lastProgress throttles progress callbacks.
	lastProgress atomic.Int64

	// root is the resolved absolute path being scanned.
	root string

	log *logging.Logger
}

// New creates a new Scanner with the given options.
// Invalid exclude patterns are dropped; everything else is validated
// when Scan runs.
func New(opts Options) *Scanner {
	s := &Scanner{
		opts: opts,
		log:  logging.Get("scanner"),
	}
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			s.log.Warn("ignoring invalid exclude pattern", "pattern", pattern, "error", err)
			continue
		}
		s.excludes = append(s.excludes, g)
	}
	s.currentPath.Store("")
	return s
}

// Scan walks the tree and returns every regular file as a classified
// record. It blocks until the walk completes or ctx is cancelled; on
// cancellation it returns the records discovered so far.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root

	s.reset()
	s.currentPath.Store(root)
	s.reportProgressForce()

	if err := s.executeWalk(ctx); err != nil {
		return nil, err
	}

	s.reportProgressForce()

	// Sort for deterministic downstream planning and collision handling.
	s.recordsMu.Lock()
	records := s.records
	s.records = nil
	s.recordsMu.Unlock()
	slices.SortFunc(records, func(a, b types.FileRecord) int {
		return cmp.Compare(a.Path, b.Path)
	})

	return &Result{
		Records:      records,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		TotalSize:    s.bytesScanned.Load(),
		Errors:       s.errors,
	}, nil
}

// reset clears all per-scan state so the scanner can be reused.
func (s *Scanner) reset() {
	s.dirsScanned.Store(0)
	s.filesScanned.Store(0)
	s.mediaFiles.Store(0)
	s.bytesScanned.Store(0)
	s.lastProgress.Store(0)
	s.errors = nil
	s.recordsMu.Lock()
	s.records = make([]types.FileRecord, 0)
	s.recordsMu.Unlock()
}

// validateRoot resolves the root path to absolute and verifies it is a
// readable directory. A missing or non-directory root is fatal.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !rootInfo.IsDir() {
		return "", os.ErrInvalid
	}

	return root, nil
}

// executeWalk runs fastwalk from the root.
func (s *Scanner) executeWalk(ctx context.Context) error {
	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		<-walkCtx.Done()
		close(done)
	}()

	walkErr := fastwalk.Walk(&conf, s.root, s.walkCallback(done))
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return walkErr
	}
	return nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation.
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		// Handle errors gracefully - record and continue.
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if s.isSkippedDir(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if s.isExcluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			s.dirsScanned.Add(1)
			s.currentPath.Store(path)
			s.reportProgress()
			return nil
		}

		if d.Type().IsRegular() {
			s.processFile(path, d)
		}

		return nil
	}
}

// processFile stats, sniffs, and classifies a regular file.
func (s *Scanner) processFile(path string, d fs.DirEntry) {
	info, err := d.Info()
	if err != nil {
		s.addError(path, err)
		return
	}

	size := info.Size()
	s.filesScanned.Add(1)
	s.bytesScanned.Add(size)

	rec := types.FileRecord{
		Path:    path,
		Size:    size,
		ModTime: info.ModTime(),
		Ext:     strings.ToLower(filepath.Ext(path)),
	}

	// Sniff failures degrade to extension-only classification;
	// they are not operation errors.
	if s.opts.Sniffer != nil {
		mime, err := s.opts.Sniffer.Sniff(path)
		if err != nil {
			s.log.Debug("mime sniff failed", "path", path, "error", err)
		} else {
			rec.MIME = mime
		}
	}

	rec.Class = s.opts.Classifier.Classify(&rec)
	if rec.Class == types.ClassMedia {
		s.mediaFiles.Add(1)
	}

	s.recordsMu.Lock()
	s.records = append(s.records, rec)
	s.recordsMu.Unlock()

	if s.opts.OnRecord != nil {
		s.opts.OnRecord(rec)
	}

	s.reportProgress()
}

// addError adds an error to the error list thread-safely.
func (s *Scanner) addError(path string, err error) {
	s.errorsMu.Lock()
	s.errors = append(s.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	s.errorsMu.Unlock()
}

// reportProgress calls the progress callback if configured.
// Throttles calls to avoid excessive overhead.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	// Throttle progress updates to every 10ms.
	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return // Another goroutine updated it.
	}

	s.sendProgress()
}

// reportProgressForce calls the progress callback immediately, bypassing
// the throttle. Use for important state changes like scan start/end.
func (s *Scanner) reportProgressForce() {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.sendProgress()
}

// sendProgress sends the current progress to the callback.
func (s *Scanner) sendProgress() {
	currentPath, _ := s.currentPath.Load().(string)

	s.opts.OnProgress(Progress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		MediaFiles:   s.mediaFiles.Load(),
		BytesScanned: s.bytesScanned.Load(),
		CurrentPath:  currentPath,
	})
}

// isSkippedDir checks if a path is or lies under a skipped subtree.
func (s *Scanner) isSkippedDir(path string) bool {
	for _, skip := range s.opts.SkipDirs {
		if skip == "" {
			continue
		}
		if path == skip || strings.HasPrefix(path, skip+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string) bool {
	if len(s.excludes) == 0 {
		return false
	}
	base := filepath.Base(path)
	for _, g := range s.excludes {
		if g.Match(base) || g.Match(path) {
			return true
		}
	}
	return false
}
