package runner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// cleanupEmptyDirs removes directories left empty under the source
// root, deepest first, repeating until a pass removes nothing. The
// source root itself and the backup root subtree are never touched,
// and in flatten mode the person directories stay even when emptied.
// os.Remove refuses non-empty directories, so a failed removal just
// means the directory stays; only cancellation stops cleanup early.
func (r *Runner) cleanupEmptyDirs(ctx context.Context, scopes []types.PersonScope) (int64, error) {
	keep := make(map[string]bool, len(scopes))
	if r.opts.Mode == types.ModeFlatten {
		for _, s := range scopes {
			keep[s.Root] = true
		}
	}

	var removed int64
	for {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		dirs := r.collectDirs(keep)
		if len(dirs) == 0 {
			return removed, nil
		}

		var pass int64
		for _, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			if err := os.Remove(dir); err == nil {
				r.log.Debug("removed empty directory", "dir", dir)
				pass++
			}
		}
		removed += pass
		if pass == 0 {
			return removed, nil
		}
	}
}

// collectDirs walks the source tree and returns candidate directories
// sorted deepest first, so children empty out their parents within a
// single pass. Directories in keep are walked but never listed. Walk
// errors leave the affected subtree alone.
func (r *Runner) collectDirs(keep map[string]bool) []string {
	var (
		mu   sync.Mutex
		dirs []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, r.opts.SourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path == r.opts.SourceRoot {
			return nil
		}
		if path == r.opts.BackupRoot {
			return fastwalk.SkipDir
		}
		if keep[path] {
			return nil
		}
		mu.Lock()
		dirs = append(dirs, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		r.log.Debug("cleanup walk failed", "error", err)
	}

	sep := string(filepath.Separator)
	slices.SortFunc(dirs, func(a, b string) int {
		if d := strings.Count(b, sep) - strings.Count(a, sep); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return dirs
}
