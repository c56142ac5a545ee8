// Package plan decides destination paths for classified files.
//
// Two layout modes are supported. Preserve keeps media in place and
// mirrors each non-media file under the backup root using its path
// relative to the source root. Flatten moves media up to the root of
// its enclosing person directory and mirrors non-media under the
// backup root, where the leading path segment is the person name.
//
// Destinations never overwrite anything. The planner tracks every path
// it hands out within a run and probes the filesystem, shifting to
// name_N variants until a free path is found. This holds in dry-run
// too, where nothing exists on disk yet and the claimed set alone
// keeps destinations distinct.
package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// Skip reasons attached to decisions that leave a file in place.
const (
	// ReasonMediaInPlace marks media kept where it is under preserve mode.
	ReasonMediaInPlace = "media stays in place in preserve mode"

	// ReasonAtDestination marks a file already at its planned destination.
	ReasonAtDestination = "already at planned destination"

	// ReasonNoScope marks media that flatten mode has nowhere to send:
	// the file sits at the top of the source root or under a directory
	// that appeared after the scope set was captured.
	ReasonNoScope = "media outside person directories stays in place"
)

// ErrOutsideScope indicates a file path outside the source root.
var ErrOutsideScope = errors.New("path outside source root")

// maxSuffixAttempts bounds the search for a non-colliding destination.
const maxSuffixAttempts = 10000

// Options configures a Planner.
type Options struct {
	// Mode selects the destination layout strategy.
	Mode types.Mode

	// SourceRoot is the directory being sorted.
	SourceRoot string

	// BackupRoot receives non-media files.
	BackupRoot string

	// Scopes is the person-directory set captured at run start. Only
	// flatten mode consults it; an empty set leaves all media in place.
	Scopes []types.PersonScope
}

// Decision is the planner's verdict for one file: either a destination
// to move it to, or a reason to leave it where it is.
type Decision struct {
	// Dest is the planned destination, or empty when the file stays put.
	Dest string

	// Reason explains an empty Dest.
	Reason string
}

// Move reports whether the decision relocates the file.
func (d Decision) Move() bool { return d.Dest != "" }

// Planner computes collision-free destinations for one run.
// It is not safe for concurrent use.
type Planner struct {
	mode       types.Mode
	sourceRoot string
	backupRoot string
	scopes     map[string]types.PersonScope
	claimed    map[string]struct{}
}

// New creates a Planner for a single run.
func New(opts Options) (*Planner, error) {
	if opts.SourceRoot == "" {
		return nil, errors.New("source root is required")
	}
	if opts.BackupRoot == "" {
		return nil, errors.New("backup root is required")
	}
	switch opts.Mode {
	case types.ModePreserve, types.ModeFlatten:
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidMode, opts.Mode)
	}

	scopes := make(map[string]types.PersonScope, len(opts.Scopes))
	for _, s := range opts.Scopes {
		scopes[s.Name] = s
	}

	return &Planner{
		mode:       opts.Mode,
		sourceRoot: filepath.Clean(opts.SourceRoot),
		backupRoot: filepath.Clean(opts.BackupRoot),
		scopes:     scopes,
		claimed:    make(map[string]struct{}),
	}, nil
}

// Plan decides where a classified file should go. It returns an error
// when the file lies outside the source root or the destination cannot
// be probed; such files become error records upstream.
func (p *Planner) Plan(rec types.FileRecord) (Decision, error) {
	rel, err := p.relTo(rec.Path)
	if err != nil {
		return Decision{}, err
	}

	var desired string
	switch {
	case p.mode == types.ModePreserve && rec.IsMedia():
		return Decision{Reason: ReasonMediaInPlace}, nil
	case p.mode == types.ModeFlatten && rec.IsMedia():
		scope, ok := p.scopeFor(rel)
		if !ok {
			return Decision{Reason: ReasonNoScope}, nil
		}
		desired = filepath.Join(scope.Root, filepath.Base(rec.Path))
	default:
		// Non-media mirrors its relative path under the backup root in
		// both modes; for scoped files the leading segment is the
		// person name, which is the flatten grouping.
		desired = filepath.Join(p.backupRoot, rel)
	}

	if desired == rec.Path {
		return Decision{Reason: ReasonAtDestination}, nil
	}

	dest, err := p.allocate(desired)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Dest: dest}, nil
}

// relTo resolves a path relative to the source root, rejecting paths
// that escape it.
func (p *Planner) relTo(path string) (string, error) {
	rel, err := filepath.Rel(p.sourceRoot, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideScope, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideScope, path)
	}
	return rel, nil
}

// scopeFor resolves a root-relative path to its enclosing person
// directory. Files directly at the source root have none.
func (p *Planner) scopeFor(rel string) (types.PersonScope, bool) {
	top, _, _ := strings.Cut(rel, string(filepath.Separator))
	scope, ok := p.scopes[top]
	return scope, ok
}

// allocate returns the first free variant of desired, consulting both
// the claimed set and the filesystem. The suffix goes before the
// extension, so report.txt shifts to report_1.txt.
func (p *Planner) allocate(desired string) (string, error) {
	ext := filepath.Ext(desired)
	stem := strings.TrimSuffix(desired, ext)

	for i := 0; i <= maxSuffixAttempts; i++ {
		candidate := desired
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		if _, taken := p.claimed[candidate]; taken {
			continue
		}
		if _, err := os.Lstat(candidate); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("probe destination %q: %w", candidate, err)
		}
		p.claimed[candidate] = struct{}{}
		return candidate, nil
	}

	return "", fmt.Errorf("no free destination for %q after %d attempts", desired, maxSuffixAttempts)
}
