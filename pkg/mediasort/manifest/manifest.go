// Package manifest persists run summaries as JSON artifacts.
//
// Every run leaves exactly one artifact. Completed runs write
// <run-id>.json; interrupted runs flush their partial summary to the
// distinct <run-id>.interrupted.json so an aborted run is never
// mistaken for a finished one.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// interruptedSuffix marks artifacts flushed by an interrupted run.
const interruptedSuffix = ".interrupted.json"

// Manifest manages run summary artifacts on the filesystem.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest rooted at dir.
// The directory is not created until EnsureDir is called.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// EnsureDir creates the manifest directory if it does not exist.
func (m *Manifest) EnsureDir() error {
	return os.MkdirAll(m.dir, 0o755)
}

// WriteCompleted persists a completed run summary and returns the
// artifact path.
func (m *Manifest) WriteCompleted(summary *types.RunSummary) (string, error) {
	return m.write(summary, summary.RunID+".json")
}

// WriteInterrupted persists the partial summary of an interrupted run
// to a distinct artifact and returns its path.
func (m *Manifest) WriteInterrupted(summary *types.RunSummary) (string, error) {
	return m.write(summary, summary.RunID+interruptedSuffix)
}

// write marshals the summary and writes it atomically via a temp file.
func (m *Manifest) write(summary *types.RunSummary, filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if summary.RunID == "" {
		return "", errors.New("summary has no run ID")
	}

	path := filepath.Join(m.dir, filename)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	return path, nil
}

// List returns run summaries sorted by start time descending (newest
// first), including interrupted runs. A limit of 0 or less returns all
// entries.
func (m *Manifest) List(limit int) ([]types.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.RunSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	var summaries []types.RunSummary
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		summary, err := m.readArtifact(f.Name())
		if err != nil {
			// Skip files that can't be parsed
			continue
		}
		summaries = append(summaries, *summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	if summaries == nil {
		summaries = []types.RunSummary{}
	}

	return summaries, nil
}

// Get retrieves a run summary by its run ID.
func (m *Manifest) Get(id string) (*types.RunSummary, error) {
	if id == "" {
		return nil, errors.New("run ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	files, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		summary, err := m.readArtifact(f.Name())
		if err != nil {
			continue
		}
		if summary.RunID == id {
			return summary, nil
		}
	}

	return nil, fmt.Errorf("run not found: %s", id)
}

// readArtifact reads and parses one summary artifact.
func (m *Manifest) readArtifact(filename string) (*types.RunSummary, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var summary types.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &summary, nil
}

// Cleanup removes artifacts older than retentionDays.
func (m *Manifest) Cleanup(retentionDays int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read manifest directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.dir, f.Name())); err != nil {
				// Keep pruning the remaining artifacts
				continue
			}
		}
	}

	return nil
}

// IsInterruptedArtifact reports whether a manifest artifact path was
// written by an interrupted run.
func IsInterruptedArtifact(path string) bool {
	return strings.HasSuffix(path, interruptedSuffix)
}
