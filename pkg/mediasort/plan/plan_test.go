package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

func mediaRecord(path string) types.FileRecord {
	return types.FileRecord{Path: path, Class: types.ClassMedia}
}

func nonMediaRecord(path string) types.FileRecord {
	return types.FileRecord{Path: path, Class: types.ClassNonMedia}
}

func mustPlanner(t *testing.T, opts Options) *Planner {
	t.Helper()
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func singleScope(source, name string) []types.PersonScope {
	return []types.PersonScope{{Name: name, Root: filepath.Join(source, name)}}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing source root", Options{Mode: types.ModePreserve, BackupRoot: "/b"}},
		{"missing backup root", Options{Mode: types.ModePreserve, SourceRoot: "/s"}},
		{"invalid mode", Options{Mode: "shuffle", SourceRoot: "/s", BackupRoot: "/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestPlan_PreserveNonMediaMirrorsRelPath(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{Mode: types.ModePreserve, SourceRoot: source, BackupRoot: backup})

	d, err := p.Plan(nonMediaRecord(filepath.Join(source, "a", "b", "doc.txt")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := filepath.Join(backup, "a", "b", "doc.txt")
	if d.Dest != want {
		t.Errorf("Dest = %q, want %q", d.Dest, want)
	}
}

func TestPlan_PreserveMediaStaysInPlace(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{Mode: types.ModePreserve, SourceRoot: source, BackupRoot: backup})

	d, err := p.Plan(mediaRecord(filepath.Join(source, "clips", "video.mp4")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if d.Move() {
		t.Errorf("media should stay in place, got dest %q", d.Dest)
	}
	if d.Reason != ReasonMediaInPlace {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonMediaInPlace)
	}
}

func TestPlan_FlattenMediaToScopeRoot(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{
		Mode:       types.ModeFlatten,
		SourceRoot: source,
		BackupRoot: backup,
		Scopes:     singleScope(source, "alice"),
	})

	d, err := p.Plan(mediaRecord(filepath.Join(source, "alice", "sub", "deep", "clip.mp4")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := filepath.Join(source, "alice", "clip.mp4")
	if d.Dest != want {
		t.Errorf("Dest = %q, want %q", d.Dest, want)
	}
}

func TestPlan_FlattenMediaAlreadyAtScopeRoot(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{
		Mode:       types.ModeFlatten,
		SourceRoot: source,
		BackupRoot: backup,
		Scopes:     singleScope(source, "alice"),
	})

	d, err := p.Plan(mediaRecord(filepath.Join(source, "alice", "clip.mp4")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if d.Move() {
		t.Errorf("file already at scope root should stay, got dest %q", d.Dest)
	}
	if d.Reason != ReasonAtDestination {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonAtDestination)
	}
}

func TestPlan_FlattenMediaWithoutScope(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{
		Mode:       types.ModeFlatten,
		SourceRoot: source,
		BackupRoot: backup,
		Scopes:     singleScope(source, "alice"),
	})

	tests := []struct {
		name string
		path string
	}{
		{"top-level file", filepath.Join(source, "stray.mp4")},
		{"uncaptured directory", filepath.Join(source, "later", "clip.mp4")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := p.Plan(mediaRecord(tt.path))
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if d.Move() {
				t.Errorf("media outside scopes should stay, got dest %q", d.Dest)
			}
			if d.Reason != ReasonNoScope {
				t.Errorf("Reason = %q, want %q", d.Reason, ReasonNoScope)
			}
		})
	}
}

func TestPlan_FlattenNonMediaGroupedByScope(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{
		Mode:       types.ModeFlatten,
		SourceRoot: source,
		BackupRoot: backup,
		Scopes:     singleScope(source, "alice"),
	})

	d, err := p.Plan(nonMediaRecord(filepath.Join(source, "alice", "sub", "notes.txt")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := filepath.Join(backup, "alice", "sub", "notes.txt")
	if d.Dest != want {
		t.Errorf("Dest = %q, want %q", d.Dest, want)
	}
}

func TestPlan_CollisionWithExistingFile(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	occupied := filepath.Join(backup, "doc.txt")
	if err := os.WriteFile(occupied, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := mustPlanner(t, Options{Mode: types.ModePreserve, SourceRoot: source, BackupRoot: backup})

	d, err := p.Plan(nonMediaRecord(filepath.Join(source, "doc.txt")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := filepath.Join(backup, "doc_1.txt")
	if d.Dest != want {
		t.Errorf("Dest = %q, want %q", d.Dest, want)
	}
}

func TestPlan_CollisionWithClaimedDestination(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{
		Mode:       types.ModeFlatten,
		SourceRoot: source,
		BackupRoot: backup,
		Scopes:     singleScope(source, "alice"),
	})

	first, err := p.Plan(mediaRecord(filepath.Join(source, "alice", "a", "clip.mp4")))
	if err != nil {
		t.Fatalf("Plan(first) error = %v", err)
	}
	second, err := p.Plan(mediaRecord(filepath.Join(source, "alice", "b", "clip.mp4")))
	if err != nil {
		t.Fatalf("Plan(second) error = %v", err)
	}

	if first.Dest != filepath.Join(source, "alice", "clip.mp4") {
		t.Errorf("first Dest = %q", first.Dest)
	}
	if second.Dest != filepath.Join(source, "alice", "clip_1.mp4") {
		t.Errorf("second Dest = %q, want suffixed variant", second.Dest)
	}
	if first.Dest == second.Dest {
		t.Error("two files planned to the same destination")
	}
}

func TestPlan_SuffixBeforeExtension(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{
		Mode:       types.ModeFlatten,
		SourceRoot: source,
		BackupRoot: backup,
		Scopes:     singleScope(source, "alice"),
	})

	for i, dir := range []string{"a", "b", "c"} {
		d, err := p.Plan(mediaRecord(filepath.Join(source, "alice", dir, "report.mp4")))
		if err != nil {
			t.Fatalf("Plan(%d) error = %v", i, err)
		}
		base := filepath.Base(d.Dest)
		switch i {
		case 0:
			if base != "report.mp4" {
				t.Errorf("first base = %q", base)
			}
		case 1:
			if base != "report_1.mp4" {
				t.Errorf("second base = %q, want report_1.mp4", base)
			}
		case 2:
			if base != "report_2.mp4" {
				t.Errorf("third base = %q, want report_2.mp4", base)
			}
		}
	}
}

func TestPlan_NoExtension(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	if err := os.WriteFile(filepath.Join(backup, "Makefile"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	p := mustPlanner(t, Options{Mode: types.ModePreserve, SourceRoot: source, BackupRoot: backup})

	d, err := p.Plan(nonMediaRecord(filepath.Join(source, "Makefile")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if filepath.Base(d.Dest) != "Makefile_1" {
		t.Errorf("Dest base = %q, want Makefile_1", filepath.Base(d.Dest))
	}
}

func TestPlan_OutsideSourceRoot(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{Mode: types.ModePreserve, SourceRoot: source, BackupRoot: backup})

	_, err := p.Plan(nonMediaRecord(filepath.Join(t.TempDir(), "stray.txt")))
	if !errors.Is(err, ErrOutsideScope) {
		t.Errorf("Plan() error = %v, want ErrOutsideScope", err)
	}
}

func TestPlan_FlattenEmptyScopes(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()

	p := mustPlanner(t, Options{Mode: types.ModeFlatten, SourceRoot: source, BackupRoot: backup})

	d, err := p.Plan(mediaRecord(filepath.Join(source, "bob", "clip.mp4")))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if d.Move() {
		t.Errorf("media should stay when no scopes exist, got dest %q", d.Dest)
	}
	if d.Reason != ReasonNoScope {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonNoScope)
	}
}
