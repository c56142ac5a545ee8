package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// sampleSummary builds a run summary with one record of each kind.
// Records go through Append so the counters stay consistent.
func sampleSummary() *types.RunSummary {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s := &types.RunSummary{
		RunID:      "run-2026-03-14T09-30-00-1b9d6bcd",
		Root:       "/data",
		BackupRoot: "/data/NonMedia",
		Scopes:     []types.PersonScope{{Name: "alice", Root: "/data/alice"}},
		Mode:       types.ModePreserve,
		Status:     types.StatusCompleted,
		Scanned:    3,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Elapsed:    3 * time.Second,
	}
	s.Append(types.OperationRecord{
		Kind:      types.OpExtract,
		Source:    "/data/alice/bundle.zip",
		Dest:      "/data/alice",
		Timestamp: started.Add(time.Second),
		Bytes:     4096,
	})
	s.Append(types.OperationRecord{
		Kind:        types.OpMove,
		Source:      "/data/alice/doc.txt",
		Dest:        "/data/NonMedia/alice/doc.txt",
		Timestamp:   started.Add(2 * time.Second),
		Bytes:       1024,
		FromArchive: true,
	})
	s.Append(types.OperationRecord{
		Kind:      types.OpSkip,
		Source:    "/data/alice/movie.mp4",
		Reason:    "media stays in place in preserve mode",
		Timestamp: started.Add(2 * time.Second),
		Bytes:     1073741824,
	})
	s.Append(types.OperationRecord{
		Kind:      types.OpError,
		Source:    "/data/alice/bad.zip",
		Error:     "zip: not a valid zip file",
		Timestamp: started.Add(2 * time.Second),
		Bytes:     512,
	})
	return s
}

// emptySummary builds a run summary with no operations.
func emptySummary() *types.RunSummary {
	return &types.RunSummary{
		RunID:      "run-2026-03-14T09-30-00-00000000",
		Root:       "/data",
		BackupRoot: "/data/NonMedia",
		Scopes:     []types.PersonScope{{Name: "bob", Root: "/data/bob"}},
		Mode:       types.ModeFlatten,
		Status:     types.StatusCompleted,
	}
}

// mockFormatter is a simple formatter for testing the registry.
type mockFormatter struct {
	formatCalled bool
}

func (m *mockFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	m.formatCalled = true
	w.WriteString("mock output")
	return nil
}

func TestFormatterInterface(t *testing.T) {
	var f Formatter = &mockFormatter{}
	var buf bytes.Buffer

	err := f.Format(&buf, emptySummary())
	require.NoError(t, err)
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	mockFactory := func() Formatter {
		return &mockFormatter{}
	}
	reg.Register("mock", mockFactory)

	formatter, err := reg.Get("mock")
	require.NoError(t, err)
	assert.NotNil(t, formatter)

	var buf bytes.Buffer
	err = formatter.Format(&buf, emptySummary())
	require.NoError(t, err)
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestRegistry_Available_Sorted(t *testing.T) {
	reg := NewRegistry()

	mockFactory := func() Formatter {
		return &mockFormatter{}
	}

	// Register in non-alphabetical order
	reg.Register("zeta", mockFactory)
	reg.Register("alpha", mockFactory)
	reg.Register("beta", mockFactory)

	assert.Equal(t, []string{"alpha", "beta", "zeta"}, reg.Available())
}

func TestDefaultRegistry_BuiltinFormatters(t *testing.T) {
	available := Available()

	for _, name := range []string{
		"pretty", "plain", "json", "jsonl", "yaml",
		"tsv", "csv", "markdown", "paths", "null", "template",
	} {
		assert.Contains(t, available, name)
	}
}

func TestOpNote(t *testing.T) {
	tests := []struct {
		name string
		op   types.OperationRecord
		want string
	}{
		{
			name: "move uses dest",
			op:   types.OperationRecord{Kind: types.OpMove, Dest: "/backup/doc.txt"},
			want: "/backup/doc.txt",
		},
		{
			name: "extract uses dest",
			op:   types.OperationRecord{Kind: types.OpExtract, Dest: "/data"},
			want: "/data",
		},
		{
			name: "skip uses reason",
			op:   types.OperationRecord{Kind: types.OpSkip, Reason: "media stays"},
			want: "media stays",
		},
		{
			name: "error uses message",
			op:   types.OperationRecord{Kind: types.OpError, Error: "permission denied"},
			want: "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opNote(tt.op))
		})
	}
}
