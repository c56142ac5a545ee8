package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr bool
	}{
		{name: "preserve", input: "preserve", want: ModePreserve, wantErr: false},
		{name: "flatten", input: "flatten", want: ModeFlatten, wantErr: false},
		{name: "uppercase", input: "PRESERVE", want: ModePreserve, wantErr: false},
		{name: "mixed case", input: "Flatten", want: ModeFlatten, wantErr: false},
		{name: "surrounding whitespace", input: "  preserve  ", want: ModePreserve, wantErr: false},

		{name: "empty string", input: "", wantErr: true},
		{name: "unknown mode", input: "shuffle", wantErr: true},
		{name: "partial match", input: "flat", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Errorf("ParseMode(%q) error = %v, want ErrInvalidMode", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024, wantErr: false},
		{name: "zero", input: "0", want: 0, wantErr: false},
		{name: "bytes suffix", input: "512B", want: 512, wantErr: false},
		{name: "kibibytes", input: "100K", want: 100 * KiB, wantErr: false},
		{name: "mebibytes lowercase", input: "50m", want: 50 * MiB, wantErr: false},
		{name: "mebibytes full suffix", input: "10MB", want: 10 * MiB, wantErr: false},
		{name: "gibibytes iec", input: "2GiB", want: 2 * GiB, wantErr: false},
		{name: "tebibytes", input: "1T", want: TiB, wantErr: false},
		{name: "decimal truncated", input: "1.5G", want: 1610612736, wantErr: false},
		{name: "surrounding whitespace", input: "  100M  ", want: 100 * MiB, wantErr: false},

		{name: "empty string", input: "", wantErr: true},
		{name: "unknown suffix", input: "100X", wantErr: true},
		{name: "negative", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "suffix only", input: "M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 512, want: "512 B"},
		{name: "kibibytes", bytes: KiB, want: "1.0 KiB"},
		{name: "mebibytes", bytes: 5 * MiB, want: "5.0 MiB"},
		{name: "gibibytes", bytes: 2 * GiB, want: "2.0 GiB"},
		{name: "fractional", bytes: 1536 * KiB, want: "1.5 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFileRecordIsMedia(t *testing.T) {
	media := FileRecord{Path: "/src/clip.mp4", Class: ClassMedia}
	if !media.IsMedia() {
		t.Error("IsMedia() = false for media record, want true")
	}

	other := FileRecord{Path: "/src/notes.txt", Class: ClassNonMedia}
	if other.IsMedia() {
		t.Error("IsMedia() = true for non-media record, want false")
	}
}

func TestRunSummaryAppend(t *testing.T) {
	now := time.Now().UTC()
	var s RunSummary

	s.Append(OperationRecord{Kind: OpExtract, Source: "/src/a.zip", Timestamp: now})
	s.Append(OperationRecord{Kind: OpMove, Source: "/src/a.txt", Dest: "/bak/a.txt", Bytes: 100, Timestamp: now})
	s.Append(OperationRecord{Kind: OpMove, Source: "/src/b.txt", Dest: "/bak/b.txt", Bytes: 50, Timestamp: now})
	s.Append(OperationRecord{Kind: OpSkip, Source: "/src/c.mp4", Reason: "media left in place", Timestamp: now})
	s.Append(OperationRecord{Kind: OpError, Source: "/src/bad.zip", Error: "zip: not a valid zip file", Timestamp: now})

	if s.Extracted != 1 {
		t.Errorf("Extracted = %d, want 1", s.Extracted)
	}
	if s.Moved != 2 {
		t.Errorf("Moved = %d, want 2", s.Moved)
	}
	if s.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", s.Skipped)
	}
	if s.Errored != 1 {
		t.Errorf("Errored = %d, want 1", s.Errored)
	}
	if s.BytesMoved != 150 {
		t.Errorf("BytesMoved = %d, want 150", s.BytesMoved)
	}
	if len(s.Operations) != 5 {
		t.Errorf("len(Operations) = %d, want 5", len(s.Operations))
	}
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	if !strings.HasPrefix(id, "run-") {
		t.Errorf("NewRunID() = %q, want run- prefix", id)
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := NewRunID()
		if seen[id] {
			t.Fatalf("duplicate run ID generated: %s", id)
		}
		seen[id] = true
	}
}
