package output

import (
	"bytes"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// PathsFormatter writes the destination path of every move record, one
// per line. It produces a simple list suitable for piping to other
// tools; skips, extracts, and errors are omitted.
type PathsFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	for _, op := range s.Operations {
		if op.Kind != types.OpMove {
			continue
		}
		w.WriteString(op.Dest)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)

// NullFormatter writes move destinations separated by null bytes (0x00),
// suitable for use with xargs -0 or other tools that support
// null-delimited input. This format safely handles paths containing
// spaces, newlines, or other special characters.
type NullFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	for _, op := range s.Operations {
		if op.Kind != types.OpMove {
			continue
		}
		w.WriteString(op.Dest)
		w.WriteByte(0)
	}
	return nil
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

// Ensure NullFormatter implements Formatter.
var _ Formatter = (*NullFormatter)(nil)
