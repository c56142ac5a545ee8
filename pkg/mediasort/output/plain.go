package output

import (
	"bytes"
	"text/tabwriter"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// PlainFormatter formats a run summary as a simple aligned table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("KIND\tSIZE\tSOURCE\tDEST\n")); err != nil {
		return err
	}

	for _, op := range s.Operations {
		row := string(op.Kind) + "\t" + types.FormatSize(op.Bytes) + "\t" +
			op.Source + "\t" + opNote(op) + "\n"
		if _, err := tw.Write([]byte(row)); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
