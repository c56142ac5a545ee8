package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// TSVFormatter formats a run summary as tab-separated values.
// It produces a simple table with a header row followed by one row per
// operation record.
type TSVFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	w.WriteString("KIND\tSIZE\tSOURCE\tDEST\n")

	for _, op := range s.Operations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			op.Kind, types.FormatSize(op.Bytes), op.Source, opNote(op))
	}

	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats a run summary as comma-separated values with
// proper quoting. It uses encoding/csv for RFC 4180 compliant output.
type CSVFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"KIND", "SIZE", "SOURCE", "DEST"}); err != nil {
		return err
	}

	for _, op := range s.Operations {
		row := []string{string(op.Kind), types.FormatSize(op.Bytes), op.Source, opNote(op)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats a run summary as a GitHub-flavored Markdown
// table with header, separator, and one data row per operation record.
type MarkdownFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	w.WriteString("| KIND | SIZE | SOURCE | DEST |\n")
	w.WriteString("|------|------|--------|------|\n")

	for _, op := range s.Operations {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapeMarkdownPipe(string(op.Kind)),
			escapeMarkdownPipe(types.FormatSize(op.Bytes)),
			escapeMarkdownPipe(op.Source),
			escapeMarkdownPipe(opNote(op)))
	}

	return nil
}

// escapeMarkdownPipe escapes pipe characters in a string for Markdown tables.
func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
