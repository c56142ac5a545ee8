package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/runner"
	"github.com/haldane/mediasort/pkg/mediasort/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// previewRows caps the number of planned moves shown before the prompt.
const previewRows = 15

// newConfirmDecider returns a Decider that renders the preview produced
// by the dry-run pass and asks for confirmation. Anything but y or yes
// declines; declining keeps the preview as the run's result.
func newConfirmDecider(in io.Reader, out io.Writer) runner.Decider {
	return func(preview types.RunSummary) bool {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderPreviewTable(preview, previewRows))
		fmt.Fprintf(out, "\n%d files scanned: %d to move (%s), %d staying in place, %d errors.\n",
			preview.Scanned, preview.Moved, preview.HumanBytes(), preview.Skipped, preview.Errored)
		fmt.Fprint(out, "Apply these changes? [y/N]: ")

		reader := bufio.NewReader(in)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			fmt.Fprintln(out)
			return false
		}

		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

// renderPreviewTable renders the planned moves as a table, capped at
// limit rows. Paths are shown relative to the roots they live under.
func renderPreviewTable(preview types.RunSummary, limit int) string {
	var moves []types.OperationRecord
	for _, op := range preview.Operations {
		if op.Kind == types.OpMove {
			moves = append(moves, op)
		}
	}
	if len(moves) == 0 {
		return "No files need to move."
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "SIZE", "SOURCE", "DEST"})

	shown := len(moves)
	if limit > 0 && shown > limit {
		shown = limit
	}
	// Both columns render relative to the source root; with the default
	// backup root that shows destinations as NonMedia/<relpath>.
	for i := 0; i < shown; i++ {
		op := moves[i]
		tw.AppendRow(table.Row{
			i + 1,
			types.FormatSize(op.Bytes),
			relativeTo(preview.Root, op.Source),
			relativeTo(preview.Root, op.Dest),
		})
	}
	if len(moves) > shown {
		tw.AppendFooter(table.Row{"", "", fmt.Sprintf("... and %d more", len(moves)-shown), ""})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// relativeTo renders path relative to root when it lives under it.
// Paths outside the root stay absolute.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
