package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// PrettyFormatter formats a run summary with colors and styling using
// lipgloss. It produces a visually appealing output suitable for
// terminal display.
type PrettyFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	w.WriteString(f.formatHeader(s))
	w.WriteString("\n")

	w.WriteString(f.formatTable(s))

	w.WriteString(f.formatFooter(s))

	if s.Errored > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatFailures(s))
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(s *types.RunSummary) string {
	var lines []string

	title := TitleStyle.Render("Run " + s.RunID)
	badge := f.formatStatus(s)
	lines = append(lines, title+"  "+badge)

	sourceLabel := LabelStyle.Render("Source:")
	sourceValue := ValueStyle.Render(s.Root)
	modeLabel := LabelStyle.Render("Mode:")
	modeValue := ValueStyle.Render(s.Mode.String())
	infoLine := fmt.Sprintf("%s %s  %s %s", sourceLabel, sourceValue, modeLabel, modeValue)
	if names := scopeNames(s.Scopes); names != nil {
		scopesLabel := LabelStyle.Render("Scopes:")
		scopesValue := ValueStyle.Render(strings.Join(names, ", "))
		infoLine += fmt.Sprintf("  %s %s", scopesLabel, scopesValue)
	}
	lines = append(lines, infoLine)

	backupLabel := LabelStyle.Render("Backup:")
	backupValue := ValueStyle.Render(s.BackupRoot)
	lines = append(lines, fmt.Sprintf("%s %s", backupLabel, backupValue))

	scannedLabel := LabelStyle.Render("Scanned:")
	scannedValue := ValueStyle.Render(fmt.Sprintf("%d files in %s",
		s.Scanned, formatDuration(s.Elapsed)))
	lines = append(lines, fmt.Sprintf("%s %s", scannedLabel, scannedValue))

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatStatus returns a styled badge for the run's end state.
func (f *PrettyFormatter) formatStatus(s *types.RunSummary) string {
	var badge string
	switch s.Status {
	case types.StatusInterrupted:
		badge = WarningStyle.Bold(true).Render("interrupted")
	default:
		badge = SuccessStyle.Render("completed")
	}
	if s.DryRun {
		badge += "  " + MutedStyle.Render("(dry-run preview)")
	}
	return badge
}

// formatTable builds the operation table with KIND, SIZE, and PATH columns.
func (f *PrettyFormatter) formatTable(s *types.RunSummary) string {
	if len(s.Operations) == 0 {
		return MutedStyle.Render("  No operations recorded\n")
	}

	var sb strings.Builder

	kindHeader := TableHeaderStyle.Render("KIND")
	sizeHeader := TableHeaderStyle.Render("SIZE")
	pathHeader := TableHeaderStyle.Render("PATH")
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", kindHeader, sizeHeader, pathHeader))

	// Calculate max size width for alignment
	maxSizeWidth := 8
	for _, op := range s.Operations {
		if w := len(types.FormatSize(op.Bytes)); w > maxSizeWidth {
			maxSizeWidth = w
		}
	}

	for _, op := range s.Operations {
		kindStr := f.styleKind(op.Kind)
		sizeStr := SizeStyle.Render(padLeft(types.FormatSize(op.Bytes), maxSizeWidth))
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", kindStr, sizeStr, f.stylePath(op)))
	}

	return sb.String()
}

// styleKind renders the operation kind padded to a fixed column width.
func (f *PrettyFormatter) styleKind(kind types.OpKind) string {
	padded := padRight(string(kind), 7)
	switch kind {
	case types.OpError:
		return ErrorStyle.Render(padded)
	case types.OpSkip:
		return MutedStyle.Render(padded)
	default:
		return ValueStyle.Render(padded)
	}
}

// stylePath renders the path column: source plus destination for moves
// and extracts, the skip reason, or the error message.
func (f *PrettyFormatter) stylePath(op types.OperationRecord) string {
	path := PathStyle.Render(op.Source)
	switch op.Kind {
	case types.OpExtract, types.OpMove:
		return path + MutedStyle.Render(" -> "+op.Dest)
	case types.OpSkip:
		return path + MutedStyle.Render(" ("+op.Reason+")")
	case types.OpError:
		return path + ErrorStyle.Render(" ("+op.Error+")")
	default:
		return path
	}
}

// formatFooter builds the footer box with run totals.
func (f *PrettyFormatter) formatFooter(s *types.RunSummary) string {
	var parts []string

	movedLabel := LabelStyle.Render("Moved:")
	movedValue := ValueStyle.Render(fmt.Sprintf("%d", s.Moved))
	parts = append(parts, fmt.Sprintf("%s %s", movedLabel, movedValue))

	keptLabel := LabelStyle.Render("Kept:")
	keptValue := ValueStyle.Render(fmt.Sprintf("%d", s.Skipped))
	parts = append(parts, fmt.Sprintf("%s %s", keptLabel, keptValue))

	if s.Extracted > 0 {
		extractedLabel := LabelStyle.Render("Extracted:")
		extractedValue := ValueStyle.Render(fmt.Sprintf("%d", s.Extracted))
		parts = append(parts, fmt.Sprintf("%s %s", extractedLabel, extractedValue))
	}

	if s.Errored > 0 {
		erroredLabel := LabelStyle.Render("Errors:")
		erroredValue := ErrorStyle.Render(fmt.Sprintf("%d", s.Errored))
		parts = append(parts, fmt.Sprintf("%s %s", erroredLabel, erroredValue))
	}

	totalLabel := LabelStyle.Render("Relocated:")
	totalValue := SizeStyle.Render(s.HumanBytes())
	parts = append(parts, fmt.Sprintf("%s %s", totalLabel, totalValue))

	if s.CleanedDirs > 0 {
		cleanedLabel := LabelStyle.Render("Cleaned:")
		cleanedValue := ValueStyle.Render(fmt.Sprintf("%d dirs", s.CleanedDirs))
		parts = append(parts, fmt.Sprintf("%s %s", cleanedLabel, cleanedValue))
	}

	hint := MutedStyle.Render("Use -o plain for unformatted output")
	parts = append(parts, hint)

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatFailures builds the per-file failure block.
func (f *PrettyFormatter) formatFailures(s *types.RunSummary) string {
	var lines []string
	lines = append(lines, ErrorStyle.Bold(true).Render("Failures:"))

	for _, op := range s.Operations {
		if op.Kind != types.OpError {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s",
			PathStyle.Render(op.Source), ErrorStyle.Render(op.Error)))
	}

	return ErrorBox.Render(strings.Join(lines, "\n"))
}

// padLeft pads a string with spaces on the left to the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// padRight pads a string with spaces on the right to the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
