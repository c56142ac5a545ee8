package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/haldane/mediasort/pkg/mediasort/runner"
	"github.com/haldane/mediasort/pkg/mediasort/scanner"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// progressObserver renders an inline progress display during the live
// pass. The preview pass stays silent; the display starts when the run
// enters the executing phase and stops on the first transition out of
// it. All methods are safe for concurrent use.
type progressObserver struct {
	cancel context.CancelFunc

	mu   sync.Mutex
	prog *tea.Program
	done chan struct{}
}

// newProgressObserver creates an observer wired to the run's cancel
// function so Ctrl+C inside the display stops the run between files.
func newProgressObserver(cancel context.CancelFunc) *progressObserver {
	return &progressObserver{cancel: cancel}
}

// PhaseChanged starts the display when execution begins and tears it
// down when the run leaves the executing phase.
func (o *progressObserver) PhaseChanged(phase runner.Phase) {
	switch phase {
	case runner.PhaseExecuting:
		o.start()
	case runner.PhaseCleanup, runner.PhaseCompleted, runner.PhaseInterrupted:
		o.stop()
	}
}

// ScanProgress relays live-pass scan counts to the display.
func (o *progressObserver) ScanProgress(p scanner.Progress) {
	o.send(scanMsg(p))
}

// FileProcessed relays per-file relocation progress to the display.
func (o *progressObserver) FileProcessed(op types.OperationRecord, done, total int64) {
	o.send(fileMsg{op: op, done: done, total: total})
}

func (o *progressObserver) start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.prog != nil {
		return
	}

	// Render on stderr so stdout stays clean for the summary.
	prog := tea.NewProgram(newProgressModel(o.cancel), tea.WithOutput(os.Stderr))
	done := make(chan struct{})
	go func() {
		_, _ = prog.Run()
		close(done)
	}()

	o.prog = prog
	o.done = done
}

// stop quits the display and waits for the terminal to be restored so
// the summary never interleaves with progress frames.
func (o *progressObserver) stop() {
	o.mu.Lock()
	prog, done := o.prog, o.done
	o.prog, o.done = nil, nil
	o.mu.Unlock()

	if prog == nil {
		return
	}
	prog.Quit()
	<-done
}

func (o *progressObserver) send(msg tea.Msg) {
	o.mu.Lock()
	prog := o.prog
	o.mu.Unlock()
	if prog != nil {
		prog.Send(msg)
	}
}

// scanMsg carries scanner progress during the live rescan.
type scanMsg scanner.Progress

// fileMsg carries one relocation result and the position in the pass.
type fileMsg struct {
	op          types.OperationRecord
	done, total int64
}

var (
	progressSpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	progressPathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	progressWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// progressModel is the Bubble Tea model behind the live-pass display.
// The rescan shows running counts; once relocation starts the display
// switches to a progress bar with the current file underneath.
type progressModel struct {
	cancel context.CancelFunc

	spin spinner.Model
	bar  progress.Model

	scan     scanner.Progress
	scanning bool

	done     int64
	total    int64
	moved    int64
	bytes    int64
	lastPath string

	stopping bool
	width    int
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = progressSpinnerStyle

	b := progress.New(progress.WithDefaultGradient())
	b.Width = 40

	return progressModel{
		cancel:   cancel,
		spin:     s,
		bar:      b,
		scanning: true,
		width:    80,
	}
}

// Init starts the spinner.
func (m progressModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles messages.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
		if barWidth > 60 {
			barWidth = 60
		}
		m.bar.Width = barWidth
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The runner stops between files; the display stays up
			// until the run reaches a terminal phase.
			m.stopping = true
			m.cancel()
		}
		return m, nil

	case scanMsg:
		m.scan = scanner.Progress(msg)
		return m, nil

	case fileMsg:
		m.scanning = false
		m.done = msg.done
		m.total = msg.total
		m.lastPath = msg.op.Source
		if msg.op.Kind == types.OpMove && !msg.op.Simulated {
			m.moved++
			m.bytes += msg.op.Bytes
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the display.
func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	if m.stopping {
		b.WriteString(progressWarnStyle.Render("  Stopping after the current file..."))
		b.WriteString("\n")
	}

	if m.scanning {
		fmt.Fprintf(&b, "  %s Scanning: %d files (%d media) in %d dirs\n",
			m.spin.View(), m.scan.FilesScanned, m.scan.MediaFiles, m.scan.DirsScanned)
		return b.String()
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	fmt.Fprintf(&b, "  %s %s %d/%d  moved %d (%s)\n",
		m.spin.View(), m.bar.ViewAs(percent), m.done, m.total, m.moved, types.FormatSize(m.bytes))
	fmt.Fprintf(&b, "  %s\n", progressPathStyle.Render(truncatePath(m.lastPath, m.width-4)))

	return b.String()
}

// truncatePath shortens a path for display, keeping the tail.
func truncatePath(path string, maxLen int) string {
	if maxLen < 10 {
		maxLen = 10
	}
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
