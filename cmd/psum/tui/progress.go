package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/psum/pkg/psum/engine"
)

// Progress drives a live status display on stderr while the engine runs.
// Events arrive from worker goroutines through the bubbletea message queue,
// so no additional locking is needed.
type Progress struct {
	prog *tea.Program
	done chan struct{}
}

// fileMsg reports one completed file.
type fileMsg struct {
	path   string
	done   int64
	total  int64
	failed bool
}

// finishMsg ends the display.
type finishMsg struct {
	err error
}

// NewProgress creates a progress display with the given title verb
// (e.g. "Fingerprinting", "Verifying").
func NewProgress(title string) *Progress {
	m := newProgressModel(title)
	// Input stays untouched so Ctrl+C reaches the process as SIGINT and
	// flows through the command's cancellation path.
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	return &Progress{prog: p, done: make(chan struct{})}
}

// Start launches the display. It must be paired with Finish.
func (p *Progress) Start() {
	go func() {
		_, _ = p.prog.Run()
		close(p.done)
	}()
}

// OnFile feeds one engine event into the display. Safe to call from
// multiple goroutines.
func (p *Progress) OnFile(e engine.Event) {
	failed := e.Outcome != nil && e.Outcome.Kind.Failure()
	p.prog.Send(fileMsg{path: e.Path, done: e.Done, total: e.Total, failed: failed})
}

// Finish stops the display and waits for the terminal to be restored.
func (p *Progress) Finish(err error) {
	p.prog.Send(finishMsg{err: err})
	<-p.done
}

// progressModel is the bubbletea model behind Progress.
type progressModel struct {
	title       string
	spinner     spinner.Model
	bar         progress.Model
	currentPath string
	done        int64
	total       int64
	failures    int64
	startTime   time.Time
	width       int
	finished    bool
	err         error
}

func newProgressModel(title string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return progressModel{
		title:     title,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
		width:     80,
	}
}

// Init initializes the progress model.
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the progress model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case fileMsg:
		m.currentPath = msg.path
		m.done = msg.done
		m.total = msg.total
		if msg.failed {
			m.failures++
		}
		return m, nil

	case finishMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress model.
func (m progressModel) View() string {
	var b strings.Builder

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	if m.finished {
		if m.err != nil {
			b.WriteString(errorTextStyle.Render(fmt.Sprintf("%s stopped: %v", m.title, m.err)))
		} else {
			b.WriteString(successTextStyle.Render(fmt.Sprintf("%s complete", m.title)))
		}
		b.WriteString("\n")
		return b.String()
	}

	// Status line
	b.WriteString(fmt.Sprintf("%s %s %s\n",
		m.spinner.View(),
		titleStyle.Render(m.title),
		mutedTextStyle.Render(truncatePath(m.currentPath, contentWidth-20))))

	// Progress bar with completion ratio
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString("  " + m.bar.ViewAs(percent) + "\n")

	// Stats line
	stats := fmt.Sprintf("  %s / %s files",
		statsValueStyle.Render(humanize.Comma(m.done)),
		humanize.Comma(m.total))
	if m.failures > 0 {
		stats += "  " + errorTextStyle.Render(fmt.Sprintf("%d failed", m.failures))
	}
	stats += "  " + mutedTextStyle.Render(formatElapsed(time.Since(m.startTime)))
	b.WriteString(stats + "\n")

	return b.String()
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := d / time.Minute
	seconds := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
