package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/psum/pkg/psum/types"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct {
	// FailuresOnly suppresses OK rows, showing only problems.
	FailuresOnly bool
}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatRows(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Report) string {
	var lines []string

	fileLabel := LabelStyle.Render("File:")
	fileValue := ValueStyle.Render(r.ChecksumFile)
	lines = append(lines, fmt.Sprintf("%s %s", fileLabel, fileValue))

	checkedLabel := LabelStyle.Render("Checked:")
	checkedValue := ValueStyle.Render(fmt.Sprintf("%d files in %s",
		r.Checked(), formatDuration(r.Elapsed)))
	lines = append(lines, fmt.Sprintf("%s %s", checkedLabel, checkedValue))

	if r.Interrupted {
		interruptedStyle := WarningStyle.Bold(true)
		lines = append(lines, interruptedStyle.Render("Verification stopped early"))
	}

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatRows builds the status table, one row per outcome.
func (f *PrettyFormatter) formatRows(r *Report) string {
	var sb strings.Builder
	shown := 0

	for _, o := range r.Outcomes {
		if f.FailuresOnly && o.Kind == types.Match {
			continue
		}
		shown++

		status := statusStyle(o.Kind).Render(padRight(StatusLabel(o.Kind), 13))
		sb.WriteString(fmt.Sprintf("  %s  %s", status, PathStyle.Render(o.Path)))
		if o.Err != "" {
			sb.WriteString("  " + MutedStyle.Render(o.Err))
		}
		sb.WriteString("\n")
	}

	if shown == 0 {
		if f.FailuresOnly {
			return SuccessStyle.Render("  All files match\n")
		}
		return MutedStyle.Render("  No files to check\n")
	}
	return sb.String()
}

// formatFooter builds the footer box with summary counts.
func (f *PrettyFormatter) formatFooter(r *Report) string {
	s := r.Summary
	var parts []string

	okLabel := LabelStyle.Render("OK:")
	parts = append(parts, fmt.Sprintf("%s %s", okLabel, SuccessStyle.Render(fmt.Sprintf("%d", s.Matched))))

	if failures := s.Failures(); failures > 0 {
		failLabel := LabelStyle.Render("Failed:")
		parts = append(parts, fmt.Sprintf("%s %s", failLabel, ErrorStyle.Render(fmt.Sprintf("%d", failures))))
	}
	if s.Missing > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("(%d missing)", s.Missing)))
	}
	if s.Extra > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d extra", s.Extra)))
	}
	if s.Errors > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d unreadable", s.Errors)))
	}

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// statusStyle maps an outcome kind to its display style.
func statusStyle(kind types.OutcomeKind) lipgloss.Style {
	switch kind {
	case types.Match:
		return SuccessStyle
	case types.MetadataOnlyMismatch, types.Extra:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// padRight pads a string with spaces on the right to the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a time.Duration as a human-friendly string.
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
