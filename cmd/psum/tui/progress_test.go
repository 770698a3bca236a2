package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/psum/pkg/psum/engine"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

func TestNewProgressModel(t *testing.T) {
	m := newProgressModel("Verifying")

	if m.title != "Verifying" {
		t.Errorf("expected title 'Verifying', got %s", m.title)
	}
	if m.finished {
		t.Error("expected finished to be false initially")
	}
	if m.done != 0 || m.total != 0 {
		t.Errorf("expected zero counts initially, got %d/%d", m.done, m.total)
	}
}

func TestProgressModelFileMsg(t *testing.T) {
	m := newProgressModel("Fingerprinting")

	updated, _ := m.Update(fileMsg{path: "/data/a.bin", done: 3, total: 10, failed: false})
	m = updated.(progressModel)

	if m.done != 3 {
		t.Errorf("expected done 3, got %d", m.done)
	}
	if m.total != 10 {
		t.Errorf("expected total 10, got %d", m.total)
	}
	if m.currentPath != "/data/a.bin" {
		t.Errorf("expected currentPath '/data/a.bin', got %s", m.currentPath)
	}
	if m.failures != 0 {
		t.Errorf("expected no failures, got %d", m.failures)
	}

	updated, _ = m.Update(fileMsg{path: "/data/b.bin", done: 4, total: 10, failed: true})
	m = updated.(progressModel)

	if m.failures != 1 {
		t.Errorf("expected 1 failure, got %d", m.failures)
	}
}

func TestProgressModelFinishMsg(t *testing.T) {
	m := newProgressModel("Verifying")

	updated, cmd := m.Update(finishMsg{err: nil})
	m = updated.(progressModel)

	if !m.finished {
		t.Error("expected finished to be true")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestProgressModelView(t *testing.T) {
	m := newProgressModel("Verifying")
	m.width = 80

	updated, _ := m.Update(fileMsg{path: "/data/a.bin", done: 5, total: 10})
	m = updated.(progressModel)

	view := m.View()
	if view == "" {
		t.Error("expected non-empty view")
	}
	if !strings.Contains(view, "Verifying") {
		t.Error("expected view to contain the title")
	}
	if !strings.Contains(view, "10") {
		t.Error("expected view to contain the total count")
	}
}

func TestProgressModelViewFinished(t *testing.T) {
	m := newProgressModel("Verifying")

	updated, _ := m.Update(finishMsg{err: errors.New("aborted")})
	m = updated.(progressModel)

	view := m.View()
	if !strings.Contains(view, "aborted") {
		t.Errorf("expected view to mention the error, got %q", view)
	}
}

func TestProgressModelWindowSize(t *testing.T) {
	m := newProgressModel("Verifying")

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(progressModel)

	if m.width != 120 {
		t.Errorf("expected width 120, got %d", m.width)
	}
}

func TestOnFileMapsOutcomeFailure(t *testing.T) {
	tests := []struct {
		name    string
		outcome *types.Outcome
		failed  bool
	}{
		{"generation event has no outcome", nil, false},
		{"match is not a failure", &types.Outcome{Kind: types.Match}, false},
		{"extra is not a failure", &types.Outcome{Kind: types.Extra}, false},
		{"mismatch is a failure", &types.Outcome{Kind: types.ContentMismatch}, true},
		{"missing is a failure", &types.Outcome{Kind: types.Missing}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engine.Event{Path: "/data/x", Done: 1, Total: 2, Outcome: tt.outcome}
			failed := e.Outcome != nil && e.Outcome.Kind.Failure()
			if failed != tt.failed {
				t.Errorf("failure mapping = %v, want %v", failed, tt.failed)
			}
		})
	}
}

func TestTruncatePath(t *testing.T) {
	if got := truncatePath("/short", 20); got != "/short" {
		t.Errorf("short path should be unchanged, got %q", got)
	}

	long := "/a/very/long/path/to/some/file.bin"
	got := truncatePath(long, 15)
	if len(got) != 15 {
		t.Errorf("truncatePath(%q, 15) = %q (len %d), want len 15", long, got, len(got))
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "file.bin") {
		t.Errorf("truncated path should keep the tail, got %q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{30, "0:30"},
		{90, "1:30"},
		{3600, "60:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			d := time.Duration(tt.seconds) * time.Second
			if got := formatElapsed(d); got != tt.expected {
				t.Errorf("formatElapsed(%ds) = %s, want %s", tt.seconds, got, tt.expected)
			}
		})
	}
}
