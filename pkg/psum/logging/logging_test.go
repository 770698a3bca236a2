package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psum.log")

	if err := Init(Config{Level: "debug", Path: path}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	logger := Get("testcomp")
	logger.Info("hello", "key", "value")
	logger.Debug("debug line")

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello") || !strings.Contains(content, "testcomp") {
		t.Errorf("log content missing entries: %q", content)
	}
	if !strings.Contains(content, "debug line") {
		t.Errorf("debug level not honored: %q", content)
	}
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psum.log")

	err := Init(Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"quiet": "error"},
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Get("quiet").Info("should be suppressed")
	Get("loud").Info("should appear")

	if err := Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "suppressed") {
		t.Error("component override did not suppress info line")
	}
	if !strings.Contains(string(data), "should appear") {
		t.Error("default level line missing")
	}
}

func TestInvalidLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("Init error = %v, want ErrInvalidLevel", err)
	}
}

func TestSilentBeforeInit(t *testing.T) {
	// Must not panic or write anywhere.
	Get("early").Info("dropped")
}

// A handle obtained before Init (e.g. a package-level logger) must start
// writing to the configured file once Init runs, and fall silent again
// after Close.
func TestHandleObtainedBeforeInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psum.log")

	early := Get("earlybird")
	early.Info("line before init")

	if err := Init(Config{Level: "info", Path: path}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	early.Info("line after init")

	if err := Close(); err != nil {
		t.Fatal(err)
	}
	early.Info("line after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if strings.Contains(content, "line before init") {
		t.Errorf("pre-init line should be discarded: %q", content)
	}
	if !strings.Contains(content, "line after init") {
		t.Errorf("stale handle never reached the log file: %q", content)
	}
	if strings.Contains(content, "line after close") {
		t.Errorf("post-close line should be discarded: %q", content)
	}
}

// Reconfiguring with Init must move existing handles to the new file.
func TestReinitMovesExistingHandles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	if err := Init(Config{Level: "info", Path: first}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	logger := Get("mover")
	logger.Info("to first")

	if err := Init(Config{Level: "info", Path: second}); err != nil {
		t.Fatalf("reinit failed: %v", err)
	}
	logger.Info("to second")

	if err := Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "to first") {
		t.Error("line from before reinit leaked into the new file")
	}
	if !strings.Contains(string(data), "to second") {
		t.Errorf("handle still writes to the old file: %q", string(data))
	}
}
