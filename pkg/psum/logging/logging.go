// Package logging provides component loggers for psum, backed by
// charmbracelet/log. Log lines go to a file under the XDG state directory
// and, optionally, to stderr at a separate console level.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("engine")
//	logger.Info("verify started", "records", n)
//
// Before Init is called all loggers are silent, so library code can log
// unconditionally. Handles returned by Get stay valid across Init and Close:
// their backends are swapped in place, so a logger captured at package init
// picks up the configured outputs once Init runs.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// parseLevel parses a level string into a charmbracelet/log level.
func parseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// ConsoleLevel enables stderr output at the given level. Empty
	// disables console output. The progress UI owns stderr while it runs,
	// so callers enable this only for non-interactive runs.
	ConsoleLevel string

	// Components maps component names to level overrides.
	Components map[string]string
}

// Logger writes component-tagged log lines to the configured outputs.
type Logger struct {
	file    *log.Logger
	console *log.Logger // nil unless console output is enabled
}

// Debug logs a debug message with optional key/value pairs.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a new logger with additional context fields.
func (l *Logger) With(args ...interface{}) *Logger {
	out := &Logger{file: l.file.With(args...)}
	if l.console != nil {
		out.console = l.console.With(args...)
	}
	return out
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *os.File
	level       log.Level
	components  map[string]log.Level
	console     bool
	consoleLvl  log.Level
	loggers     map[string]*Logger
}

var globalState = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]log.Level),
}

// Init initializes the logging system. It may be called again to
// reconfigure; loggers already handed out by Get are rewired in place.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	components := make(map[string]log.Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := parseLevel(lvl)
		if err != nil {
			return fmt.Errorf("component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	console := false
	consoleLvl := log.InfoLevel
	if cfg.ConsoleLevel != "" {
		consoleLvl, err = parseLevel(cfg.ConsoleLevel)
		if err != nil {
			return err
		}
		console = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	if globalState.file != nil {
		_ = globalState.file.Close()
	}
	globalState.file = f
	globalState.level = level
	globalState.components = components
	globalState.console = console
	globalState.consoleLvl = consoleLvl
	globalState.initialized = true

	for component, l := range globalState.loggers {
		l.file, l.console = newBackends(component)
	}
	return nil
}

// Get returns the logger for a component, creating it if needed.
func Get(component string) *Logger {
	globalState.mu.RLock()
	if logger, ok := globalState.loggers[component]; ok {
		globalState.mu.RUnlock()
		return logger
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}
	logger := newLogger(component)
	globalState.loggers[component] = logger
	return logger
}

// newLogger builds a logger for component. Must be called with the state
// lock held.
func newLogger(component string) *Logger {
	l := &Logger{}
	l.file, l.console = newBackends(component)
	return l
}

// newBackends builds the file and console backends for component from the
// current state. Must be called with the state lock held. Before Init (and
// after Close) the file backend discards everything.
func newBackends(component string) (*log.Logger, *log.Logger) {
	level := globalState.level
	if compLevel, ok := globalState.components[component]; ok {
		level = compLevel
	}

	if !globalState.initialized {
		return log.NewWithOptions(io.Discard, log.Options{
			Level:  level,
			Prefix: component,
		}), nil
	}

	file := log.NewWithOptions(globalState.file, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})
	var console *log.Logger
	if globalState.console {
		console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           globalState.consoleLvl,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return file, console
}

// Close flushes and closes the log file.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}
	globalState.initialized = false
	globalState.components = make(map[string]log.Level)

	// Existing handles go silent rather than writing to a closed file.
	for component, l := range globalState.loggers {
		l.file, l.console = newBackends(component)
	}

	if globalState.file != nil {
		if err := globalState.file.Close(); err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
		globalState.file = nil
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/psum/psum.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "psum", "psum.log")
}
