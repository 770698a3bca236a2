// Package output provides formatters for displaying verification reports
// in various output formats (pretty, plain, json).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/psum/pkg/psum/engine"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

// Report contains the complete verification data for formatting.
type Report struct {
	// Outcomes contains one entry per checked path, expected records
	// first in record order, then any extras.
	Outcomes []types.Outcome `json:"outcomes"`

	// Summary counts outcomes by kind.
	Summary engine.Summary `json:"summary"`

	// ChecksumFile is the checksum file that was verified against.
	ChecksumFile string `json:"checksum_file"`

	// Elapsed is the total verification duration.
	Elapsed time.Duration `json:"elapsed"`

	// Warnings contains any warning messages generated during the run.
	Warnings []string `json:"warnings,omitempty"`

	// Interrupted indicates the run was cut short by the user or an
	// I/O error in strict mode.
	Interrupted bool `json:"interrupted"`
}

// Checked returns the number of expected records that were examined.
func (r *Report) Checked() int {
	return len(r.Outcomes) - int(r.Summary.Extra)
}

// StatusLabel returns the fixed status token printed for an outcome kind.
func StatusLabel(kind types.OutcomeKind) string {
	switch kind {
	case types.Match:
		return "OK"
	case types.ContentMismatch:
		return "MISMATCH"
	case types.MetadataOnlyMismatch:
		return "META-MISMATCH"
	case types.Missing:
		return "MISSING"
	case types.Extra:
		return "EXTRA"
	case types.ReadError:
		return "ERROR"
	default:
		return string(kind)
	}
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
