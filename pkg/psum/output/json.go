package output

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonReport represents the full JSON output structure.
type jsonReport struct {
	Outcomes []jsonOutcome `json:"outcomes"`
	Summary  jsonSummary   `json:"summary"`
	Meta     jsonMeta      `json:"meta"`
}

// jsonOutcome represents one checked path in JSON output.
type jsonOutcome struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// jsonSummary represents outcome counts in JSON output.
type jsonSummary struct {
	Matched        int64 `json:"matched"`
	Mismatched     int64 `json:"mismatched"`
	MetaMismatched int64 `json:"meta_mismatched"`
	Missing        int64 `json:"missing"`
	Extra          int64 `json:"extra"`
	Errors         int64 `json:"errors"`
	Failures       int64 `json:"failures"`
}

// jsonMeta represents run metadata in JSON output.
type jsonMeta struct {
	ChecksumFile string   `json:"checksum_file"`
	Checked      int      `json:"checked"`
	Elapsed      string   `json:"elapsed"`
	Warnings     []string `json:"warnings,omitempty"`
	Interrupted  bool     `json:"interrupted"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with outcomes, summary, and meta
// sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	report := f.buildReport(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// buildReport converts a Report to the JSON output structure.
func (f *JSONFormatter) buildReport(r *Report) jsonReport {
	outcomes := make([]jsonOutcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		outcomes[i] = jsonOutcome{
			Path:   o.Path,
			Status: StatusLabel(o.Kind),
			Error:  o.Err,
		}
	}

	summary := jsonSummary{
		Matched:        r.Summary.Matched,
		Mismatched:     r.Summary.Mismatched,
		MetaMismatched: r.Summary.MetaMismatched,
		Missing:        r.Summary.Missing,
		Extra:          r.Summary.Extra,
		Errors:         r.Summary.Errors,
		Failures:       r.Summary.Failures(),
	}

	meta := jsonMeta{
		ChecksumFile: r.ChecksumFile,
		Checked:      r.Checked(),
		Elapsed:      formatDurationString(r.Elapsed),
		Warnings:     r.Warnings,
		Interrupted:  r.Interrupted,
	}

	return jsonReport{
		Outcomes: outcomes,
		Summary:  summary,
		Meta:     meta,
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per
// line). Each outcome is written as a compact JSON object on its own line.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Report) error {
	for _, o := range r.Outcomes {
		data, err := json.Marshal(jsonOutcome{
			Path:   o.Path,
			Status: StatusLabel(o.Kind),
			Error:  o.Err,
		})
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
