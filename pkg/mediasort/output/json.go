package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Run        jsonRun         `json:"run"`
	Counts     jsonCounts      `json:"counts"`
	Operations []jsonOperation `json:"operations"`
}

// jsonRun represents run metadata in JSON output.
type jsonRun struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	BackupRoot string    `json:"backup_root"`
	Scopes     []string  `json:"scopes,omitempty"`
	Mode       string    `json:"mode"`
	DryRun     bool      `json:"dry_run"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Elapsed    string    `json:"elapsed,omitempty"`
}

// jsonCounts represents summary counters in JSON output.
type jsonCounts struct {
	Scanned     int64  `json:"scanned"`
	Extracted   int64  `json:"extracted"`
	Moved       int64  `json:"moved"`
	Skipped     int64  `json:"skipped"`
	Errored     int64  `json:"errored"`
	BytesMoved  int64  `json:"bytes_moved"`
	BytesHuman  string `json:"bytes_human"`
	CleanedDirs int64  `json:"cleaned_dirs"`
}

// jsonOperation represents one operation record in JSON output.
type jsonOperation struct {
	Kind        string    `json:"kind"`
	Source      string    `json:"source"`
	Dest        string    `json:"dest,omitempty"`
	Bytes       int64     `json:"bytes"`
	SizeHuman   string    `json:"size_human"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	Error       string    `json:"error,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Simulated   bool      `json:"simulated,omitempty"`
	FromArchive bool      `json:"from_archive,omitempty"`
}

// JSONFormatter formats a run summary as a single indented JSON object.
// It produces a complete document with run, counts, and operations sections.
type JSONFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	output := f.buildOutput(s)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts a RunSummary to the JSON output structure.
func (f *JSONFormatter) buildOutput(s *types.RunSummary) jsonOutput {
	operations := make([]jsonOperation, len(s.Operations))
	for i, op := range s.Operations {
		operations[i] = buildJSONOperation(op)
	}

	run := jsonRun{
		RunID:      s.RunID,
		Root:       s.Root,
		BackupRoot: s.BackupRoot,
		Scopes:     scopeNames(s.Scopes),
		Mode:       s.Mode.String(),
		DryRun:     s.DryRun,
		Status:     string(s.Status),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Elapsed:    formatDurationString(s.Elapsed),
	}

	counts := jsonCounts{
		Scanned:     s.Scanned,
		Extracted:   s.Extracted,
		Moved:       s.Moved,
		Skipped:     s.Skipped,
		Errored:     s.Errored,
		BytesMoved:  s.BytesMoved,
		BytesHuman:  s.HumanBytes(),
		CleanedDirs: s.CleanedDirs,
	}

	return jsonOutput{
		Run:        run,
		Counts:     counts,
		Operations: operations,
	}
}

// buildJSONOperation converts one operation record for JSON output.
func buildJSONOperation(op types.OperationRecord) jsonOperation {
	return jsonOperation{
		Kind:        string(op.Kind),
		Source:      op.Source,
		Dest:        op.Dest,
		Bytes:       op.Bytes,
		SizeHuman:   types.FormatSize(op.Bytes),
		Timestamp:   op.Timestamp,
		Error:       op.Error,
		Reason:      op.Reason,
		Simulated:   op.Simulated,
		FromArchive: op.FromArchive,
	}
}

// formatDurationString formats a duration as a string for structured output.
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

// JSONLFormatter formats a run summary as newline-delimited JSON, one
// operation record per line. Each record is a compact JSON object, a
// format suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	for _, op := range s.Operations {
		data, err := json.Marshal(buildJSONOperation(op))
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
