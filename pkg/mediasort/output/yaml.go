package output

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Run        yamlRun         `yaml:"run"`
	Counts     yamlCounts      `yaml:"counts"`
	Operations []yamlOperation `yaml:"operations"`
}

// yamlRun represents run metadata in YAML output.
type yamlRun struct {
	RunID      string    `yaml:"run_id"`
	Root       string    `yaml:"root"`
	BackupRoot string    `yaml:"backup_root"`
	Scopes     []string  `yaml:"scopes,omitempty"`
	Mode       string    `yaml:"mode"`
	DryRun     bool      `yaml:"dry_run"`
	Status     string    `yaml:"status"`
	StartedAt  time.Time `yaml:"started_at,omitempty"`
	FinishedAt time.Time `yaml:"finished_at,omitempty"`
	Elapsed    string    `yaml:"elapsed,omitempty"`
}

// yamlCounts represents summary counters in YAML output.
type yamlCounts struct {
	Scanned     int64  `yaml:"scanned"`
	Extracted   int64  `yaml:"extracted"`
	Moved       int64  `yaml:"moved"`
	Skipped     int64  `yaml:"skipped"`
	Errored     int64  `yaml:"errored"`
	BytesMoved  int64  `yaml:"bytes_moved"`
	BytesHuman  string `yaml:"bytes_human"`
	CleanedDirs int64  `yaml:"cleaned_dirs"`
}

// yamlOperation represents one operation record in YAML output.
type yamlOperation struct {
	Kind        string    `yaml:"kind"`
	Source      string    `yaml:"source"`
	Dest        string    `yaml:"dest,omitempty"`
	Bytes       int64     `yaml:"bytes"`
	SizeHuman   string    `yaml:"size_human"`
	Timestamp   time.Time `yaml:"timestamp,omitempty"`
	Error       string    `yaml:"error,omitempty"`
	Reason      string    `yaml:"reason,omitempty"`
	Simulated   bool      `yaml:"simulated,omitempty"`
	FromArchive bool      `yaml:"from_archive,omitempty"`
}

// YAMLFormatter formats a run summary as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted summary to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, s *types.RunSummary) error {
	output := f.buildOutput(s)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts a RunSummary to the YAML output structure.
func (f *YAMLFormatter) buildOutput(s *types.RunSummary) yamlOutput {
	operations := make([]yamlOperation, len(s.Operations))
	for i, op := range s.Operations {
		operations[i] = yamlOperation{
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

	run := yamlRun{
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

	counts := yamlCounts{
		Scanned:     s.Scanned,
		Extracted:   s.Extracted,
		Moved:       s.Moved,
		Skipped:     s.Skipped,
		Errored:     s.Errored,
		BytesMoved:  s.BytesMoved,
		BytesHuman:  s.HumanBytes(),
		CleanedDirs: s.CleanedDirs,
	}

	return yamlOutput{
		Run:        run,
		Counts:     counts,
		Operations: operations,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
