package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Use a temp directory that doesn't have a config file
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", cfg.Mode, DefaultMode)
	}

	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}

	if !cfg.Confirm {
		t.Error("Confirm = false, want true")
	}

	if !cfg.Sniff {
		t.Error("Sniff = false, want true")
	}

	if len(cfg.MediaExtensions) != len(DefaultMediaExtensions) {
		t.Errorf("len(MediaExtensions) = %d, want %d", len(cfg.MediaExtensions), len(DefaultMediaExtensions))
	}

	if len(cfg.Archive.Extensions) != 1 || cfg.Archive.Extensions[0] != ".zip" {
		t.Errorf("Archive.Extensions = %v, want [.zip]", cfg.Archive.Extensions)
	}

	if cfg.Archive.MaxPasses != DefaultMaxPasses {
		t.Errorf("Archive.MaxPasses = %d, want %d", cfg.Archive.MaxPasses, DefaultMaxPasses)
	}

	if !cfg.Manifest.Enabled {
		t.Error("Manifest.Enabled = false, want true")
	}

	if cfg.Manifest.RetentionDays != DefaultRetentionDays {
		t.Errorf("Manifest.RetentionDays = %d, want %d", cfg.Manifest.RetentionDays, DefaultRetentionDays)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "mediasort")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
source_root: /data/incoming
backup_root: /data/backup
mode: flatten
confirm: false
sniff: false
output: json
media_extensions:
  - .mp4
  - .webm
archive:
  extensions:
    - .zip
    - .cbz
  max_passes: 3
exclude:
  - "*.part"
manifest:
  enabled: false
  path: /custom/manifest
  retention_days: 7
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SourceRoot != "/data/incoming" {
		t.Errorf("SourceRoot = %q, want %q", cfg.SourceRoot, "/data/incoming")
	}

	if cfg.BackupRoot != "/data/backup" {
		t.Errorf("BackupRoot = %q, want %q", cfg.BackupRoot, "/data/backup")
	}

	if cfg.Mode != "flatten" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "flatten")
	}

	if cfg.Confirm {
		t.Error("Confirm = true, want false")
	}

	if cfg.Sniff {
		t.Error("Sniff = true, want false")
	}

	if len(cfg.MediaExtensions) != 2 {
		t.Errorf("len(MediaExtensions) = %d, want 2", len(cfg.MediaExtensions))
	}

	if len(cfg.Archive.Extensions) != 2 {
		t.Errorf("len(Archive.Extensions) = %d, want 2", len(cfg.Archive.Extensions))
	}

	if cfg.Archive.MaxPasses != 3 {
		t.Errorf("Archive.MaxPasses = %d, want 3", cfg.Archive.MaxPasses)
	}

	if cfg.Manifest.Enabled {
		t.Error("Manifest.Enabled = true, want false")
	}

	if cfg.Manifest.Path != "/custom/manifest" {
		t.Errorf("Manifest.Path = %q, want %q", cfg.Manifest.Path, "/custom/manifest")
	}
}

func TestLoad_TildeExpansion(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "mediasort")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
source_root: ~/incoming
backup_root: ~/backup
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := filepath.Join(tempDir, "incoming")
	if cfg.SourceRoot != want {
		t.Errorf("SourceRoot = %q, want %q", cfg.SourceRoot, want)
	}

	want = filepath.Join(tempDir, "backup")
	if cfg.BackupRoot != want {
		t.Errorf("BackupRoot = %q, want %q", cfg.BackupRoot, want)
	}
}

func TestDefaultBackupRoot(t *testing.T) {
	got := DefaultBackupRoot("/data/incoming")
	want := filepath.Join("/data/incoming", DefaultBackupDirName)
	if got != want {
		t.Errorf("DefaultBackupRoot() = %q, want %q", got, want)
	}
}

func TestWriteDefault(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	if err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	configPath := filepath.Join(tempDir, ".config", "mediasort", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file at %s: %v", configPath, err)
	}

	// Loading the written default must succeed and round-trip the defaults.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() after WriteDefault() error = %v", err)
	}

	if cfg.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", cfg.Mode, DefaultMode)
	}

	// A second WriteDefault must not clobber the existing file.
	if err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() second call error = %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tilde path", input: "~/media", want: filepath.Join(tempDir, "media")},
		{name: "absolute path", input: "/data/media", want: "/data/media"},
		{name: "relative path", input: "media", want: "media"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
