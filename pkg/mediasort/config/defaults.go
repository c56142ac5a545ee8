// Package config provides configuration management for mediasort.
package config

// Default configuration values for mediasort.
const (
	// DefaultBackupDirName is the directory created inside the source root
	// to receive non-media files when no backup root is configured.
	DefaultBackupDirName = "NonMedia"

	// DefaultMode is the destination layout strategy.
	DefaultMode = "preserve"

	// DefaultOutput is the summary output format.
	DefaultOutput = "pretty"

	// DefaultMaxPasses bounds repeated archive expansion passes per run.
	// Archives still present after this many passes are reported as errors.
	DefaultMaxPasses = 10

	// DefaultRetentionDays is the default number of days to retain run logs.
	DefaultRetentionDays = 30
)

// DefaultMediaExtensions are the filename extensions classified as media
// without content sniffing.
var DefaultMediaExtensions = []string{
	// Video
	".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv",
	// Audio
	".mp3", ".wav", ".flac", ".m4a", ".aac",
	// Images
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff",
}

// DefaultArchiveExtensions are the filename extensions treated as
// expandable archives.
var DefaultArchiveExtensions = []string{".zip"}
