// Package classify decides whether a file is media or non-media.
// Classification combines two independent signals: the filename extension
// and the content-sniffed MIME type. Either one is sufficient to mark a
// file as media; files matching neither default to non-media.
package classify

import (
	"strings"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// mimePrefixes are the MIME top-level types treated as media.
var mimePrefixes = []string{"video/", "audio/", "image/"}

// Classifier classifies file records against a configured extension set.
// It performs no I/O; MIME sniffing happens upstream in the scanner.
type Classifier struct {
	mediaExts map[string]struct{}
}

// New creates a Classifier recognizing the given media extensions.
// Extensions are normalized: lowercase and prefixed with "." if missing.
func New(extensions []string) *Classifier {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[normalizeExt(ext)] = struct{}{}
	}
	return &Classifier{mediaExts: exts}
}

// Classify returns the verdict for a file record.
// A file is media when its extension is in the media set or its sniffed
// MIME type has a video, audio, or image top-level type. The two checks
// never veto each other; a recognized extension wins regardless of what
// the content sniff said, and vice versa.
func (c *Classifier) Classify(rec *types.FileRecord) types.Classification {
	if c.matchExtension(rec.Ext) {
		return types.ClassMedia
	}
	if matchMIME(rec.MIME) {
		return types.ClassMedia
	}
	return types.ClassNonMedia
}

// matchExtension checks the extension against the media set.
func (c *Classifier) matchExtension(ext string) bool {
	if ext == "" {
		return false
	}
	_, ok := c.mediaExts[normalizeExt(ext)]
	return ok
}

// matchMIME checks whether a sniffed MIME type names media content.
// Parameters such as charset are ignored. An empty MIME type (sniffing
// failed or unavailable) never matches.
func matchMIME(mime string) bool {
	mime, _, _ = strings.Cut(mime, ";")
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" {
		return false
	}
	for _, prefix := range mimePrefixes {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}

// normalizeExt lowercases an extension and ensures the leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
