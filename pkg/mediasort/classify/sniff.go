package classify

import "github.com/gabriel-vasile/mimetype"

// Sniffer detects a file's MIME type from its content.
// Implementations read at most a bounded prefix of the file.
type Sniffer interface {
	// Sniff returns the detected MIME type for the file at path.
	// A failure to read the file returns an error; callers degrade to
	// extension-only classification rather than failing the scan.
	Sniff(path string) (string, error)
}

// MIMESniffer detects MIME types by content using magic-byte signatures.
// Detection reads only the file header, never the whole file.
type MIMESniffer struct{}

// Sniff implements Sniffer.
func (MIMESniffer) Sniff(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}
