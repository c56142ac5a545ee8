package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractZip extracts a zip archive into destDir and returns the files
// written plus total bytes. An error from any entry aborts extraction;
// files written before the failure are left behind and picked up by
// later phases as ordinary tree entries.
func extractZip(zipPath, destDir string) ([]string, int64, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	var (
		files []string
		total int64
	)

	for _, file := range reader.File {
		target, err := entryTarget(destDir, file.Name)
		if err != nil {
			return files, total, err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, total, fmt.Errorf("create directory %q: %w", file.Name, err)
			}
			continue
		}

		written, path, err := extractEntry(file, target)
		if err != nil {
			return files, total, err
		}
		files = append(files, path)
		total += written
	}

	return files, total, nil
}

// extractEntry writes a single zip entry to target, shifting to a
// non-colliding name when target already exists. Destination files are
// never overwritten.
func extractEntry(file *zip.File, target string) (int64, string, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, "", fmt.Errorf("create directory for %q: %w", file.Name, err)
	}

	target, err := availableTarget(target)
	if err != nil {
		return 0, "", fmt.Errorf("place entry %q: %w", file.Name, err)
	}

	rc, err := file.Open()
	if err != nil {
		return 0, "", fmt.Errorf("open entry %q: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, "", fmt.Errorf("create %q: %w", target, err)
	}

	written, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target)
		return 0, "", fmt.Errorf("extract entry %q: %w", file.Name, err)
	}

	return written, target, nil
}

// entryTarget resolves an entry name inside destDir and rejects names
// that escape it (zip slip).
func entryTarget(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if target != destDir && !strings.HasPrefix(target, destDir+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes extraction directory", name)
	}
	return target, nil
}

// availableTarget returns path unchanged when nothing exists there, or
// the first name_N variant that is free.
func availableTarget(path string) (string, error) {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; i <= maxNameAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", path, maxNameAttempts)
}

// maxNameAttempts bounds the collision suffix search.
const maxNameAttempts = 10000
