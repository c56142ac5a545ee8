// Package relocate executes planned moves, in simulation or for real.
//
// Live moves prefer os.Rename and fall back to copy, verify, and
// delete when source and destination sit on different filesystems.
// Destinations are never overwritten; a planned destination that turns
// out to be occupied produces an error record instead.
package relocate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/haldane/mediasort/pkg/mediasort/logging"
	"github.com/haldane/mediasort/pkg/mediasort/types"
)

// ErrInsufficientSpace indicates the destination filesystem cannot hold
// the bytes a run intends to move there.
var ErrInsufficientSpace = errors.New("insufficient disk space")

// Relocator moves files to their planned destinations.
type Relocator struct {
	dryRun bool
	log    *logging.Logger
}

// New creates a Relocator. With dryRun set, Move only simulates.
func New(dryRun bool) *Relocator {
	return &Relocator{
		dryRun: dryRun,
		log:    logging.Get("relocate"),
	}
}

// DryRun reports whether the relocator simulates moves.
func (r *Relocator) DryRun() bool { return r.dryRun }

// Move relocates the file to dest and returns the operation record.
// Failures become error records; they never abort the caller's loop.
func (r *Relocator) Move(rec types.FileRecord, dest string) types.OperationRecord {
	op := types.OperationRecord{
		Kind:        types.OpMove,
		Source:      rec.Path,
		Dest:        dest,
		Timestamp:   time.Now().UTC(),
		Bytes:       rec.Size,
		FromArchive: rec.FromArchive,
	}

	if r.dryRun {
		op.Simulated = true
		r.log.Debug("simulated move", "source", rec.Path, "dest", dest)
		return op
	}

	if err := r.moveFile(rec.Path, dest); err != nil {
		r.log.Warn("move failed", "source", rec.Path, "dest", dest, "error", err)
		return types.OperationRecord{
			Kind:        types.OpError,
			Source:      rec.Path,
			Dest:        dest,
			Timestamp:   time.Now().UTC(),
			Error:       err.Error(),
			FromArchive: rec.FromArchive,
		}
	}

	r.log.Debug("moved", "source", rec.Path, "dest", dest, "bytes", rec.Size)
	return op
}

// moveFile renames src to dest, creating parent directories first and
// falling back to a cross-device copy when rename cannot.
func (r *Relocator) moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	// The planner allocates free paths, but the tree may have changed
	// since planning. Occupied destinations always fail.
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("destination %q already exists", dest)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("probe destination: %w", err)
	}

	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("rename: %w", err)
	}

	r.log.Debug("cross-device move, copying", "source", src, "dest", dest)
	return copyAcrossDevices(src, dest)
}

// isCrossDevice reports whether a rename failed because source and
// destination are on different filesystems.
func isCrossDevice(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

// copyAcrossDevices copies src to a temporary file beside dest, syncs
// and verifies it, renames it into place, then deletes the source. The
// source survives any failure. Unlike a rename, the copy consumes space
// on the destination filesystem, so free space is checked first.
func copyAcrossDevices(src, dest string) error {
	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(dest)
	if err := EnsureSpace(dir, info.Size()); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	written, err := io.Copy(tmp, source)
	if err != nil {
		return fmt.Errorf("copy data: %w", err)
	}
	if written != info.Size() {
		return fmt.Errorf("short copy: wrote %d of %d bytes", written, info.Size())
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync destination: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("finalize destination: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// EnsureSpace verifies dir's filesystem can hold need more bytes.
// Platforms without space detection pass the check.
func EnsureSpace(dir string, need int64) error {
	if need <= 0 {
		return nil
	}

	available, err := availableBytes(dir)
	if err != nil {
		logging.Get("relocate").Debug("disk space check unavailable", "dir", dir, "error", err)
		return nil
	}
	if available < uint64(need) {
		return fmt.Errorf("%w: %s available on %s, need %s",
			ErrInsufficientSpace, types.FormatSize(int64(available)), dir, types.FormatSize(need))
	}
	return nil
}
