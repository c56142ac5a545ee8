//go:build !darwin && !linux

package relocate

import "errors"

// availableBytes is not implemented on this platform; callers treat the
// error as "unknown" and skip the space check.
func availableBytes(path string) (uint64, error) {
	return 0, errors.New("disk space detection not supported on this platform")
}
