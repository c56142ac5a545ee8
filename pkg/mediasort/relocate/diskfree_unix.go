//go:build darwin || linux

package relocate

import "golang.org/x/sys/unix"

// availableBytes returns the free space on the filesystem holding path,
// as seen by an unprivileged caller.
func availableBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
