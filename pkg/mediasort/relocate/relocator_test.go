package relocate

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldane/mediasort/pkg/mediasort/types"
)

func testRecord(path string, size int64) types.FileRecord {
	return types.FileRecord{Path: path, Size: size, Class: types.ClassNonMedia}
}

func TestMove(t *testing.T) {
	src := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))
	dest := filepath.Join(t.TempDir(), "doc.txt")

	r := New(false)
	op := r.Move(testRecord(src, 7), dest)

	require.Equal(t, types.OpMove, op.Kind, "unexpected record: %+v", op)
	assert.Equal(t, src, op.Source)
	assert.Equal(t, dest, op.Dest)
	assert.Equal(t, int64(7), op.Bytes)
	assert.False(t, op.Simulated)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be gone after move")
}

func TestMove_CreatesParentDirs(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("n"), 0644))
	dest := filepath.Join(t.TempDir(), "a", "b", "c", "notes.txt")

	r := New(false)
	op := r.Move(testRecord(src, 1), dest)

	require.Equal(t, types.OpMove, op.Kind, "unexpected record: %+v", op)
	_, err := os.Stat(dest)
	assert.NoError(t, err)
}

func TestMove_DryRun(t *testing.T) {
	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0644))
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	r := New(true)
	op := r.Move(testRecord(src, 5), dest)

	require.Equal(t, types.OpMove, op.Kind)
	assert.True(t, op.Simulated)

	// Nothing on disk changes in dry-run.
	_, err := os.Stat(src)
	assert.NoError(t, err, "source must survive a dry-run")
	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "dest must not appear in a dry-run")
}

func TestMove_DestinationOccupied(t *testing.T) {
	src := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	dest := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	r := New(false)
	op := r.Move(testRecord(src, 3), dest)

	require.Equal(t, types.OpError, op.Kind)
	assert.Contains(t, op.Error, "already exists")

	// Neither file is disturbed.
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestMove_MissingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "vanished.txt")
	dest := filepath.Join(t.TempDir(), "vanished.txt")

	r := New(false)
	op := r.Move(testRecord(src, 0), dest)

	assert.Equal(t, types.OpError, op.Kind)
	assert.NotEmpty(t, op.Error)
}

func TestCopyAcrossDevices(t *testing.T) {
	src := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(src, []byte("cross-device payload"), 0644))
	dest := filepath.Join(t.TempDir(), "big.bin")

	require.NoError(t, copyAcrossDevices(src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "cross-device payload", string(data))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be deleted after verified copy")
}

func TestCopyAcrossDevices_PreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	src := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(src, []byte("s"), 0600))
	dest := filepath.Join(t.TempDir(), "secret.txt")

	require.NoError(t, copyAcrossDevices(src, dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCopyAcrossDevices_MissingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "gone.txt")
	dest := filepath.Join(t.TempDir(), "gone.txt")

	err := copyAcrossDevices(src, dest)
	assert.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no destination should appear on failure")
}

func TestEnsureSpace_ZeroNeed(t *testing.T) {
	assert.NoError(t, EnsureSpace(t.TempDir(), 0))
}

func TestEnsureSpace_SmallNeed(t *testing.T) {
	assert.NoError(t, EnsureSpace(t.TempDir(), 1))
}

func TestEnsureSpace_ImpossibleNeed(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("space detection is unix-specific")
	}

	err := EnsureSpace(t.TempDir(), math.MaxInt64)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
}

func TestIsCrossDevice(t *testing.T) {
	assert.False(t, isCrossDevice(os.ErrNotExist))
	assert.True(t, isCrossDevice(&os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV}))
}
