package sfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfs-go/sfs/blocktable"
	"github.com/sfs-go/sfs/layout"
	"github.com/sfs-go/sfs/sfs"
	"github.com/sfs-go/sfs/sfserr"
	"github.com/sfs-go/sfs/sfstest"
)

// TestEndToEndScenario walks spec.md's six literal end-to-end scenarios
// against one freshly formatted image, in order.
func TestEndToEndScenario(t *testing.T) {
	dev := sfstest.FreshImage(t)
	fs := sfs.New(dev)

	// 1.
	require.NoError(t, fs.Mkdir("/a"))
	st, err := fs.Getattr("/a")
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	names, err := fs.Readdir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "a"}, names)

	// 2.
	require.NoError(t, fs.Create("/a/f"))
	n, err := fs.Write("/a/f", []byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	st, err = fs.Getattr("/a/f")
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.Size)
	data, err := fs.Read("/a/f", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// 3.
	require.NoError(t, fs.Truncate("/a/f", 1024))
	st, err = fs.Getattr("/a/f")
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.NumBlocks)
	data, err = fs.Read("/a/f", 5, 1019)
	require.NoError(t, err)
	require.Len(t, data, 1019)
	assert.Equal(t, make([]byte, 1019), data)

	// 4.
	n, err = fs.Write("/a/f", []byte("X"), 600)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	data, err = fs.Read("/a/f", 600, 1)
	require.NoError(t, err)
	assert.Equal(t, "X", string(data))
	st, err = fs.Getattr("/a/f")
	require.NoError(t, err)
	assert.EqualValues(t, 1024, st.Size)

	// 5.
	require.NoError(t, fs.Unlink("/a/f"))
	require.NoError(t, fs.Rmdir("/a"))
	snap, err := fs.Statfs()
	require.NoError(t, err)
	assert.Equal(t, snap.Total, snap.Free)
	names, err = fs.Readdir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{".", ".."}, names)

	// 6.
	longName := make([]byte, 64)
	for i := range longName {
		longName[i] = 'a'
	}
	err = fs.Mkdir("/" + string(longName))
	assert.ErrorIs(t, err, sfserr.NameTooLong)
}

func TestReadAtExactEndOfFileReturnsZeroBytes(t *testing.T) {
	dev := sfstest.FreshImage(t)
	fs := sfs.New(dev)

	require.NoError(t, fs.Create("/f"))
	_, err := fs.Write("/f", []byte("abc"), 0)
	require.NoError(t, err)

	data, err := fs.Read("/f", 3, 10)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestReadAcrossBlockBoundaryMatchesTwoSeparateReads(t *testing.T) {
	dev := sfstest.FreshImage(t)
	fs := sfs.New(dev)

	require.NoError(t, fs.Create("/f"))
	buf := make([]byte, layout.BlockSize+20)
	for i := range buf {
		buf[i] = byte(i % 200)
	}
	_, err := fs.Write("/f", buf, 0)
	require.NoError(t, err)

	whole, err := fs.Read("/f", layout.BlockSize-5, 10)
	require.NoError(t, err)

	first, err := fs.Read("/f", layout.BlockSize-5, 5)
	require.NoError(t, err)
	second, err := fs.Read("/f", layout.BlockSize, 5)
	require.NoError(t, err)

	assert.Equal(t, whole, append(first, second...))
}

func TestMkdirWithOnlyOneFreeBlockLeavesTableUnchanged(t *testing.T) {
	dev := sfstest.FreshImage(t)
	blocks := blocktable.New(dev)
	fs := sfs.New(dev)

	// Exhaust every block but one directly through the low-level manager;
	// mkdir needs two and must fail without disturbing the one remaining.
	total, err := blocks.FreeBlocks()
	require.NoError(t, err)
	for i := 0; i < total-1; i++ {
		require.NoError(t, blocks.Terminate(layout.BlockID(i)))
	}

	err = fs.Mkdir("/a")
	assert.ErrorIs(t, err, sfserr.NoSpace)

	after, err := fs.Statfs()
	require.NoError(t, err)
	assert.Equal(t, 1, after.Free)
}

func TestLockingForwardsOperations(t *testing.T) {
	dev := sfstest.FreshImage(t)
	l := sfs.NewLocking(sfs.New(dev))

	require.NoError(t, l.Create("/f"))
	n, err := l.Write("/f", []byte("hi"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := l.Read("/f", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}
