package attr_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfs-go/sfs/attr"
	"github.com/sfs-go/sfs/blocktable"
	"github.com/sfs-go/sfs/directory"
	"github.com/sfs-go/sfs/fileio"
	"github.com/sfs-go/sfs/sfstest"
)

func TestStatDirectory(t *testing.T) {
	dev := sfstest.FreshImage(t)
	blocks := blocktable.New(dev)
	dirs := directory.New(dev, blocks)
	m := attr.New(blocks)

	require.NoError(t, dirs.Mkdir("/a"))
	entry, _, err := dirs.Resolve("/a")
	require.NoError(t, err)

	st, err := m.Stat(entry)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.Equal(t, uint32(2), st.Nlink)
	assert.Equal(t, os.FileMode(0755), st.ModeFlags&0777)
}

func TestStatRegularFileReportsSizeAndBlocks(t *testing.T) {
	dev := sfstest.FreshImage(t)
	blocks := blocktable.New(dev)
	dirs := directory.New(dev, blocks)
	files := fileio.New(dev, blocks, dirs)
	m := attr.New(blocks)

	require.NoError(t, dirs.Create("/f"))
	_, err := files.Write("/f", make([]byte, 600), 0)
	require.NoError(t, err)

	entry, _, err := dirs.Resolve("/f")
	require.NoError(t, err)

	st, err := m.Stat(entry)
	require.NoError(t, err)
	assert.False(t, st.IsDir())
	assert.Equal(t, uint32(1), st.Nlink)
	assert.Equal(t, int64(600), st.Size)
	assert.Equal(t, int64(2), st.NumBlocks)
}

func TestStatfsSnapshotReflectsAllocation(t *testing.T) {
	dev := sfstest.FreshImage(t)
	blocks := blocktable.New(dev)
	m := attr.New(blocks)

	before, err := m.Statfs()
	require.NoError(t, err)

	require.NoError(t, blocks.Terminate(0))

	after, err := m.Statfs()
	require.NoError(t, err)

	assert.Equal(t, before.Free-1, after.Free)
	assert.True(t, after.Bitmap.Get(0))
}
