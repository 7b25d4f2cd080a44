package blocktable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfs-go/sfs/blocktable"
	"github.com/sfs-go/sfs/layout"
	"github.com/sfs-go/sfs/sfstest"
)

func TestAllocateOneReturnsSameBlockUntilCommitted(t *testing.T) {
	dev := sfstest.FreshImage(t)
	m := blocktable.New(dev)

	first, err := m.AllocateOne()
	require.NoError(t, err)

	// AllocateOne does not mutate the table, so calling it again returns the
	// same free block until the caller commits it.
	second, err := m.AllocateOne()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLinkAndWalkChain(t *testing.T) {
	dev := sfstest.FreshImage(t)
	m := blocktable.New(dev)

	require.NoError(t, m.Link(0, 1))
	require.NoError(t, m.Link(1, 2))
	require.NoError(t, m.Terminate(2))

	chain, err := m.WalkChain(0)
	require.NoError(t, err)
	assert.Equal(t, []layout.BlockID{0, 1, 2}, chain)

	count, err := m.CountChainLength(0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWalkChainEndIsEmpty(t *testing.T) {
	dev := sfstest.FreshImage(t)
	m := blocktable.New(dev)

	chain, err := m.WalkChain(layout.BlockEnd)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestFreeChainResetsEveryBlock(t *testing.T) {
	dev := sfstest.FreshImage(t)
	m := blocktable.New(dev)

	require.NoError(t, m.Link(3, 4))
	require.NoError(t, m.Terminate(4))
	require.NoError(t, m.FreeChain(3))

	for _, b := range []layout.BlockID{3, 4} {
		free, err := m.IsFree(b)
		require.NoError(t, err)
		assert.True(t, free, "block %d should be free", b)
	}
}

func TestFreeBlocksCountsDownAsBlocksAreUsed(t *testing.T) {
	dev := sfstest.FreshImage(t)
	m := blocktable.New(dev)

	before, err := m.FreeBlocks()
	require.NoError(t, err)

	require.NoError(t, m.Terminate(0))

	after, err := m.FreeBlocks()
	require.NoError(t, err)
	assert.Equal(t, before-1, after)
}

func TestZeroBlockClearsContents(t *testing.T) {
	dev := sfstest.FreshImage(t)
	m := blocktable.New(dev)

	garbage := make([]byte, layout.BlockSize)
	for i := range garbage {
		garbage[i] = 0xAB
	}
	require.NoError(t, dev.WriteAt(garbage, layout.DataOffset))

	require.NoError(t, m.ZeroBlock(0))

	readBack := make([]byte, layout.BlockSize)
	require.NoError(t, dev.ReadAt(readBack, layout.DataOffset))
	assert.Equal(t, make([]byte, layout.BlockSize), readBack)
}
