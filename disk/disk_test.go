package disk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/sfstest"
)

func TestFileDeviceReadWriteRoundTrip(t *testing.T) {
	dev := sfstest.NewDevice(make([]byte, 64))

	require.NoError(t, dev.WriteAt([]byte("hello"), 10))

	out := make([]byte, 5)
	require.NoError(t, dev.ReadAt(out, 10))
	assert.Equal(t, "hello", string(out))
}

func TestFileDeviceRejectsOutOfBoundsAccess(t *testing.T) {
	dev := sfstest.NewDevice(make([]byte, 16))

	assert.Error(t, dev.WriteAt([]byte("toolong-for-this-buffer"), 0))
	assert.Error(t, dev.ReadAt(make([]byte, 4), 20))
}

func TestGetSizePresetKnownSlug(t *testing.T) {
	preset, err := disk.GetSizePreset("medium")
	require.NoError(t, err)
	assert.Equal(t, uint(4096), preset.BlockTableEntries)
}

func TestGetSizePresetUnknownSlug(t *testing.T) {
	_, err := disk.GetSizePreset("does-not-exist")
	assert.Error(t, err)
}

func TestListSizePresetSlugsIncludesMedium(t *testing.T) {
	slugs := disk.ListSizePresetSlugs()
	assert.Contains(t, slugs, "medium")
}
