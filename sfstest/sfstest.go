// Package sfstest builds fresh, in-memory SFS images for use in tests
// across every package, grounded in testing/images.go and
// file_systems/common/blockcache/blockcache.go's use of bytesextra to back
// an in-memory stream with a plain byte slice.
package sfstest

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/format"
)

// seekReadWriterAt adapts an io.ReadWriteSeeker into io.ReaderAt/io.WriterAt
// by serializing seek-then-transfer pairs behind a mutex. bytesextra's
// in-memory stream only promises the former, but disk.FileDevice wants the
// latter, exactly as drivers/common/blockdevice.go wraps a stream for its
// own callers.
type seekReadWriterAt struct {
	mu     sync.Mutex
	stream io.ReadWriteSeeker
}

func (s *seekReadWriterAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.stream, p)
}

func (s *seekReadWriterAt) WriteAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.stream.Write(p)
}

// NewDevice wraps image (already-formatted, or simply zeroed) bytes as a
// disk.Device backed entirely in memory.
func NewDevice(image []byte) disk.Device {
	stream := bytesextra.NewReadWriteSeeker(image)
	rw := &seekReadWriterAt{stream: stream}
	return disk.NewFileDevice(rw, int64(len(image)))
}

// FreshImage formats a brand-new image using the "medium" size preset and
// wraps it as a disk.Device, failing the test immediately on any error.
// Most package tests only need one freshly formatted, empty image and don't
// care about its exact preset, so this is the one-line entry point for them.
func FreshImage(t *testing.T) disk.Device {
	t.Helper()
	image, err := format.Format(format.Options{Preset: "medium"})
	require.NoError(t, err)
	return NewDevice(image)
}
