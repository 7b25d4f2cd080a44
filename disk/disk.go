// Package disk is the device adapter the core consumes. It is deliberately
// thin: the core only ever calls ReadAt and WriteAt against absolute image
// offsets, exactly as spec.md's disk_read/disk_write primitives describe.
package disk

import (
	"fmt"
	"io"
)

// Device is a byte-addressable, sized backing store. Implementations must
// make ReadAt and WriteAt behave like pread(2)/pwrite(2): no shared seek
// position, and every call transfers exactly the requested number of bytes
// or returns an error.
type Device interface {
	// ReadAt copies exactly len(dst) bytes from the image starting at off
	// into dst.
	ReadAt(dst []byte, off int64) error

	// WriteAt copies exactly len(src) bytes from src into the image starting
	// at off.
	WriteAt(src []byte, off int64) error

	// Size returns the total size of the backing image in bytes.
	Size() int64
}

// FileDevice adapts an io.ReaderAt/io.WriterAt pair (typically an *os.File)
// into a Device, the way drivers/common/blockdevice.go wraps a stream.
type FileDevice struct {
	rw   readWriterAt
	size int64
}

type readWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// NewFileDevice wraps rw (an *os.File or anything else implementing
// io.ReaderAt and io.WriterAt) as a Device of the given size.
func NewFileDevice(rw readWriterAt, size int64) *FileDevice {
	return &FileDevice{rw: rw, size: size}
}

func (d *FileDevice) Size() int64 { return d.size }

func (d *FileDevice) ReadAt(dst []byte, off int64) error {
	if err := d.checkBounds(off, len(dst)); err != nil {
		return err
	}
	n, err := d.rw.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	if n != len(dst) {
		return fmt.Errorf("short read at offset %d: wanted %d bytes, got %d", off, len(dst), n)
	}
	return nil
}

func (d *FileDevice) WriteAt(src []byte, off int64) error {
	if err := d.checkBounds(off, len(src)); err != nil {
		return err
	}
	n, err := d.rw.WriteAt(src, off)
	if err != nil {
		return err
	}
	if n != len(src) {
		return fmt.Errorf("short write at offset %d: wanted %d bytes, got %d", off, len(src), n)
	}
	return nil
}

func (d *FileDevice) checkBounds(off int64, length int) error {
	if off < 0 || length < 0 {
		return fmt.Errorf("negative offset or length: off=%d length=%d", off, length)
	}
	if off+int64(length) > d.size {
		return fmt.Errorf(
			"access out of bounds: offset %d plus %d bytes extends past image size %d",
			off, length, d.size)
	}
	return nil
}
