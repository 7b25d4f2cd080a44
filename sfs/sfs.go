// Package sfs wires the block table manager, directory manager, file I/O
// engine, and attribute mapper into the Core API, the way driver.BaseDriver
// composes drivers/common types into dargueta-disko's Driver interface.
package sfs

import (
	"github.com/sfs-go/sfs/attr"
	"github.com/sfs-go/sfs/blocktable"
	"github.com/sfs-go/sfs/directory"
	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/fileio"
)

// FileSystem is the Core API over a backing disk.Device. Per spec.md §5, it
// assumes a single caller: it takes no internal lock, and concurrent use
// from multiple goroutines without external serialization is undefined.
// Use Locking (locking.go) for an opt-in, mutex-guarded wrapper.
type FileSystem struct {
	blocks *blocktable.Manager
	dirs   *directory.Manager
	files  *fileio.Engine
	attrs  *attr.Mapper
}

// New wires a FileSystem over dev. dev must already hold a formatted image;
// New performs no formatting of its own (see the format package for that).
func New(dev disk.Device) *FileSystem {
	blocks := blocktable.New(dev)
	dirs := directory.New(dev, blocks)
	files := fileio.New(dev, blocks, dirs)
	attrs := attr.New(blocks)
	return &FileSystem{blocks: blocks, dirs: dirs, files: files, attrs: attrs}
}

// Getattr returns a stat-like record for path.
func (fs *FileSystem) Getattr(path string) (attr.Stat, error) {
	entry, _, err := fs.dirs.Resolve(path)
	if err != nil {
		return attr.Stat{}, err
	}
	return fs.attrs.Stat(entry)
}

// Readdir lists the names in the directory at path, including "." and "..".
func (fs *FileSystem) Readdir(path string) ([]string, error) {
	return fs.dirs.ReadDir(path)
}

// Mkdir creates a new, empty subdirectory at path.
func (fs *FileSystem) Mkdir(path string) error {
	return fs.dirs.Mkdir(path)
}

// Rmdir removes the empty subdirectory at path.
func (fs *FileSystem) Rmdir(path string) error {
	return fs.dirs.Rmdir(path)
}

// Unlink removes the regular file at path.
func (fs *FileSystem) Unlink(path string) error {
	return fs.dirs.Unlink(path)
}

// Create makes a new, empty regular file at path.
func (fs *FileSystem) Create(path string) error {
	return fs.dirs.Create(path)
}

// Read copies up to n bytes from path starting at off.
func (fs *FileSystem) Read(path string, off int64, n int) ([]byte, error) {
	return fs.files.Read(path, off, n)
}

// Write copies buf into path starting at off, returning the number of bytes
// actually written. A short write caused by running out of space is
// reported as a byte count, not an error.
func (fs *FileSystem) Write(path string, buf []byte, off int64) (int, error) {
	return fs.files.Write(path, buf, off)
}

// Truncate grows or shrinks path to exactly size bytes.
func (fs *FileSystem) Truncate(path string, size int64) error {
	return fs.files.Truncate(path, size)
}

// Statfs returns a read-only, freshly rebuilt diagnostic snapshot of the
// block table's free/used state. It is not part of spec.md's Core API but
// is exposed for cmd/sfsutil's `stat --bitmap`.
func (fs *FileSystem) Statfs() (attr.Snapshot, error) {
	return fs.attrs.Statfs()
}
