package sfs

import (
	"sync"

	"github.com/sfs-go/sfs/attr"
)

// Locking wraps a FileSystem with a single mutex serializing every
// operation. spec.md §5 assumes a single caller and defines no locking of
// its own; this is an opt-in convenience for hosts that want to share one
// FileSystem across goroutines without building their own serialization.
// The bare FileSystem stays lock-free so callers who already serialize
// access pay nothing for it.
type Locking struct {
	mu sync.Mutex
	fs *FileSystem
}

// NewLocking wraps fs with a mutex.
func NewLocking(fs *FileSystem) *Locking {
	return &Locking{fs: fs}
}

func (l *Locking) Getattr(path string) (attr.Stat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Getattr(path)
}

func (l *Locking) Readdir(path string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Readdir(path)
}

func (l *Locking) Mkdir(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Mkdir(path)
}

func (l *Locking) Rmdir(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Rmdir(path)
}

func (l *Locking) Unlink(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Unlink(path)
}

func (l *Locking) Create(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Create(path)
}

func (l *Locking) Read(path string, off int64, n int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Read(path, off, n)
}

func (l *Locking) Write(path string, buf []byte, off int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Write(path, buf, off)
}

func (l *Locking) Truncate(path string, size int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fs.Truncate(path, size)
}
