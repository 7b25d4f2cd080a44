// Package attr implements the attribute mapper: turning a resolved directory
// entry into a stat-like record, and the block table into a diagnostic
// free/used snapshot. Nothing here is persisted; every query is computed
// fresh. Grounded on api.go's FileStat/FSStat, trimmed to the fields this
// format can actually populate.
package attr

import (
	"os"
	"time"

	bitmap "github.com/boljen/go-bitmap"

	"github.com/sfs-go/sfs/blocktable"
	"github.com/sfs-go/sfs/layout"
)

// Stat is a platform-independent stat record for one resolved entry.
type Stat struct {
	ModeFlags  os.FileMode
	Nlink      uint32
	Uid        uint32
	Gid        uint32
	Size       int64
	NumBlocks  int64
	CreatedAt  time.Time
	ModifiedAt time.Time
	AccessedAt time.Time
}

// IsDir reports whether the entry this Stat describes is a directory.
func (s Stat) IsDir() bool {
	return s.ModeFlags.IsDir()
}

// Mapper produces Stat records and block-table snapshots.
type Mapper struct {
	blocks *blocktable.Manager
}

// New returns a Mapper reading block chain lengths through blocks.
func New(blocks *blocktable.Manager) *Mapper {
	return &Mapper{blocks: blocks}
}

// Stat builds a stat-like record for entry. Directories get mode 0755 and
// link count 2; regular files get mode 0644, link count 1, and a size taken
// from the entry's SizeMask payload. Owner and group come from the calling
// process; all three timestamps are set to the current time, since none of
// this is persisted on disk.
func (m *Mapper) Stat(entry layout.Entry) (Stat, error) {
	now := time.Now()
	s := Stat{
		Uid:        uint32(os.Getuid()),
		Gid:        uint32(os.Getgid()),
		CreatedAt:  now,
		ModifiedAt: now,
		AccessedAt: now,
	}

	if entry.IsDir() {
		s.ModeFlags = os.ModeDir | 0755
		s.Nlink = 2
		return s, nil
	}

	s.ModeFlags = 0644
	s.Nlink = 1
	s.Size = int64(entry.FileSize())

	numBlocks, err := m.blocks.CountChainLength(entry.FirstBlock)
	if err != nil {
		return Stat{}, err
	}
	s.NumBlocks = int64(numBlocks)

	return s, nil
}

// Snapshot is a read-only, point-in-time rendering of the block table's
// free/used state as a bitmap. It is rebuilt fresh from the device on every
// call and is never retained, so it can never drift out of sync with the
// table it was built from and is never consulted to make an allocation
// decision.
type Snapshot struct {
	Bitmap bitmap.Bitmap
	Total  int
	Free   int
}

// Statfs rebuilds a diagnostic free/used block bitmap from scratch by
// scanning the entire block table. Intended for `sfsutil stat --bitmap`, not
// for any code path that allocates or frees blocks.
func (m *Mapper) Statfs() (Snapshot, error) {
	bm := bitmap.New(layout.BlockTableEntries)
	free, err := m.blocks.FreeBlocks()
	if err != nil {
		return Snapshot{}, err
	}

	for i := 0; i < layout.BlockTableEntries; i++ {
		isFree, err := m.blocks.IsFree(layout.BlockID(i))
		if err != nil {
			return Snapshot{}, err
		}
		bm.Set(i, !isFree)
	}

	return Snapshot{Bitmap: bm, Total: layout.BlockTableEntries, Free: free}, nil
}
