// Package blocktable implements the block allocation/chain layer: the
// free/used/end-of-chain state of every data block, read fresh from the
// device on every call. There is no in-memory cache of allocation state,
// matching spec.md's single-writer, no-cache concurrency model; two
// interleaved allocations without external serialization can still race,
// since AllocateOne does not mark the block it returns as used.
package blocktable

import (
	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/layout"
	"github.com/sfs-go/sfs/sfserr"
)

// Manager owns the block table region of an image. It is grounded on
// drivers/common/blockmanager.go's Allocator, but unlike that type it does
// not layer a bitmap over the table: the table itself, read fresh from the
// device, is the single source of truth for free/used/chain state.
type Manager struct {
	dev disk.Device
}

// New returns a Manager operating on the block table region of dev.
func New(dev disk.Device) *Manager {
	return &Manager{dev: dev}
}

func slotOffset(b layout.BlockID) int64 {
	return layout.BlockTableOffset + int64(b)*4
}

func (m *Manager) readSlot(b layout.BlockID) (layout.BlockID, error) {
	buf := make([]byte, 4)
	if err := m.dev.ReadAt(buf, slotOffset(b)); err != nil {
		return 0, err
	}
	return layout.DecodeBlockID(buf), nil
}

func (m *Manager) writeSlot(b layout.BlockID, value layout.BlockID) error {
	return m.dev.WriteAt(layout.EncodeBlockID(value), slotOffset(b))
}

// AllocateOne scans the block table from index 0 and returns the first free
// (BlockEmpty) index. It does not mutate the table: callers are responsible
// for setting the newly allocated slot, since whether it becomes a new tail,
// an interior link, or a head varies by caller.
func (m *Manager) AllocateOne() (layout.BlockID, error) {
	for i := layout.BlockID(0); i < layout.BlockTableEntries; i++ {
		slot, err := m.readSlot(i)
		if err != nil {
			return 0, err
		}
		if slot == layout.BlockEmpty {
			return i, nil
		}
	}
	return 0, sfserr.NoSpace
}

// WalkChain returns every block index in the chain starting at head, in
// order, not including the terminating BlockEnd. A chain starting at
// BlockEnd yields no blocks.
func (m *Manager) WalkChain(head layout.BlockID) ([]layout.BlockID, error) {
	var blocks []layout.BlockID
	current := head
	for current != layout.BlockEnd && current != layout.BlockEmpty {
		blocks = append(blocks, current)
		next, err := m.readSlot(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return blocks, nil
}

// CountChainLength returns the number of blocks in the chain starting at
// head, without allocating a slice for them.
func (m *Manager) CountChainLength(head layout.BlockID) (int, error) {
	count := 0
	current := head
	for current != layout.BlockEnd && current != layout.BlockEmpty {
		next, err := m.readSlot(current)
		if err != nil {
			return 0, err
		}
		count++
		current = next
	}
	return count, nil
}

// FreeChain walks the chain starting at head, resetting every block it
// visits to BlockEmpty. It tolerates head == BlockEnd or head == BlockEmpty
// as a no-op, and never recurses.
func (m *Manager) FreeChain(head layout.BlockID) error {
	current := head
	for current != layout.BlockEnd && current != layout.BlockEmpty {
		next, err := m.readSlot(current)
		if err != nil {
			return err
		}
		if err := m.writeSlot(current, layout.BlockEmpty); err != nil {
			return err
		}
		current = next
	}
	return nil
}

// Link writes b into a's slot, appending b as a's successor.
func (m *Manager) Link(a, b layout.BlockID) error {
	return m.writeSlot(a, b)
}

// Terminate marks b as a chain tail.
func (m *Manager) Terminate(b layout.BlockID) error {
	return m.writeSlot(b, layout.BlockEnd)
}

// IsFree reports whether block b's table slot is currently BlockEmpty.
func (m *Manager) IsFree(b layout.BlockID) (bool, error) {
	slot, err := m.readSlot(b)
	if err != nil {
		return false, err
	}
	return slot == layout.BlockEmpty, nil
}

// FreeBlocks returns the number of blocks currently marked BlockEmpty.
func (m *Manager) FreeBlocks() (int, error) {
	count := 0
	for i := layout.BlockID(0); i < layout.BlockTableEntries; i++ {
		slot, err := m.readSlot(i)
		if err != nil {
			return 0, err
		}
		if slot == layout.BlockEmpty {
			count++
		}
	}
	return count, nil
}

// ZeroBlock overwrites the entire contents of data block b with null bytes.
// Used by the file I/O engine's truncate-grow path, which zero-fills newly
// linked blocks.
func (m *Manager) ZeroBlock(b layout.BlockID) error {
	zeros := make([]byte, layout.BlockSize)
	return m.dev.WriteAt(zeros, layout.DataOffset+int64(b)*layout.BlockSize)
}
