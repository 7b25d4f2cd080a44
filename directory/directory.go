// Package directory implements directory slot management and path
// resolution: everything spec.md's "Directory manager" layer owns, composed
// from single-directory lookups the way drivers/common/basedriver/driver.go
// composes ObjectHandle lookups into full path resolution.
package directory

import (
	"strings"

	"github.com/sfs-go/sfs/blocktable"
	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/layout"
	"github.com/sfs-go/sfs/sfserr"
)

// Region addresses one directory's fixed slot array: either the root
// region, or a non-root directory's first block.
type Region struct {
	Offset int64
	Slots  int
}

// RootRegion is the fixed (offset, slot count) pair describing the root
// directory.
var RootRegion = Region{Offset: layout.RootDirOffset, Slots: layout.RootDirEntries}

func regionForBlock(head layout.BlockID) Region {
	return Region{
		Offset: layout.DataOffset + int64(head)*layout.BlockSize,
		Slots:  layout.DirEntries,
	}
}

// Manager owns directory slot tables and path resolution.
type Manager struct {
	dev    disk.Device
	blocks *blocktable.Manager
}

// New returns a Manager operating against dev, allocating and freeing blocks
// through blocks.
func New(dev disk.Device, blocks *blocktable.Manager) *Manager {
	return &Manager{dev: dev, blocks: blocks}
}

func (m *Manager) slotOffset(region Region, index int) int64 {
	return region.Offset + int64(index)*layout.EntrySize
}

func (m *Manager) readSlot(region Region, index int) (layout.Entry, error) {
	buf := make([]byte, layout.EntrySize)
	if err := m.dev.ReadAt(buf, m.slotOffset(region, index)); err != nil {
		return layout.Entry{}, err
	}
	return layout.DecodeEntry(buf), nil
}

// LookupInDir linearly scans region for a slot whose filename equals name,
// returning the entry and its absolute on-disk offset. Names are unique
// within a directory by invariant, so the first match is the only match.
func (m *Manager) LookupInDir(region Region, name string) (layout.Entry, int64, error) {
	for i := 0; i < region.Slots; i++ {
		entry, err := m.readSlot(region, i)
		if err != nil {
			return layout.Entry{}, 0, err
		}
		if !entry.IsFree() && entry.Filename == name {
			return entry, m.slotOffset(region, i), nil
		}
	}
	return layout.Entry{}, 0, sfserr.NotFound
}

// FindFreeSlot linearly scans region for the first slot with no filename
// installed, returning its absolute on-disk offset.
func (m *Manager) FindFreeSlot(region Region) (int64, error) {
	for i := 0; i < region.Slots; i++ {
		entry, err := m.readSlot(region, i)
		if err != nil {
			return 0, err
		}
		if entry.IsFree() {
			return m.slotOffset(region, i), nil
		}
	}
	return 0, sfserr.NoSpace
}

// IsEmpty reports whether every slot in region has no filename installed.
func (m *Manager) IsEmpty(region Region) (bool, error) {
	for i := 0; i < region.Slots; i++ {
		entry, err := m.readSlot(region, i)
		if err != nil {
			return false, err
		}
		if !entry.IsFree() {
			return false, nil
		}
	}
	return true, nil
}

// InstallEntry writes entry at the given absolute on-disk offset.
func (m *Manager) InstallEntry(offset int64, entry layout.Entry) error {
	return m.dev.WriteAt(entry.Encode(), offset)
}

// ClearEntry writes a zeroed, free entry at the given absolute on-disk
// offset.
func (m *Manager) ClearEntry(offset int64) error {
	return m.InstallEntry(offset, layout.FreeEntry)
}

// ListNames returns the non-empty filenames in region, in slot order.
func (m *Manager) ListNames(region Region) ([]string, error) {
	var names []string
	for i := 0; i < region.Slots; i++ {
		entry, err := m.readSlot(region, i)
		if err != nil {
			return nil, err
		}
		if !entry.IsFree() {
			names = append(names, entry.Filename)
		}
	}
	return names, nil
}

// splitComponents breaks an absolute path into its non-empty, '/'-separated
// components. Empty paths, nil-equivalent inputs, and inputs producing zero
// components all signal the caller to fail NotFound, except "/" itself,
// which the caller handles before calling this.
func splitComponents(path string) []string {
	parts := strings.Split(path, "/")
	components := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			components = append(components, p)
		}
	}
	return components
}

// Resolve walks path from the root directory downward, returning the
// resolved entry and its absolute on-disk slot offset.
func (m *Manager) Resolve(path string) (layout.Entry, int64, error) {
	if path == "" {
		return layout.Entry{}, 0, sfserr.NotFound
	}
	if path == "/" {
		return layout.Entry{Size: layout.DirectoryFlag}, layout.RootDirOffset, nil
	}

	components := splitComponents(path)
	if len(components) == 0 {
		return layout.Entry{}, 0, sfserr.NotFound
	}

	region := RootRegion
	var entry layout.Entry
	var offset int64
	var err error

	for i, component := range components {
		entry, offset, err = m.LookupInDir(region, component)
		if err != nil {
			return layout.Entry{}, 0, err
		}

		if i != len(components)-1 {
			if !entry.IsDir() {
				return layout.Entry{}, 0, sfserr.NotDirectory
			}
			region = regionForBlock(entry.FirstBlock)
		}
	}

	return entry, offset, nil
}

// regionFor returns the Region a resolved directory entry's slot array
// lives in: the root region for "/", otherwise the entry's own first block.
func regionFor(path string, entry layout.Entry) Region {
	if path == "/" {
		return RootRegion
	}
	return regionForBlock(entry.FirstBlock)
}

// parentPath splits path into its parent directory path and final
// component. The parent of a top-level entry is "/".
func parentPath(path string) (parent string, name string) {
	idx := strings.LastIndex(path, "/")
	name = path[idx+1:]
	parent = path[:idx]
	if parent == "" {
		parent = "/"
	}
	return parent, name
}

func (m *Manager) resolveParentRegion(path string) (Region, string, error) {
	parent, name := parentPath(path)
	parentEntry, _, err := m.Resolve(parent)
	if err != nil {
		return Region{}, "", err
	}
	if !parentEntry.IsDir() {
		return Region{}, "", sfserr.NotDirectory
	}
	return regionFor(parent, parentEntry), name, nil
}

// Mkdir creates a new, empty subdirectory at path.
func (m *Manager) Mkdir(path string) error {
	_, name, err := m.checkCreatable(path)
	if err != nil {
		return err
	}

	parentRegion, _, err := m.resolveParentRegion(path)
	if err != nil {
		return err
	}

	first, err := m.blocks.AllocateOne()
	if err != nil {
		return sfserr.NoSpace
	}
	// Reserve `first` against a second identical scan by provisionally
	// marking it as a chain tail; if the second allocation fails we restore
	// it to BlockEmpty so no caller observes a half-built chain.
	if err := m.blocks.Terminate(first); err != nil {
		return err
	}
	second, err := m.blocks.AllocateOne()
	if err != nil {
		if freeErr := m.blocks.FreeChain(first); freeErr != nil {
			return freeErr
		}
		return sfserr.NoSpace
	}

	if err := m.blocks.Link(first, second); err != nil {
		return err
	}
	if err := m.blocks.Terminate(second); err != nil {
		return err
	}

	newRegion := regionForBlock(first)
	for i := 0; i < newRegion.Slots; i++ {
		if err := m.ClearEntry(m.slotOffset(newRegion, i)); err != nil {
			return err
		}
	}

	freeSlot, err := m.FindFreeSlot(parentRegion)
	if err != nil {
		return sfserr.NoSpace
	}
	return m.InstallEntry(freeSlot, layout.NewDirEntry(name, first))
}

// Rmdir removes an empty subdirectory at path.
func (m *Manager) Rmdir(path string) error {
	if path == "/" {
		return sfserr.Busy
	}

	entry, offset, err := m.Resolve(path)
	if err != nil {
		return err
	}
	if !entry.IsDir() {
		return sfserr.NotDirectory
	}

	region := regionForBlock(entry.FirstBlock)
	empty, err := m.IsEmpty(region)
	if err != nil {
		return err
	}
	if !empty {
		return sfserr.NotEmpty
	}

	if err := m.blocks.FreeChain(entry.FirstBlock); err != nil {
		return err
	}
	return m.ClearEntry(offset)
}

// Create makes a new, empty regular file entry at path.
func (m *Manager) Create(path string) error {
	_, name, err := m.checkCreatable(path)
	if err != nil {
		return err
	}

	parentRegion, _, err := m.resolveParentRegion(path)
	if err != nil {
		return err
	}

	freeSlot, err := m.FindFreeSlot(parentRegion)
	if err != nil {
		return sfserr.NoSpace
	}
	return m.InstallEntry(freeSlot, layout.NewFileEntry(name, layout.BlockEnd, 0))
}

// Unlink removes a regular file at path, freeing its block chain.
func (m *Manager) Unlink(path string) error {
	entry, offset, err := m.Resolve(path)
	if err != nil {
		return err
	}
	if entry.IsDir() {
		return sfserr.IsDirectory
	}

	if err := m.blocks.FreeChain(entry.FirstBlock); err != nil {
		return err
	}
	return m.ClearEntry(offset)
}

// ReadDir lists the names in the directory at path, including "." and ".."
// ahead of the real entries, the way sfs_readdir unconditionally fillers
// those two names before walking the directory's slots.
func (m *Manager) ReadDir(path string) ([]string, error) {
	entry, _, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}
	if !entry.IsDir() {
		return nil, sfserr.NotDirectory
	}

	names, err := m.ListNames(regionFor(path, entry))
	if err != nil {
		return nil, err
	}
	return append([]string{".", ".."}, names...), nil
}

// checkCreatable validates the final component's length and confirms path
// does not already resolve, returning the final component name.
func (m *Manager) checkCreatable(path string) (layout.Entry, string, error) {
	_, name := parentPath(path)
	if len(name) > layout.FilenameMax-1 {
		return layout.Entry{}, "", sfserr.NameTooLong
	}

	if _, _, err := m.Resolve(path); err == nil {
		return layout.Entry{}, "", sfserr.Exists
	}

	return layout.Entry{}, name, nil
}
