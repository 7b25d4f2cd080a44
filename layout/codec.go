package layout

import (
	"bytes"
	"encoding/binary"
)

// nativeOrder is the format's declared byte order: the host platform's own,
// since the format is intentionally platform-local rather than fixed to a
// particular endianness.
var nativeOrder = binary.NativeEndian

// EntrySize is the packed, on-disk size of one directory entry.
const EntrySize = direntSize

// Encode packs e into its on-disk representation.
func (e Entry) Encode() []byte {
	buf := make([]byte, EntrySize)
	copy(buf[:FilenameMax], e.Filename)
	nativeOrder.PutUint32(buf[FilenameMax:FilenameMax+4], uint32(e.FirstBlock))
	nativeOrder.PutUint32(buf[FilenameMax+4:FilenameMax+8], e.Size)
	return buf
}

// DecodeEntry unpacks a directory entry from its on-disk representation. buf
// must be exactly EntrySize bytes.
func DecodeEntry(buf []byte) Entry {
	name := buf[:FilenameMax]
	if nul := bytes.IndexByte(name, 0); nul >= 0 {
		name = name[:nul]
	}
	return Entry{
		Filename:   string(name),
		FirstBlock: BlockID(nativeOrder.Uint32(buf[FilenameMax : FilenameMax+4])),
		Size:       nativeOrder.Uint32(buf[FilenameMax+4 : FilenameMax+8]),
	}
}

// EncodeBlockID packs a block table slot value.
func EncodeBlockID(id BlockID) []byte {
	buf := make([]byte, blockTableEntrySize)
	nativeOrder.PutUint32(buf, uint32(id))
	return buf
}

// DecodeBlockID unpacks a block table slot value. buf must be exactly
// blockTableEntrySize bytes.
func DecodeBlockID(buf []byte) BlockID {
	return BlockID(nativeOrder.Uint32(buf))
}
