package storage

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	hintMagic = "SVHINT01"

	// Magic(8) + StoreID(16) + Segment(4) + Covered(8) = 36 bytes
	hintHeaderWidth = len(hintMagic) + 16 + 4 + 8

	segWidth       = 4
	posWidth       = 8
	payloadWidth   = 8
	timestampWidth = 8
	hintEntryWidth = KeyWidth + segWidth + posWidth + payloadWidth + timestampWidth // Total: 60 bytes
	hintSegStart   = KeyWidth
	hintPosStart   = hintSegStart + segWidth
	hintSizeStart  = hintPosStart + posWidth
	hintTsStart    = hintSizeStart + payloadWidth
)

// hintHeader says which store the hint belongs to and how far into the log
// it is complete: every segment before Segment entirely, and Segment up to
// Covered bytes.
type hintHeader struct {
	StoreID uuid.UUID
	Segment uint32
	Covered uint64
}

func (h hintHeader) Marshal(dst []byte) {
	copy(dst[0:len(hintMagic)], hintMagic)
	off := len(hintMagic)
	copy(dst[off:off+16], h.StoreID[:])
	off += 16
	binary.BigEndian.PutUint32(dst[off:off+4], h.Segment)
	off += 4
	binary.BigEndian.PutUint64(dst[off:off+8], h.Covered)
}

// Unmarshal reports false when src does not start with the hint magic.
func (h *hintHeader) Unmarshal(src []byte) bool {
	if string(src[0:len(hintMagic)]) != hintMagic {
		return false
	}
	off := len(hintMagic)
	copy(h.StoreID[:], src[off:off+16])
	off += 16
	h.Segment = binary.BigEndian.Uint32(src[off : off+4])
	off += 4
	h.Covered = binary.BigEndian.Uint64(src[off : off+8])
	return true
}

// hintEntry is a keydir entry as persisted in the hint file.
type hintEntry struct {
	Key         Key
	Segment     uint32
	Pos         uint64
	PayloadSize uint64
	Timestamp   uint64
}

// Marshal writes an entry into a byte slice.
// This ensures the writer writes exactly what the reader expects.
func (e hintEntry) Marshal(dst []byte) {
	copy(dst[0:KeyWidth], e.Key[:])
	binary.BigEndian.PutUint32(dst[hintSegStart:hintPosStart], e.Segment)
	binary.BigEndian.PutUint64(dst[hintPosStart:hintSizeStart], e.Pos)
	binary.BigEndian.PutUint64(dst[hintSizeStart:hintTsStart], e.PayloadSize)
	binary.BigEndian.PutUint64(dst[hintTsStart:hintEntryWidth], e.Timestamp)
}

// Unmarshal reads an entry from a byte slice.
// Note: no bounds checking here; the caller must check.
func (e *hintEntry) Unmarshal(src []byte) {
	copy(e.Key[:], src[0:KeyWidth])
	e.Segment = binary.BigEndian.Uint32(src[hintSegStart:hintPosStart])
	e.Pos = binary.BigEndian.Uint64(src[hintPosStart:hintSizeStart])
	e.PayloadSize = binary.BigEndian.Uint64(src[hintSizeStart:hintTsStart])
	e.Timestamp = binary.BigEndian.Uint64(src[hintTsStart:hintEntryWidth])
}
