package storage

import (
	"encoding/binary"
)

const (
	// Key(32) + Size(8) + Timestamp(8) + Flags(8) = 56 bytes
	HeaderSize = KeyWidth + 24

	sizeStart  = KeyWidth
	tsStart    = sizeStart + 8
	flagsStart = tsStart + 8
)

const (
	// FlagTombstone marks a record that clears its slot.
	FlagTombstone uint64 = 1 << iota
)

type RecordHeader struct {
	Key         Key
	PayloadSize uint64
	Timestamp   uint64
	Flags       uint64
}

// Record is one write to a slot as it sits in a segment.
type Record struct {
	Header  RecordHeader
	Payload []byte
}

func (h *RecordHeader) Tombstone() bool {
	return h.Flags&FlagTombstone != 0
}

// Encode uses stack allocation for speed
func (h *RecordHeader) Encode(dst []byte) {
	copy(dst[0:KeyWidth], h.Key[:])
	binary.BigEndian.PutUint64(dst[sizeStart:tsStart], h.PayloadSize)
	binary.BigEndian.PutUint64(dst[tsStart:flagsStart], h.Timestamp)
	binary.BigEndian.PutUint64(dst[flagsStart:HeaderSize], h.Flags)
}

func (h *RecordHeader) Decode(src []byte) {
	copy(h.Key[:], src[0:KeyWidth])
	h.PayloadSize = binary.BigEndian.Uint64(src[sizeStart:tsStart])
	h.Timestamp = binary.BigEndian.Uint64(src[tsStart:flagsStart])
	h.Flags = binary.BigEndian.Uint64(src[flagsStart:HeaderSize])
}

// Size is the number of bytes the record occupies in its segment.
func (h *RecordHeader) Size() int64 {
	return HeaderSize + int64(h.PayloadSize)
}
