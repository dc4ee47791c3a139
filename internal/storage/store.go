package storage

import "errors"

var (
	ErrStoreClosed   = errors.New("store is closed")
	ErrReadOnly      = errors.New("store is opened in read only mode")
	ErrCorruptRecord = errors.New("slot record is corrupt")
	ErrSlotNotFound  = errors.New("slot holds no value")
)

// Store is a key-addressed slot store. Every slot holds an opaque byte value
// or nothing at all.
type Store interface {
	// Get returns the value at key. The bool is false when the slot was never
	// written or has been cleared.
	Get(key Key) ([]byte, bool, error)

	Set(key Key, value []byte) error

	// Clear removes the value at key. Clearing an empty slot is not an error.
	Clear(key Key) error
}
