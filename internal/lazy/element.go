// Package lazy provides the element capability set and the lazily resolved
// backing arrays the collections are built on.
//
// A value lives in the store as a run of consecutive slots. Its footprint is
// the length of that run and is a property of the type, never of the value,
// so the layout of a structure is known before any of it is read.
package lazy

import (
	"errors"

	"github.com/mvaleed/slotvec/internal/storage"
)

var (
	ErrEntryNotFound   = errors.New("no value stored for the entry")
	ErrIndexOutOfRange = errors.New("index is outside the array capacity")
)

// Element is the set of capabilities a type needs to be stored in a lazy
// collection. It is implemented on the pointer type P = *T.
type Element[T any] interface {
	*T

	// Footprint returns the number of slots T occupies. It must not depend
	// on the receiver's value; it is called on zero values.
	Footprint() uint64

	// PullForward reads the value at the cursor and advances it by
	// Footprint slots. A required slot that holds nothing is reported with
	// storage.ErrSlotNotFound.
	PullForward(c *storage.Cursor) error

	// PushForward writes the value at the cursor and advances it by
	// Footprint slots.
	PushForward(c *storage.Cursor) error

	// Saturate resets the receiver to a structurally complete default, used
	// for slots that were never stored.
	Saturate()
}

// FootprintOf returns the footprint of T without needing a value.
func FootprintOf[T any, P Element[T]]() uint64 {
	var zero T
	return P(&zero).Footprint()
}

// Pull reads a T at the cursor.
func Pull[T any, P Element[T]](c *storage.Cursor) (*T, error) {
	v := new(T)
	if err := P(v).PullForward(c); err != nil {
		return nil, err
	}
	return v, nil
}

// Push writes v at the cursor.
func Push[T any, P Element[T]](v *T, c *storage.Cursor) error {
	return P(v).PushForward(c)
}

// Saturated returns a default materialized T.
func Saturated[T any, P Element[T]]() *T {
	v := new(T)
	P(v).Saturate()
	return v
}
