package lazy

import (
	"fmt"

	"github.com/mvaleed/slotvec/internal/storage"
)

// Array is a fixed capacity array whose elements are resolved from the store
// one at a time, on first access. It occupies N.Cap() element footprints of
// consecutive slots.
type Array[T any, P Element[T], N Capacity] struct {
	slots slotCache[T, P]
}

// ArrayFootprint returns the footprint of an Array[T, P, N].
func ArrayFootprint[T any, P Element[T], N Capacity]() uint64 {
	return uint64(CapOf[N]()) * FootprintOf[T, P]()
}

func (a *Array[T, P, N]) Capacity() uint32 {
	return CapOf[N]()
}

func (a *Array[T, P, N]) check(i uint32) error {
	if i >= a.Capacity() {
		return fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, i, a.Capacity())
	}
	return nil
}

// Get returns element i, reading it from the store if it is not cached yet.
func (a *Array[T, P, N]) Get(i uint32) (*T, error) {
	if err := a.check(i); err != nil {
		return nil, err
	}
	return a.slots.get(i)
}

// GetMut returns element i for modification. It will be written on the next
// push; a never stored element is saturated first.
func (a *Array[T, P, N]) GetMut(i uint32) (*T, error) {
	if err := a.check(i); err != nil {
		return nil, err
	}
	return a.slots.getMut(i)
}

func (a *Array[T, P, N]) Put(i uint32, v T) error {
	if err := a.check(i); err != nil {
		return err
	}
	a.slots.put(i, v)
	return nil
}

// Take returns element i and empties its slot.
func (a *Array[T, P, N]) Take(i uint32) (*T, error) {
	if err := a.check(i); err != nil {
		return nil, err
	}
	return a.slots.take(i)
}

// Dirty returns how many elements the next push will touch.
func (a *Array[T, P, N]) Dirty() int {
	return a.slots.dirty()
}

func (a *Array[T, P, N]) Footprint() uint64 {
	return ArrayFootprint[T, P, N]()
}

// PullForward binds the array to the region at the cursor. No element is read.
func (a *Array[T, P, N]) PullForward(c *storage.Cursor) error {
	a.slots.bind(c.Store(), c.Next(a.Footprint()))
	return nil
}

// PushForward writes the modified elements into the region at the cursor.
func (a *Array[T, P, N]) PushForward(c *storage.Cursor) error {
	return a.slots.flush(c.Store(), c.Next(a.Footprint()))
}

func (a *Array[T, P, N]) Saturate() {
	a.slots.reset()
}
