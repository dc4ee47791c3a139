package lazy

import (
	"github.com/mvaleed/slotvec/internal/storage"
)

// IndexMap is an unbounded index to element mapping resolved lazily like
// Array. It occupies a single handle slot; the elements are laid out from the
// key derived from that handle, so they cannot collide with neighbouring
// fields however many there are.
type IndexMap[T any, P Element[T]] struct {
	slots slotCache[T, P]
}

func (m *IndexMap[T, P]) Get(i uint32) (*T, error) {
	return m.slots.get(i)
}

func (m *IndexMap[T, P]) GetMut(i uint32) (*T, error) {
	return m.slots.getMut(i)
}

func (m *IndexMap[T, P]) Put(i uint32, v T) {
	m.slots.put(i, v)
}

func (m *IndexMap[T, P]) Take(i uint32) (*T, error) {
	return m.slots.take(i)
}

func (m *IndexMap[T, P]) Dirty() int {
	return m.slots.dirty()
}

func (m *IndexMap[T, P]) Footprint() uint64 {
	return 1
}

func (m *IndexMap[T, P]) PullForward(c *storage.Cursor) error {
	m.slots.bind(c.Store(), storage.DeriveKey(c.Next(1)))
	return nil
}

func (m *IndexMap[T, P]) PushForward(c *storage.Cursor) error {
	return m.slots.flush(c.Store(), storage.DeriveKey(c.Next(1)))
}

func (m *IndexMap[T, P]) Saturate() {
	m.slots.reset()
}
