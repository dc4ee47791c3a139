package lazy

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mvaleed/slotvec/internal/storage"
)

type entryState uint8

const (
	// entryLoaded mirrors what the store holds.
	entryLoaded entryState = iota
	// entryDirty holds a value that must be written on the next push.
	entryDirty
	// entryRemoved marks a slot that must be cleared on the next push.
	entryRemoved
)

type entry[T any] struct {
	value *T
	state entryState
}

// slotCache resolves the elements of a contiguous element region one at a
// time and remembers what happened to each of them since the region was
// pulled. Element i lives at base + i*footprint(T).
//
// The zero value is an unbound, empty cache: every element is resolved from
// the cache alone until bind attaches a store region.
type slotCache[T any, P Element[T]] struct {
	store   storage.Store
	base    storage.Key
	entries map[uint32]*entry[T]
	fp      uint64
}

func (s *slotCache[T, P]) footprint() uint64 {
	if s.fp == 0 {
		s.fp = FootprintOf[T, P]()
	}
	return s.fp
}

func (s *slotCache[T, P]) keyAt(i uint32) storage.Key {
	return s.base.Add(uint64(i) * s.footprint())
}

// bind attaches the cache to a store region and drops every cached entry.
func (s *slotCache[T, P]) bind(store storage.Store, base storage.Key) {
	s.store = store
	s.base = base
	s.entries = nil
}

func (s *slotCache[T, P]) reset() {
	s.bind(nil, storage.Key{})
}

func (s *slotCache[T, P]) set(i uint32, e *entry[T]) {
	if s.entries == nil {
		s.entries = make(map[uint32]*entry[T])
	}
	s.entries[i] = e
}

// load pulls element i from the store. A nil value without error means the
// element was never stored.
func (s *slotCache[T, P]) load(i uint32) (*T, error) {
	if s.store == nil {
		return nil, nil
	}
	v := new(T)
	err := P(v).PullForward(storage.NewCursor(s.store, s.keyAt(i)))
	if errors.Is(err, storage.ErrSlotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load entry %d: %w", i, err)
	}
	return v, nil
}

func (s *slotCache[T, P]) get(i uint32) (*T, error) {
	if e, ok := s.entries[i]; ok {
		if e.state == entryRemoved {
			return nil, ErrEntryNotFound
		}
		return e.value, nil
	}

	v, err := s.load(i)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrEntryNotFound
	}
	s.set(i, &entry[T]{value: v, state: entryLoaded})
	return v, nil
}

// getMut is get for a caller that may modify the element: the entry becomes
// dirty, and an element that was never stored is saturated.
func (s *slotCache[T, P]) getMut(i uint32) (*T, error) {
	if e, ok := s.entries[i]; ok {
		if e.state == entryRemoved {
			e.value = Saturated[T, P]()
		}
		e.state = entryDirty
		return e.value, nil
	}

	v, err := s.load(i)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = Saturated[T, P]()
	}
	s.set(i, &entry[T]{value: v, state: entryDirty})
	return v, nil
}

func (s *slotCache[T, P]) put(i uint32, v T) {
	s.set(i, &entry[T]{value: &v, state: entryDirty})
}

// take returns element i and marks its slot for clearing.
func (s *slotCache[T, P]) take(i uint32) (*T, error) {
	v, err := s.get(i)
	if err != nil {
		return nil, err
	}
	s.set(i, &entry[T]{state: entryRemoved})
	return v, nil
}

// flush writes dirty entries and clears removed ones in the region starting
// at base. Entries that were only read are not written.
func (s *slotCache[T, P]) flush(store storage.Store, base storage.Key) error {
	fp := s.footprint()
	for _, i := range slices.Sorted(maps.Keys(s.entries)) {
		e := s.entries[i]
		c := storage.NewCursor(store, base.Add(uint64(i)*fp))
		switch e.state {
		case entryDirty:
			if err := P(e.value).PushForward(c); err != nil {
				return fmt.Errorf("push entry %d: %w", i, err)
			}
		case entryRemoved:
			for range fp {
				if err := c.Clear(); err != nil {
					return fmt.Errorf("clear entry %d: %w", i, err)
				}
			}
		}
	}
	return nil
}

// dirty returns the number of entries the next flush will write or clear.
func (s *slotCache[T, P]) dirty() int {
	n := 0
	for _, e := range s.entries {
		if e.state != entryLoaded {
			n++
		}
	}
	return n
}
