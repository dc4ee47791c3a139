package storage

import (
	"bytes"
	"sync"
)

// MemStore keeps every slot in a map. Values are copied on the way in and out
// so callers cannot alias stored bytes.
type MemStore struct {
	mu    sync.RWMutex
	slots map[Key][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{slots: make(map[Key][]byte)}
}

func (m *MemStore) Get(key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.slots[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

func (m *MemStore) Set(key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value == nil {
		value = []byte{}
	}
	m.slots[key] = bytes.Clone(value)
	return nil
}

func (m *MemStore) Clear(key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
	return nil
}

// Len returns the number of occupied slots.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}

var _ Store = (*MemStore)(nil)
