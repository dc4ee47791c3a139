package storage

import "sync/atomic"

// MeteredStore counts the I/O that reaches the wrapped store. Reads, writes
// and clears are what a metered backend charges for, so the counters show
// exactly how much work a pull or push pass cost.
type MeteredStore struct {
	inner  Store
	reads  atomic.Uint64
	writes atomic.Uint64
	clears atomic.Uint64
}

func NewMeteredStore(inner Store) *MeteredStore {
	return &MeteredStore{inner: inner}
}

func (m *MeteredStore) Get(key Key) ([]byte, bool, error) {
	m.reads.Add(1)
	return m.inner.Get(key)
}

func (m *MeteredStore) Set(key Key, value []byte) error {
	m.writes.Add(1)
	return m.inner.Set(key, value)
}

func (m *MeteredStore) Clear(key Key) error {
	m.clears.Add(1)
	return m.inner.Clear(key)
}

func (m *MeteredStore) Reads() uint64  { return m.reads.Load() }
func (m *MeteredStore) Writes() uint64 { return m.writes.Load() }
func (m *MeteredStore) Clears() uint64 { return m.clears.Load() }

// Reset zeroes all counters.
func (m *MeteredStore) Reset() {
	m.reads.Store(0)
	m.writes.Store(0)
	m.clears.Store(0)
}

var _ Store = (*MeteredStore)(nil)
