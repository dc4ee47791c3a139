package storage

import "fmt"

// Cursor is a position into a Store. Pulling or pushing a value of footprint F
// moves the cursor forward by exactly F slots, so sibling fields are laid out
// one after the other.
//
// A cursor is owned by a single pull or push pass and is not safe for
// concurrent use.
type Cursor struct {
	store Store
	key   Key
}

func NewCursor(store Store, at Key) *Cursor {
	return &Cursor{store: store, key: at}
}

func (c *Cursor) Store() Store {
	return c.store
}

// Key returns the current position without moving.
func (c *Cursor) Key() Key {
	return c.key
}

// Next returns the current position and advances by footprint slots.
func (c *Cursor) Next(footprint uint64) Key {
	at := c.key
	c.key = c.key.Add(footprint)
	return at
}

// Load reads the slot under the cursor and advances by one.
func (c *Cursor) Load() ([]byte, bool, error) {
	at := c.Next(1)
	value, ok, err := c.store.Get(at)
	if err != nil {
		return nil, false, fmt.Errorf("load slot %s: %w", at, err)
	}
	return value, ok, nil
}

// Save writes the slot under the cursor and advances by one.
func (c *Cursor) Save(value []byte) error {
	at := c.Next(1)
	if err := c.store.Set(at, value); err != nil {
		return fmt.Errorf("save slot %s: %w", at, err)
	}
	return nil
}

// Clear empties the slot under the cursor and advances by one.
func (c *Cursor) Clear() error {
	at := c.Next(1)
	if err := c.store.Clear(at); err != nil {
		return fmt.Errorf("clear slot %s: %w", at, err)
	}
	return nil
}
