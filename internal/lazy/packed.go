package lazy

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/mvaleed/slotvec/internal/storage"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Deterministic encoding: equal values always occupy identical bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("lazy: cbor encoding mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("lazy: cbor decoding mode: %v", err))
	}
}

// Packed stores a whole V in a single slot, CBOR encoded.
type Packed[V any] struct {
	Value V
}

func Pack[V any](v V) Packed[V] {
	return Packed[V]{Value: v}
}

func (p *Packed[V]) Footprint() uint64 {
	return 1
}

func (p *Packed[V]) PullForward(c *storage.Cursor) error {
	at := c.Key()
	raw, ok, err := c.Load()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("slot %s: %w", at, storage.ErrSlotNotFound)
	}
	if err := decMode.Unmarshal(raw, &p.Value); err != nil {
		return fmt.Errorf("decode slot %s: %w", at, err)
	}
	return nil
}

func (p *Packed[V]) PushForward(c *storage.Cursor) error {
	raw, err := encMode.Marshal(p.Value)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", c.Key(), err)
	}
	return c.Save(raw)
}

func (p *Packed[V]) Saturate() {
	var zero V
	p.Value = zero
}
