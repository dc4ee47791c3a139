package collections

import (
	"fmt"
	"iter"

	"github.com/mvaleed/slotvec/internal/lazy"
	"github.com/mvaleed/slotvec/internal/storage"
)

// SmallVec is a vector with a fixed capacity N. It occupies one slot for the
// length followed by the N element footprints of its backing array.
//
// Pushing onto a full SmallVec fails with ErrCapacityExceeded and leaves it
// unchanged.
type SmallVec[T any, P lazy.Element[T], N lazy.Capacity] struct {
	len   uint32
	elems lazy.Array[T, P, N]
	gen   uint64
}

func NewSmallVec[T any, P lazy.Element[T], N lazy.Capacity]() *SmallVec[T, P, N] {
	return &SmallVec[T, P, N]{}
}

// SmallVecFromSeq builds a vector holding the values of seq in order. It
// fails with ErrCapacityExceeded when seq yields more than N values.
func SmallVecFromSeq[T any, P lazy.Element[T], N lazy.Capacity](seq iter.Seq[T]) (*SmallVec[T, P, N], error) {
	v := NewSmallVec[T, P, N]()
	if err := v.Extend(seq); err != nil {
		return nil, err
	}
	return v, nil
}

// SmallVecFootprint returns the footprint of a SmallVec[T, P, N] from its
// type alone.
func SmallVecFootprint[T any, P lazy.Element[T], N lazy.Capacity]() uint64 {
	return lazy.ArrayFootprint[T, P, N]() + 1
}

func (v *SmallVec[T, P, N]) Len() uint32 {
	return v.len
}

func (v *SmallVec[T, P, N]) IsEmpty() bool {
	return v.len == 0
}

func (v *SmallVec[T, P, N]) Capacity() uint32 {
	return lazy.CapOf[N]()
}

func (v *SmallVec[T, P, N]) generation() uint64 {
	return v.gen
}

// Get returns the element at index. The bool is false when index >= Len.
func (v *SmallVec[T, P, N]) Get(index uint32) (*T, bool, error) {
	if index >= v.len {
		return nil, false, nil
	}
	elem, err := v.elems.Get(index)
	if err != nil {
		return nil, false, fmt.Errorf("smallvec get %d: %w", index, err)
	}
	return elem, true, nil
}

// GetMut returns the element at index for modification. The bool is false
// when index >= Len. It invalidates open iterators.
func (v *SmallVec[T, P, N]) GetMut(index uint32) (*T, bool, error) {
	v.gen++
	return v.getMutAt(index)
}

func (v *SmallVec[T, P, N]) getMutAt(index uint32) (*T, bool, error) {
	if index >= v.len {
		return nil, false, nil
	}
	elem, err := v.elems.GetMut(index)
	if err != nil {
		return nil, false, fmt.Errorf("smallvec get_mut %d: %w", index, err)
	}
	return elem, true, nil
}

// At is Get for an index known to be in range. It panics otherwise.
func (v *SmallVec[T, P, N]) At(index uint32) *T {
	elem, ok, err := v.Get(index)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(indexOutOfBounds)
	}
	return elem
}

// AtMut is GetMut for an index known to be in range. It panics otherwise.
func (v *SmallVec[T, P, N]) AtMut(index uint32) *T {
	elem, ok, err := v.GetMut(index)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(indexOutOfBounds)
	}
	return elem
}

func (v *SmallVec[T, P, N]) Push(value T) error {
	if v.len >= v.Capacity() {
		return fmt.Errorf("%w: capacity %d", ErrCapacityExceeded, v.Capacity())
	}
	if err := v.elems.Put(v.len, value); err != nil {
		return err
	}
	v.len++
	v.gen++
	return nil
}

// Pop removes and returns the last element. The bool is false when the vector
// is empty.
func (v *SmallVec[T, P, N]) Pop() (T, bool, error) {
	var zero T
	if v.len == 0 {
		return zero, false, nil
	}
	elem, err := v.elems.Take(v.len - 1)
	if err != nil {
		return zero, false, fmt.Errorf("smallvec pop %d: %w", v.len-1, err)
	}
	v.len--
	v.gen++
	return *elem, true, nil
}

// Extend pushes every value of seq in order, stopping at the first failure.
// Values pushed before the failure stay in the vector.
func (v *SmallVec[T, P, N]) Extend(seq iter.Seq[T]) error {
	for value := range seq {
		if err := v.Push(value); err != nil {
			return err
		}
	}
	return nil
}

func (v *SmallVec[T, P, N]) Iter() *Iter[T] {
	return newIter[T](v)
}

// IterMut takes exclusive access to the vector and returns an iterator over
// mutable references to the elements.
func (v *SmallVec[T, P, N]) IterMut() *IterMut[T] {
	v.gen++
	return newIterMut[T](v)
}

func (v *SmallVec[T, P, N]) Dirty() int {
	return v.elems.Dirty()
}

func (v *SmallVec[T, P, N]) Footprint() uint64 {
	return SmallVecFootprint[T, P, N]()
}

// PullForward reads the length at the cursor and binds the backing array to
// the region after it. No element is read. The cursor moves past the whole
// footprint even when the length cannot be used.
func (v *SmallVec[T, P, N]) PullForward(c *storage.Cursor) error {
	var n lazy.Packed[uint32]
	if err := n.PullForward(c); err != nil {
		c.Next(lazy.ArrayFootprint[T, P, N]())
		return fmt.Errorf("smallvec length: %w", err)
	}
	if n.Value > v.Capacity() {
		c.Next(lazy.ArrayFootprint[T, P, N]())
		return fmt.Errorf("%w: length %d, capacity %d", ErrCorruptLength, n.Value, v.Capacity())
	}
	if err := v.elems.PullForward(c); err != nil {
		return err
	}
	v.len = n.Value
	v.gen++
	return nil
}

func (v *SmallVec[T, P, N]) PushForward(c *storage.Cursor) error {
	n := lazy.Pack(v.len)
	if err := n.PushForward(c); err != nil {
		return fmt.Errorf("smallvec length: %w", err)
	}
	return v.elems.PushForward(c)
}

// Saturate resets the vector to an empty one.
func (v *SmallVec[T, P, N]) Saturate() {
	v.len = 0
	v.elems.Saturate()
	v.gen++
}
