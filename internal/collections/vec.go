// Package collections implements vector containers whose elements live in a
// key-addressed store and are pulled one by one, on first access.
//
// A vector is a length plus a lazily resolved backing array. Pulling a vector
// reads its length only; elements are read when they are accessed, and a push
// writes the length plus the elements that were obtained mutably, pushed or
// popped since the vector was pulled.
//
// Vectors are not safe for concurrent use.
package collections

import (
	"fmt"
	"iter"
	"math"

	"github.com/mvaleed/slotvec/internal/lazy"
	"github.com/mvaleed/slotvec/internal/storage"
)

// Vec is an unbounded vector. It occupies two slots: the length and the
// handle of its element region.
type Vec[T any, P lazy.Element[T]] struct {
	len   uint32
	elems lazy.IndexMap[T, P]
	gen   uint64
}

func NewVec[T any, P lazy.Element[T]]() *Vec[T, P] {
	return &Vec[T, P]{}
}

// VecFromSeq builds a vector holding the values of seq in order.
func VecFromSeq[T any, P lazy.Element[T]](seq iter.Seq[T]) (*Vec[T, P], error) {
	v := NewVec[T, P]()
	if err := v.Extend(seq); err != nil {
		return nil, err
	}
	return v, nil
}

// VecFootprint returns the footprint of a Vec[T, P] without needing one.
func VecFootprint[T any, P lazy.Element[T]]() uint64 {
	return lazy.FootprintOf[lazy.IndexMap[T, P], *lazy.IndexMap[T, P]]() + 1
}

func (v *Vec[T, P]) Len() uint32 {
	return v.len
}

func (v *Vec[T, P]) IsEmpty() bool {
	return v.len == 0
}

func (v *Vec[T, P]) generation() uint64 {
	return v.gen
}

// Get returns the element at index. The bool is false when index >= Len.
func (v *Vec[T, P]) Get(index uint32) (*T, bool, error) {
	if index >= v.len {
		return nil, false, nil
	}
	elem, err := v.elems.Get(index)
	if err != nil {
		return nil, false, fmt.Errorf("vec get %d: %w", index, err)
	}
	return elem, true, nil
}

// GetMut returns the element at index for modification. The bool is false
// when index >= Len. It invalidates open iterators.
func (v *Vec[T, P]) GetMut(index uint32) (*T, bool, error) {
	v.gen++
	return v.getMutAt(index)
}

func (v *Vec[T, P]) getMutAt(index uint32) (*T, bool, error) {
	if index >= v.len {
		return nil, false, nil
	}
	elem, err := v.elems.GetMut(index)
	if err != nil {
		return nil, false, fmt.Errorf("vec get_mut %d: %w", index, err)
	}
	return elem, true, nil
}

// At is Get for an index known to be in range. It panics otherwise.
func (v *Vec[T, P]) At(index uint32) *T {
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
func (v *Vec[T, P]) AtMut(index uint32) *T {
	elem, ok, err := v.GetMut(index)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(indexOutOfBounds)
	}
	return elem
}

// Push appends value. It only fails once the length would overflow uint32.
func (v *Vec[T, P]) Push(value T) error {
	if v.len == math.MaxUint32 {
		return ErrCapacityExceeded
	}
	v.elems.Put(v.len, value)
	v.len++
	v.gen++
	return nil
}

// Pop removes and returns the last element. The bool is false when the vector
// is empty.
func (v *Vec[T, P]) Pop() (T, bool, error) {
	var zero T
	if v.len == 0 {
		return zero, false, nil
	}
	elem, err := v.elems.Take(v.len - 1)
	if err != nil {
		return zero, false, fmt.Errorf("vec pop %d: %w", v.len-1, err)
	}
	v.len--
	v.gen++
	return *elem, true, nil
}

// Extend pushes every value of seq in order, stopping at the first failure.
func (v *Vec[T, P]) Extend(seq iter.Seq[T]) error {
	for value := range seq {
		if err := v.Push(value); err != nil {
			return err
		}
	}
	return nil
}

// Iter returns an iterator over shared references to the elements.
func (v *Vec[T, P]) Iter() *Iter[T] {
	return newIter[T](v)
}

// IterMut takes exclusive access to the vector and returns an iterator over
// mutable references to the elements.
func (v *Vec[T, P]) IterMut() *IterMut[T] {
	v.gen++
	return newIterMut[T](v)
}

// Dirty returns how many elements the next push will write or clear.
func (v *Vec[T, P]) Dirty() int {
	return v.elems.Dirty()
}

func (v *Vec[T, P]) Footprint() uint64 {
	return VecFootprint[T, P]()
}

// PullForward reads the length at the cursor and binds the element region.
// No element is read.
func (v *Vec[T, P]) PullForward(c *storage.Cursor) error {
	var n lazy.Packed[uint32]
	if err := n.PullForward(c); err != nil {
		c.Next(lazy.FootprintOf[lazy.IndexMap[T, P], *lazy.IndexMap[T, P]]())
		return fmt.Errorf("vec length: %w", err)
	}
	if err := v.elems.PullForward(c); err != nil {
		return err
	}
	v.len = n.Value
	v.gen++
	return nil
}

// PushForward writes the length and the modified elements at the cursor.
func (v *Vec[T, P]) PushForward(c *storage.Cursor) error {
	n := lazy.Pack(v.len)
	if err := n.PushForward(c); err != nil {
		return fmt.Errorf("vec length: %w", err)
	}
	return v.elems.PushForward(c)
}

// Saturate resets the vector to an empty one.
func (v *Vec[T, P]) Saturate() {
	v.len = 0
	v.elems.Saturate()
	v.gen++
}
