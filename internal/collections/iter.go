package collections

import (
	"iter"
)

// source is what an iterator walks. generation changes whenever the
// container is mutated or a mutable iterator takes it over.
type source[T any] interface {
	Len() uint32
	Get(index uint32) (*T, bool, error)
	generation() uint64
}

type mutSource[T any] interface {
	source[T]
	// getMutAt is GetMut without taking exclusive access again.
	getMutAt(index uint32) (*T, bool, error)
}

// walk is the (begin, end) state shared by both iterators. begin only grows
// and end only shrinks, so every index is produced at most once.
type walk struct {
	gen   uint64
	begin uint32
	end   uint32
	err   error
}

func (w *walk) live(current uint64) bool {
	if w.err != nil {
		return false
	}
	if current != w.gen {
		w.fail(ErrIteratorInvalidated)
		return false
	}
	return w.begin < w.end
}

func (w *walk) front() uint32 {
	cur := w.begin
	w.begin++
	return cur
}

func (w *walk) back() uint32 {
	w.end--
	return w.end
}

// fail stops the iteration for good.
func (w *walk) fail(err error) {
	w.err = err
	w.begin = w.end
}

// Iter walks shared references to the elements of a vector. Any number of
// them may be open over the same vector. Mutating the vector invalidates them.
type Iter[T any] struct {
	src source[T]
	walk
}

func newIter[T any](src source[T]) *Iter[T] {
	return &Iter[T]{
		src:  src,
		walk: walk{gen: src.generation(), end: src.Len()},
	}
}

// Next returns the element at the front and advances. It returns false once
// the iterator is exhausted or failed; see Err.
func (it *Iter[T]) Next() (*T, bool) {
	if !it.live(it.src.generation()) {
		return nil, false
	}
	return it.yield(it.front())
}

// NextBack returns the element at the back and moves the back inwards.
func (it *Iter[T]) NextBack() (*T, bool) {
	if !it.live(it.src.generation()) {
		return nil, false
	}
	return it.yield(it.back())
}

func (it *Iter[T]) yield(index uint32) (*T, bool) {
	v, ok, err := it.src.Get(index)
	if err != nil {
		it.fail(err)
		return nil, false
	}
	if !ok {
		it.fail(ErrIteratorInvalidated)
		return nil, false
	}
	return v, true
}

// Len returns the exact number of elements left.
func (it *Iter[T]) Len() int {
	return int(it.end - it.begin)
}

// Err returns the error that stopped the iteration, if any.
func (it *Iter[T]) Err() error {
	return it.err
}

// All yields the remaining elements front to back. Check Err afterwards.
func (it *Iter[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Backward yields the remaining elements back to front. Check Err afterwards.
func (it *Iter[T]) Backward() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for {
			v, ok := it.NextBack()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// IterMut walks exclusive references to the elements of a vector. Creating
// one takes exclusive access to the vector: every iterator created before it
// is invalidated, and so is this one as soon as the vector is used through
// anything else. Each element is re-resolved through the vector on every
// step and yielded at most once, so no two yielded pointers alias.
//
// Every yielded element is written back on the next push of the vector.
// Dropping the iterator early needs no cleanup.
type IterMut[T any] struct {
	src mutSource[T]
	walk
}

func newIterMut[T any](src mutSource[T]) *IterMut[T] {
	return &IterMut[T]{
		src:  src,
		walk: walk{gen: src.generation(), end: src.Len()},
	}
}

func (it *IterMut[T]) Next() (*T, bool) {
	if !it.live(it.src.generation()) {
		return nil, false
	}
	return it.yield(it.front())
}

func (it *IterMut[T]) NextBack() (*T, bool) {
	if !it.live(it.src.generation()) {
		return nil, false
	}
	return it.yield(it.back())
}

func (it *IterMut[T]) yield(index uint32) (*T, bool) {
	v, ok, err := it.src.getMutAt(index)
	if err != nil {
		it.fail(err)
		return nil, false
	}
	if !ok {
		it.fail(ErrIteratorInvalidated)
		return nil, false
	}
	return v, true
}

func (it *IterMut[T]) Len() int {
	return int(it.end - it.begin)
}

func (it *IterMut[T]) Err() error {
	return it.err
}

func (it *IterMut[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

func (it *IterMut[T]) Backward() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for {
			v, ok := it.NextBack()
			if !ok || !yield(v) {
				return
			}
		}
	}
}
