package collections

import "fmt"

// Sequence is the read side shared by SmallVec and Vec.
type Sequence[T any] interface {
	Len() uint32
	Get(index uint32) (*T, bool, error)
}

// Equal reports whether a and b have the same length and equal elements in
// the same order. Vectors of different lengths are never equal; no element
// is read in that case.
func Equal[T comparable](a, b Sequence[T]) (bool, error) {
	return EqualFunc(a, b, func(x, y *T) bool { return *x == *y })
}

// EqualFunc is Equal with a custom element comparison, for element types
// that are not comparable, such as nested vectors.
func EqualFunc[T any](a, b Sequence[T], eq func(x, y *T) bool) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	for i := range a.Len() {
		x, _, err := a.Get(i)
		if err != nil {
			return false, fmt.Errorf("equal: %w", err)
		}
		y, _, err := b.Get(i)
		if err != nil {
			return false, fmt.Errorf("equal: %w", err)
		}
		if !eq(x, y) {
			return false, nil
		}
	}
	return true, nil
}
