package collections

import "errors"

var (
	ErrCapacityExceeded    = errors.New("vector is at capacity")
	ErrIteratorInvalidated = errors.New("vector was modified during iteration")
	ErrCorruptLength       = errors.New("stored length exceeds the vector capacity")
)

const indexOutOfBounds = "index out of bounds"
