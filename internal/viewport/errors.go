package viewport

import "errors"

var (
	// ErrNoStack is returned by operations that need a loaded stack.
	ErrNoStack = errors.New("viewport has no stack")

	// ErrIndexRange is returned for an image index outside the stack.
	ErrIndexRange = errors.New("image index out of range")
)
