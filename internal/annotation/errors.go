package annotation

import "errors"

var (
	// ErrEmptyGroupKey is returned when adding without a group key.
	ErrEmptyGroupKey = errors.New("annotation group key is empty")

	// ErrNoImage is returned when an annotation does not reference an image.
	ErrNoImage = errors.New("annotation references no image")

	// ErrDuplicateUID is returned when an annotation UID is already stored.
	ErrDuplicateUID = errors.New("duplicate annotation UID")

	// ErrNotFound is returned when removing an unknown annotation.
	ErrNotFound = errors.New("annotation not found")
)
