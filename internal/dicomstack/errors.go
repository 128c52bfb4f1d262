package dicomstack

import "errors"

var (
	// ErrNoFrames is returned when a file has no decodable frames.
	ErrNoFrames = errors.New("dicom file has no frames")

	// ErrUnsupportedPixels is returned for pixel layouts the decoder cannot handle.
	ErrUnsupportedPixels = errors.New("unsupported pixel layout")

	// ErrBadImageID is returned when an image ID cannot be parsed.
	ErrBadImageID = errors.New("malformed image id")

	// ErrFrameRange is returned for a frame index outside the stack.
	ErrFrameRange = errors.New("frame index out of range")
)
