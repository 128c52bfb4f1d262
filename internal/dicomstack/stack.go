// Package dicomstack loads a DICOM file as an ordered stack of frames, each
// addressed by an image ID.
package dicomstack

import (
	"context"
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	"github.com/cocosip/go-dicom/pkg/imaging"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"
	lru "github.com/hashicorp/golang-lru/v2"
)

// frameCacheSize bounds the decoded frames kept for a file-backed stack.
const frameCacheSize = 64

// Stack is an ordered, read-only sequence of frames from one file.
type Stack struct {
	path     string
	meta     Metadata
	imageIDs []string
	read     func(index int) ([]byte, error)
	frames   *lru.Cache[int, *Frame]
}

// Load parses path, decodes compressed pixel data to native form and returns
// a stack with one image ID per frame.
func Load(ctx context.Context, path string) (*Stack, error) {
	meta, err := ReadMetadata(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := parser.ParseFile(path, parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	ds := res.Dataset
	if res.TransferSyntax != nil && res.TransferSyntax.IsEncapsulated() {
		tr := codec.NewTranscoder(res.TransferSyntax, transfer.ExplicitVRLittleEndian)
		ds, err = tr.Transcode(ds)
		if err != nil {
			return nil, fmt.Errorf("transcode %s: %w", path, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pd, err := imaging.CreatePixelData(ds)
	if err != nil {
		return nil, fmt.Errorf("pixel data %s: %w", path, err)
	}
	count := pd.FrameCount()
	if count <= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}
	meta.NumberOfFrames = count

	return newStack(path, meta, pd.GetFrame), nil
}

// NewStackFromFrames builds a stack over already decoded frames. A nil entry
// is a frame that fails to decode.
func NewStackFromFrames(path string, meta Metadata, frames []*Frame) *Stack {
	meta.NumberOfFrames = len(frames)
	s := newStack(path, meta, nil)
	for i, f := range frames {
		if f != nil {
			s.frames.Add(i, f)
		}
	}
	s.read = func(index int) ([]byte, error) {
		return nil, fmt.Errorf("%w: frame %d not decoded", ErrUnsupportedPixels, index)
	}
	return s
}

func newStack(path string, meta Metadata, read func(int) ([]byte, error)) *Stack {
	ids := make([]string, meta.NumberOfFrames)
	for i := range ids {
		ids[i] = ImageID(path, i+1)
	}
	capacity := frameCacheSize
	if read == nil {
		// In-memory stacks must never evict.
		capacity = max(meta.NumberOfFrames, 1)
	}
	frames, _ := lru.New[int, *Frame](capacity) // only fails for size <= 0
	return &Stack{
		path:     path,
		meta:     meta,
		imageIDs: ids,
		read:     read,
		frames:   frames,
	}
}

// Path returns the file the stack was loaded from.
func (s *Stack) Path() string {
	return s.path
}

// Metadata returns the shared frame metadata.
func (s *Stack) Metadata() Metadata {
	return s.meta
}

// Count returns the number of frames.
func (s *Stack) Count() int {
	return len(s.imageIDs)
}

// ImageIDs returns the frame identifiers in stack order.
func (s *Stack) ImageIDs() []string {
	out := make([]string, len(s.imageIDs))
	copy(out, s.imageIDs)
	return out
}

// ImageID returns the identifier of frame index.
func (s *Stack) ImageID(index int) (string, bool) {
	if index < 0 || index >= len(s.imageIDs) {
		return "", false
	}
	return s.imageIDs[index], true
}

// IndexOf returns the position of an image ID in the stack.
func (s *Stack) IndexOf(imageID string) (int, bool) {
	for i, id := range s.imageIDs {
		if id == imageID {
			return i, true
		}
	}
	return 0, false
}

// Frame returns the decoded frame at index, decoding on first use.
func (s *Stack) Frame(index int) (*Frame, error) {
	if index < 0 || index >= len(s.imageIDs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, index, len(s.imageIDs))
	}
	if f, ok := s.frames.Get(index); ok {
		return f, nil
	}
	raw, err := s.read(index)
	if err != nil {
		return nil, fmt.Errorf("read frame %d: %w", index, err)
	}
	f, err := DecodeFrame(index, raw, s.meta)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}
	s.frames.Add(index, f)
	return f, nil
}

// CachedFrames reports how many decoded frames are held in memory.
func (s *Stack) CachedFrames() int {
	return s.frames.Len()
}
