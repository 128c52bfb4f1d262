package dicomstack

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frame is one decoded image. Monochrome frames carry modality values in
// Values; color frames carry interleaved 8-bit RGB in RGB.
type Frame struct {
	Index  int
	Width  int
	Height int
	Values []float32
	RGB    []uint8
	Min    float32
	Max    float32
}

// Color reports whether the frame holds RGB samples.
func (f *Frame) Color() bool {
	return f.RGB != nil
}

// At returns the modality value at a pixel, or the luminance of a color pixel.
func (f *Frame) At(x, y int) (float32, bool) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, false
	}
	i := y*f.Width + x
	if f.Color() {
		p := f.RGB[i*3 : i*3+3]
		return 0.299*float32(p[0]) + 0.587*float32(p[1]) + 0.114*float32(p[2]), true
	}
	return f.Values[i], true
}

// NewGrayFrame builds a monochrome frame from modality values.
func NewGrayFrame(index, width, height int, values []float32) *Frame {
	f := &Frame{Index: index, Width: width, Height: height, Values: values}
	f.Min, f.Max = minMax(values)
	return f
}

// DecodeFrame converts raw little-endian native pixel bytes into a Frame.
func DecodeFrame(index int, raw []byte, m Metadata) (*Frame, error) {
	w, h := m.Columns, m.Rows
	n := w * h
	if n <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnsupportedPixels, w, h)
	}

	switch m.SamplesPerPixel {
	case 1:
		values, err := decodeGray(raw, n, m)
		if err != nil {
			return nil, err
		}
		return NewGrayFrame(index, w, h, values), nil
	case 3:
		rgb, err := decodeColor(raw, n, m)
		if err != nil {
			return nil, err
		}
		return &Frame{Index: index, Width: w, Height: h, RGB: rgb, Min: 0, Max: 255}, nil
	}
	return nil, fmt.Errorf("%w: %d samples per pixel", ErrUnsupportedPixels, m.SamplesPerPixel)
}

func decodeGray(raw []byte, n int, m Metadata) ([]float32, error) {
	bytesPer := (m.BitsAllocated + 7) / 8
	if len(raw) < n*bytesPer {
		return nil, fmt.Errorf("%w: frame has %d bytes, need %d", ErrUnsupportedPixels, len(raw), n*bytesPer)
	}

	stored := m.BitsStored
	if stored <= 0 || stored > m.BitsAllocated {
		stored = m.BitsAllocated
	}
	mask := uint32(math.MaxUint32)
	if stored < 32 {
		mask = 1<<uint(stored) - 1
	}
	signed := m.PixelRepresentation == 1
	slope, intercept := float32(m.RescaleSlope), float32(m.RescaleIntercept)

	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var u uint32
		switch bytesPer {
		case 1:
			u = uint32(raw[i])
		case 2:
			u = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
		case 4:
			u = binary.LittleEndian.Uint32(raw[i*4:])
		default:
			return nil, fmt.Errorf("%w: %d bits allocated", ErrUnsupportedPixels, m.BitsAllocated)
		}
		u &= mask

		var v float32
		if signed && stored < 32 && u&(1<<uint(stored-1)) != 0 {
			v = float32(int64(u) - int64(1)<<uint(stored))
		} else if signed && stored == 32 {
			v = float32(int32(u))
		} else {
			v = float32(u)
		}
		out[i] = v*slope + intercept
	}
	return out, nil
}

func decodeColor(raw []byte, n int, m Metadata) ([]uint8, error) {
	if m.BitsAllocated != 8 {
		return nil, fmt.Errorf("%w: %d-bit color", ErrUnsupportedPixels, m.BitsAllocated)
	}
	if len(raw) < n*3 {
		return nil, fmt.Errorf("%w: frame has %d bytes, need %d", ErrUnsupportedPixels, len(raw), n*3)
	}

	out := make([]uint8, n*3)
	if m.PlanarConfiguration == 1 {
		for i := 0; i < n; i++ {
			out[i*3] = raw[i]
			out[i*3+1] = raw[n+i]
			out[i*3+2] = raw[2*n+i]
		}
	} else {
		copy(out, raw[:n*3])
	}

	if m.Photometric == "YBR_FULL" || m.Photometric == "YBR_FULL_422" {
		for i := 0; i < n; i++ {
			r, g, b := ybrToRGB(out[i*3], out[i*3+1], out[i*3+2])
			out[i*3], out[i*3+1], out[i*3+2] = r, g, b
		}
	}
	return out, nil
}

func ybrToRGB(y, cb, cr uint8) (uint8, uint8, uint8) {
	fy := float64(y)
	fcb := float64(cb) - 128
	fcr := float64(cr) - 128
	return clamp8(fy + 1.402*fcr),
		clamp8(fy - 0.344136*fcb - 0.714136*fcr),
		clamp8(fy + 1.772*fcb)
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func minMax(values []float32) (float32, float32) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
