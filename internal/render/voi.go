package render

import (
	"image"
	"math"

	"cine-viewer/internal/dicomstack"
)

// minWindowWidth keeps window-level drags from collapsing the window.
const minWindowWidth = 1

// VOI is a linear value-of-interest window in modality units.
type VOI struct {
	Center float64
	Width  float64
}

// DefaultVOI returns the file's window when present, otherwise a window
// spanning the frame's value range. Color frames get the full 8-bit range.
func DefaultVOI(meta dicomstack.Metadata, f *dicomstack.Frame) VOI {
	if meta.HasWindow {
		return VOI{Center: meta.WindowCenter, Width: meta.WindowWidth}
	}
	if f == nil || f.Color() {
		return VOI{Center: 128, Width: 256}
	}
	lo, hi := float64(f.Min), float64(f.Max)
	w := hi - lo
	if w < minWindowWidth {
		w = minWindowWidth
	}
	return VOI{Center: lo + w/2, Width: w}
}

// Adjust moves the window by a drag delta: horizontal changes width,
// vertical changes center.
func (v VOI) Adjust(dWidth, dCenter float64) VOI {
	v.Width = math.Max(minWindowWidth, v.Width+dWidth)
	v.Center += dCenter
	return v
}

// Map converts a modality value to a display level.
func (v VOI) Map(x float64) uint8 {
	w := math.Max(minWindowWidth, v.Width)
	lo := v.Center - 0.5 - (w-1)/2
	hi := v.Center - 0.5 + (w-1)/2
	switch {
	case x <= lo:
		return 0
	case x > hi:
		return 255
	}
	return uint8(((x-(v.Center-0.5))/(w-1) + 0.5) * 255)
}

// Window renders a frame through the VOI into an RGBA image the size of the
// frame. Monochrome1 frames are inverted.
func Window(f *dicomstack.Frame, v VOI, invert bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	if f.Color() {
		for i := 0; i < n; i++ {
			img.Pix[i*4] = v.Map(float64(f.RGB[i*3]))
			img.Pix[i*4+1] = v.Map(float64(f.RGB[i*3+1]))
			img.Pix[i*4+2] = v.Map(float64(f.RGB[i*3+2]))
			img.Pix[i*4+3] = 255
		}
		return img
	}

	// Lookup table over the integer value range keeps cine playback cheap.
	lo, hi := int(math.Floor(float64(f.Min))), int(math.Ceil(float64(f.Max)))
	var lut []uint8
	if hi-lo < 1<<17 {
		lut = make([]uint8, hi-lo+1)
		for i := range lut {
			lut[i] = v.Map(float64(lo + i))
		}
	}
	for i := 0; i < n; i++ {
		val := f.Values[i]
		var g uint8
		if lut != nil && float32(int(val)) == val {
			g = lut[int(val)-lo]
		} else {
			g = v.Map(float64(val))
		}
		if invert {
			g = 255 - g
		}
		img.Pix[i*4] = g
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = g
		img.Pix[i*4+3] = 255
	}
	return img
}
