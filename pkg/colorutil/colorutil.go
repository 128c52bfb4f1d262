// Package colorutil provides shared colors for overlays and the viewer chrome.
package colorutil

import (
	"image/color"
)

// Overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}

	// Annotation is the resting color of committed annotations.
	Annotation = Yellow
	// Drawing is the color of an annotation still being drawn.
	Drawing = Green
	// LabelText is the color of label and measurement text.
	LabelText = White
	// Background fills canvas areas outside the image.
	Background = Black
)

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Gray returns an opaque gray of level v.
func Gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// Float returns the color channels scaled to 0..1.
func Float(c color.RGBA) (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}
