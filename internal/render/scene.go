// Package render turns a decoded frame, a camera and a set of overlay shapes
// into a canvas-sized RGBA image.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"cine-viewer/internal/dicomstack"
	"cine-viewer/pkg/colorutil"
	"cine-viewer/pkg/geometry"
)

// Scene is everything needed to draw one canvas image.
type Scene struct {
	Frame  *dicomstack.Frame
	VOI    VOI
	Invert bool

	// ImageToCanvas maps image pixel coordinates to canvas pixels.
	ImageToCanvas geometry.AffineTransform
	Width         int
	Height        int

	Shapes    []Shape
	Magnifier *Magnifier
	Caption   string
}

// Magnifier describes a zoomed inset centred on a canvas point.
type Magnifier struct {
	Center geometry.Point2D
	Radius int
	Level  float64
}

// Render draws the scene. A scene without a frame yields the background.
// Overlay failures are returned alongside the image, which still holds the
// frame and every overlay that could be drawn.
func Render(s Scene) (*image.RGBA, error) {
	w, h := s.Width, s.Height
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: colorutil.Background}, image.Point{}, draw.Src)

	if s.Frame != nil {
		src := Window(s.Frame, s.VOI, s.Invert)
		Resample(out, src, s.ImageToCanvas)
	}

	var errs []error
	if err := drawShapes(out, s.Shapes); err != nil {
		errs = append(errs, fmt.Errorf("draw shapes: %w", err))
	}
	drawShapeText(out, s.Shapes)

	if s.Magnifier != nil {
		if err := drawMagnifier(out, *s.Magnifier); err != nil {
			errs = append(errs, fmt.Errorf("draw magnifier: %w", err))
		}
	}
	if s.Caption != "" {
		drawText(out, s.Caption, 6, h-6, colorutil.LabelText)
	}
	return out, errors.Join(errs...)
}

// Resample draws src onto dst through the image-to-canvas transform with
// bilinear filtering.
func Resample(dst draw.Image, src image.Image, t geometry.AffineTransform) {
	m := f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}
	xdraw.BiLinear.Transform(dst, m, src, src.Bounds(), xdraw.Src, nil)
}

func drawMagnifier(out *image.RGBA, m Magnifier) error {
	r := m.Radius
	if r <= 0 || m.Level <= 1 {
		return nil
	}
	snapshot := image.NewRGBA(out.Bounds())
	draw.Draw(snapshot, snapshot.Bounds(), out, image.Point{}, draw.Src)

	// Map the inset back onto the snapshot scaled about the centre.
	t := geometry.Translation(m.Center.X, m.Center.Y).
		Compose(geometry.Scale(m.Level, m.Level)).
		Compose(geometry.Translation(-m.Center.X, -m.Center.Y))

	cx, cy := int(m.Center.X), int(m.Center.Y)
	inset := image.Rect(cx-r, cy-r, cx+r, cy+r).Intersect(out.Bounds())
	if inset.Empty() {
		return nil
	}
	mask := &circleMask{center: image.Pt(cx, cy), radius: r}
	zoomed := image.NewRGBA(out.Bounds())
	xdraw.BiLinear.Transform(zoomed, f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}, snapshot, snapshot.Bounds(), xdraw.Src, nil)
	draw.DrawMask(out, inset, zoomed, inset.Min, mask, inset.Min, draw.Over)
	return strokeCircle(out, m.Center, float64(r), colorutil.White)
}

// circleMask is an alpha mask that is opaque inside a circle.
type circleMask struct {
	center image.Point
	radius int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.radius, c.center.Y-c.radius, c.center.X+c.radius, c.center.Y+c.radius)
}

func (c *circleMask) At(x, y int) color.Color {
	dx, dy := x-c.center.X, y-c.center.Y
	if dx*dx+dy*dy <= c.radius*c.radius {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
