package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"cine-viewer/pkg/colorutil"
	"cine-viewer/pkg/geometry"
)

// ShapeKind selects how a shape's points are drawn.
type ShapeKind int

const (
	ShapeLine     ShapeKind = iota // two end points
	ShapeRect                      // two opposite corners
	ShapeEllipse                   // two opposite corners of the bounding box
	ShapePolyline                  // open path through every point
	ShapeMarker                    // a single anchor point
)

const (
	lineWidth    = 2
	markerRadius = 3
	textOffset   = 8
)

// Shape is an overlay in canvas coordinates.
type Shape struct {
	Kind   ShapeKind
	Points []geometry.Point2D
	Color  color.RGBA
	Text   string
}

// drawShapes strokes every shape with gg onto out. Shapes that fail to draw
// are skipped and their errors joined.
func drawShapes(out *image.RGBA, shapes []Shape) error {
	if len(shapes) == 0 {
		return nil
	}
	return withContext(out, func(dc *gg.Context) error {
		dc.SetLineWidth(lineWidth)
		var errs []error
		for _, s := range shapes {
			if len(s.Points) == 0 {
				continue
			}
			dc.SetRGBA(colorutil.Float(s.Color))
			errs = append(errs, strokeShape(dc, s))
		}
		return errors.Join(errs...)
	})
}

func strokeShape(dc *gg.Context, s Shape) error {
	p := s.Points
	switch s.Kind {
	case ShapeLine:
		if len(p) < 2 {
			return nil
		}
		dc.DrawLine(p[0].X, p[0].Y, p[1].X, p[1].Y)
		return dc.Stroke()
	case ShapeRect:
		if len(p) < 2 {
			return nil
		}
		r := geometry.RectFromCorners(p[0], p[1])
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		return dc.Stroke()
	case ShapeEllipse:
		if len(p) < 2 {
			return nil
		}
		r := geometry.RectFromCorners(p[0], p[1])
		c := r.Center()
		dc.DrawEllipse(c.X, c.Y, r.Width/2, r.Height/2)
		return dc.Stroke()
	case ShapePolyline:
		if len(p) < 2 {
			return nil
		}
		dc.MoveTo(p[0].X, p[0].Y)
		for _, q := range p[1:] {
			dc.LineTo(q.X, q.Y)
		}
		return dc.Stroke()
	case ShapeMarker:
		dc.DrawCircle(p[0].X, p[0].Y, markerRadius)
		return dc.Fill()
	}
	return nil
}

// withContext runs fn on a gg context over out and copies the result back.
// Whatever fn managed to draw is kept even when it fails.
func withContext(out *image.RGBA, fn func(dc *gg.Context) error) error {
	dc := gg.NewContextForImage(out)
	defer dc.Close()
	err := fn(dc)
	if ferr := dc.FlushGPU(); ferr != nil {
		err = errors.Join(err, fmt.Errorf("flush: %w", ferr))
	}
	draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return err
}

func strokeCircle(out *image.RGBA, c geometry.Point2D, r float64, col color.RGBA) error {
	return withContext(out, func(dc *gg.Context) error {
		dc.SetLineWidth(lineWidth)
		dc.SetRGBA(colorutil.Float(col))
		dc.DrawCircle(c.X, c.Y, r)
		return dc.Stroke()
	})
}

// drawShapeText places each shape's text beside its last point.
func drawShapeText(out *image.RGBA, shapes []Shape) {
	for _, s := range shapes {
		if s.Text == "" || len(s.Points) == 0 {
			continue
		}
		anchor := s.Points[len(s.Points)-1]
		drawText(out, s.Text, int(anchor.X)+textOffset, int(anchor.Y)-textOffset, colorutil.LabelText)
	}
}

// drawText draws a line of text with its baseline at (x, y) and a one pixel
// shadow for contrast on bright images.
func drawText(out *image.RGBA, text string, x, y int, col color.RGBA) {
	for _, pass := range []struct {
		dx  int
		col color.RGBA
	}{{1, colorutil.Black}, {0, col}} {
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(pass.col),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x+pass.dx, y+pass.dx),
		}
		d.DrawString(text)
	}
}

// TextWidth returns the rendered width of text in pixels.
func TextWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}
