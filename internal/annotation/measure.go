package annotation

import (
	"math"

	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

// Units used for measured values.
const (
	UnitMM      = "mm"
	UnitMM2     = "mm²"
	UnitDegrees = "°"
)

// Measure computes the measured value for an annotation made with tool from
// world points. The view vectors orient rectangle and ellipse extents. It
// returns nil for tools without a measurement or with too few points.
func Measure(tool tools.Name, points []geometry.Point3D, viewUp, viewPlaneNormal geometry.Point3D) *Measurement {
	switch tool {
	case tools.Length:
		if len(points) < 2 {
			return nil
		}
		return &Measurement{Value: points[0].Distance(points[1]), Unit: UnitMM}

	case tools.RectangleROI, tools.EllipticalROI:
		if len(points) < 2 {
			return nil
		}
		w, h := extents(points[0], points[1], viewUp, viewPlaneNormal)
		area := w * h
		if tool == tools.EllipticalROI {
			area = math.Pi * (w / 2) * (h / 2)
		}
		return &Measurement{Value: area, Unit: UnitMM2}

	case tools.Angle:
		if len(points) < 3 {
			return nil
		}
		deg, ok := angleAt(points[0], points[1], points[2])
		if !ok {
			return nil
		}
		return &Measurement{Value: deg, Unit: UnitDegrees}
	}
	return nil
}

// extents returns the width and height of the box spanned by two opposite
// corners in the view plane.
func extents(a, b, viewUp, normal geometry.Point3D) (float64, float64) {
	up := viewUp.Normalize()
	right := up.Cross(normal).Normalize()
	d := b.Sub(a)
	if up.Length() == 0 || right.Length() == 0 {
		// Degenerate view; fall back to the axis-aligned box.
		return math.Abs(d.X), math.Abs(d.Y)
	}
	return math.Abs(d.Dot(right)), math.Abs(d.Dot(up))
}

// angleAt returns the angle at vertex b between rays b->a and b->c.
func angleAt(a, b, c geometry.Point3D) (float64, bool) {
	u := a.Sub(b)
	v := c.Sub(b)
	lu, lv := u.Length(), v.Length()
	if lu == 0 || lv == 0 {
		return 0, false
	}
	cos := u.Dot(v) / (lu * lv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}
