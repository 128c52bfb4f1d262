package geometry

import "math"

// AffineTransform maps image pixels to canvas pixels:
//
//	x' = A*x + B*y + TX
//	y' = C*x + D*y + TY
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

func Identity() AffineTransform { return AffineTransform{A: 1, D: 1} }

func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

func Scale(sx, sy float64) AffineTransform { return AffineTransform{A: sx, D: sy} }

func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns t∘u: u is applied first.
func (t AffineTransform) Compose(u AffineTransform) AffineTransform {
	return AffineTransform{
		A: t.A*u.A + t.B*u.C, B: t.A*u.B + t.B*u.D, TX: t.A*u.TX + t.B*u.TY + t.TX,
		C: t.C*u.A + t.D*u.C, D: t.C*u.B + t.D*u.D, TY: t.C*u.TX + t.D*u.TY + t.TY,
	}
}

// Inverse reports false for a degenerate transform, such as a zero zoom.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-10 {
		return AffineTransform{}, false
	}
	a, b := t.D/det, -t.B/det
	c, d := -t.C/det, t.A/det
	return AffineTransform{
		A: a, B: b, TX: -(a*t.TX + b*t.TY),
		C: c, D: d, TY: -(c*t.TX + d*t.TY),
	}, true
}
