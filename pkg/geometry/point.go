// Package geometry holds the coordinate types shared by the viewport,
// renderer and annotations: canvas points, patient-space vectors, canvas
// sizes and the 2D affine map between image pixels and the canvas.
package geometry

import "math"

// Point2D is a canvas or image-pixel position.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint2D(x, y float64) Point2D { return Point2D{X: x, Y: y} }

func (p Point2D) Add(q Point2D) Point2D { return Point2D{p.X + q.X, p.Y + q.Y} }

func (p Point2D) Sub(q Point2D) Point2D { return Point2D{p.X - q.X, p.Y - q.Y} }

func (p Point2D) Scale(k float64) Point2D { return Point2D{p.X * k, p.Y * k} }

// Point3D is a position or direction in patient space, in millimetres.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func NewPoint3D(x, y, z float64) Point3D { return Point3D{X: x, Y: y, Z: z} }

func (p Point3D) Add(q Point3D) Point3D { return Point3D{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

func (p Point3D) Sub(q Point3D) Point3D { return Point3D{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

func (p Point3D) Scale(k float64) Point3D { return Point3D{p.X * k, p.Y * k, p.Z * k} }

func (p Point3D) Dot(q Point3D) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// Cross returns p × q.
func (p Point3D) Cross(q Point3D) Point3D {
	return Point3D{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

func (p Point3D) Length() float64 { return math.Sqrt(p.Dot(p)) }

// Distance is the straight-line distance in millimetres.
func (p Point3D) Distance(q Point3D) float64 { return p.Sub(q).Length() }

// Normalize returns the unit vector along p. The zero vector is returned as is.
func (p Point3D) Normalize() Point3D {
	if l := p.Length(); l != 0 {
		return p.Scale(1 / l)
	}
	return p
}

// Rect is an axis-aligned canvas rectangle.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// RectFromCorners spans two opposite corners in any order.
func RectFromCorners(a, b Point2D) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

func (r Rect) Center() Point2D { return Point2D{r.X + r.Width/2, r.Y + r.Height/2} }

// Size is a canvas size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewSize(w, h float64) Size { return Size{Width: w, Height: h} }

// Empty reports whether nothing can be drawn at this size.
func (s Size) Empty() bool { return s.Width <= 0 || s.Height <= 0 }
