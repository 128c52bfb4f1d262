package viewport

import (
	"math"

	"cine-viewer/pkg/geometry"
)

const (
	minZoom = 0.1
	maxZoom = 20.0
)

// Camera is the view state of a stack viewport.
type Camera struct {
	// Zoom is relative to the fit-to-window scale.
	Zoom float64
	// Pan is the image centre offset in canvas pixels.
	Pan            geometry.Point2D
	FlipHorizontal bool
	FlipVertical   bool

	ViewPlaneNormal geometry.Point3D
	ViewUp          geometry.Point3D
}

func defaultCamera() Camera {
	return Camera{Zoom: 1}
}

func clampZoom(z float64) float64 {
	return math.Max(minZoom, math.Min(maxZoom, z))
}

// imageToCanvas builds the transform from image pixels to canvas pixels for
// an image of cols x rows shown on a canvas of the given size.
func (c Camera) imageToCanvas(cols, rows int, canvas geometry.Size) geometry.AffineTransform {
	if cols <= 0 || rows <= 0 || canvas.Empty() {
		return geometry.Identity()
	}
	fit := math.Min(canvas.Width/float64(cols), canvas.Height/float64(rows))
	s := fit * c.Zoom
	sx, sy := s, s
	if c.FlipHorizontal {
		sx = -sx
	}
	if c.FlipVertical {
		sy = -sy
	}
	return geometry.Translation(canvas.Width/2+c.Pan.X, canvas.Height/2+c.Pan.Y).
		Compose(geometry.Scale(sx, sy)).
		Compose(geometry.Translation(-float64(cols)/2, -float64(rows)/2))
}

// orient derives the view vectors from the image plane and flips.
func (c *Camera) orient(plane geometry.ImagePlane) {
	normal := plane.ColumnCosine.Cross(plane.RowCosine).Normalize()
	up := plane.ColumnCosine.Scale(-1).Normalize()
	if c.FlipHorizontal != c.FlipVertical {
		normal = normal.Scale(-1)
	}
	if c.FlipVertical {
		up = up.Scale(-1)
	}
	c.ViewPlaneNormal = normal
	c.ViewUp = up
}
