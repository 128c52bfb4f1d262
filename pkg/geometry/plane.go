package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ImagePlane maps image pixel coordinates onto the patient coordinate system.
// Origin is the center of the first transmitted pixel (ImagePositionPatient),
// RowCosine and ColumnCosine come from ImageOrientationPatient, and the
// spacings from PixelSpacing (row spacing first, as stored in the file).
type ImagePlane struct {
	Origin        Point3D
	RowCosine     Point3D
	ColumnCosine  Point3D
	RowSpacing    float64 // distance between adjacent rows (mm)
	ColumnSpacing float64 // distance between adjacent columns (mm)
}

// DefaultPlane is an axial plane at the origin with 1mm pixels.
// It is used when a file carries no image plane attributes, so measurements
// are reported in pixel units.
func DefaultPlane() ImagePlane {
	return ImagePlane{
		RowCosine:     Point3D{X: 1},
		ColumnCosine:  Point3D{Y: 1},
		RowSpacing:    1,
		ColumnSpacing: 1,
	}
}

// Validate reports whether the plane can be used for coordinate conversion.
func (p ImagePlane) Validate() error {
	if p.RowSpacing <= 0 || p.ColumnSpacing <= 0 {
		return fmt.Errorf("invalid pixel spacing %.4g/%.4g", p.RowSpacing, p.ColumnSpacing)
	}
	if math.Abs(p.Normal().Length()) < 1e-6 {
		return fmt.Errorf("degenerate orientation")
	}
	return nil
}

// Normal returns the unit normal of the plane (row × column).
func (p ImagePlane) Normal() Point3D {
	return p.RowCosine.Cross(p.ColumnCosine).Normalize()
}

// basis returns the 3x2 matrix whose columns step one pixel along x and y.
func (p ImagePlane) basis() *mat.Dense {
	colStep := p.RowCosine.Scale(p.ColumnSpacing)
	rowStep := p.ColumnCosine.Scale(p.RowSpacing)
	return mat.NewDense(3, 2, []float64{
		colStep.X, rowStep.X,
		colStep.Y, rowStep.Y,
		colStep.Z, rowStep.Z,
	})
}

// ImageToWorld converts a pixel position (x = column, y = row) to world coordinates.
func (p ImagePlane) ImageToWorld(pt Point2D) Point3D {
	var out mat.VecDense
	out.MulVec(p.basis(), mat.NewVecDense(2, []float64{pt.X, pt.Y}))
	return Point3D{
		X: p.Origin.X + out.AtVec(0),
		Y: p.Origin.Y + out.AtVec(1),
		Z: p.Origin.Z + out.AtVec(2),
	}
}

// WorldToImage projects a world position onto the plane and returns its
// pixel coordinates. The projection is a least-squares solve, so points off
// the plane map to their closest in-plane pixel.
func (p ImagePlane) WorldToImage(w Point3D) (Point2D, bool) {
	d := w.Sub(p.Origin)
	var sol mat.VecDense
	if err := sol.SolveVec(p.basis(), mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})); err != nil {
		return Point2D{}, false
	}
	return Point2D{X: sol.AtVec(0), Y: sol.AtVec(1)}, true
}
