package dicomstack

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"cine-viewer/pkg/geometry"
)

// Metadata is the per-file information the viewer needs. All frames of a
// stack share it.
type Metadata struct {
	Rows                int
	Columns             int
	SamplesPerPixel     int
	BitsAllocated       int
	BitsStored          int
	PixelRepresentation int
	PlanarConfiguration int
	Photometric         string

	RescaleSlope     float64
	RescaleIntercept float64
	WindowCenter     float64
	WindowWidth      float64
	HasWindow        bool

	Plane               geometry.ImagePlane
	FrameOfReferenceUID string

	NumberOfFrames    int
	FrameRate         float64 // frames per second, 0 when the file has none
	SOPInstanceUID    string
	Modality          string
	SeriesDescription string
}

// DefaultMetadata returns metadata for an 8-bit monochrome image with an
// identity plane.
func DefaultMetadata(rows, cols int) Metadata {
	return Metadata{
		Rows:            rows,
		Columns:         cols,
		SamplesPerPixel: 1,
		BitsAllocated:   8,
		BitsStored:      8,
		Photometric:     "MONOCHROME2",
		RescaleSlope:    1,
		Plane:           geometry.DefaultPlane(),
		NumberOfFrames:  1,
	}
}

// Monochrome1 reports whether low values display bright.
func (m Metadata) Monochrome1() bool {
	return m.Photometric == "MONOCHROME1"
}

// FrameInterval returns the display interval between frames, or 0 when the
// file carries no timing.
func (m Metadata) FrameInterval() time.Duration {
	if m.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / m.FrameRate)
}

// ReadMetadata parses the header of a DICOM file without its pixel data.
func ReadMetadata(path string) (Metadata, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Metadata{}, fmt.Errorf("parse header %s: %w", path, err)
	}
	return metadataFrom(&ds), nil
}

func metadataFrom(ds *dicom.Dataset) Metadata {
	m := DefaultMetadata(0, 0)

	m.Rows = intOf(ds, tag.Rows, 0)
	m.Columns = intOf(ds, tag.Columns, 0)
	m.SamplesPerPixel = intOf(ds, tag.SamplesPerPixel, 1)
	m.BitsAllocated = intOf(ds, tag.BitsAllocated, 8)
	m.BitsStored = intOf(ds, tag.BitsStored, m.BitsAllocated)
	m.PixelRepresentation = intOf(ds, tag.PixelRepresentation, 0)
	m.PlanarConfiguration = intOf(ds, tag.PlanarConfiguration, 0)
	if s := stringOf(ds, tag.PhotometricInterpretation); s != "" {
		m.Photometric = s
	} else if m.SamplesPerPixel == 3 {
		m.Photometric = "RGB"
	}

	m.RescaleSlope = floatOf(ds, tag.RescaleSlope, 1)
	if m.RescaleSlope == 0 {
		m.RescaleSlope = 1
	}
	m.RescaleIntercept = floatOf(ds, tag.RescaleIntercept, 0)
	if wc, ok := floats(ds, tag.WindowCenter); ok {
		if ww, ok := floats(ds, tag.WindowWidth); ok && ww[0] > 0 {
			m.WindowCenter, m.WindowWidth, m.HasWindow = wc[0], ww[0], true
		}
	}

	if pos, ok := floats(ds, tag.ImagePositionPatient); ok && len(pos) == 3 {
		m.Plane.Origin = geometry.NewPoint3D(pos[0], pos[1], pos[2])
	}
	if ori, ok := floats(ds, tag.ImageOrientationPatient); ok && len(ori) == 6 {
		m.Plane.RowCosine = geometry.NewPoint3D(ori[0], ori[1], ori[2])
		m.Plane.ColumnCosine = geometry.NewPoint3D(ori[3], ori[4], ori[5])
	}
	if sp, ok := floats(ds, tag.PixelSpacing); ok && len(sp) == 2 && sp[0] > 0 && sp[1] > 0 {
		m.Plane.RowSpacing, m.Plane.ColumnSpacing = sp[0], sp[1]
	}
	if m.Plane.Validate() != nil {
		m.Plane = geometry.DefaultPlane()
	}
	m.FrameOfReferenceUID = stringOf(ds, tag.FrameOfReferenceUID)

	m.NumberOfFrames = intOf(ds, tag.NumberOfFrames, 1)
	m.FrameRate = frameRate(ds)
	m.SOPInstanceUID = stringOf(ds, tag.SOPInstanceUID)
	m.Modality = stringOf(ds, tag.Modality)
	m.SeriesDescription = stringOf(ds, tag.SeriesDescription)
	return m
}

// frameRate prefers the recommended display rate, then the cine rate, then
// the frame time in milliseconds.
func frameRate(ds *dicom.Dataset) float64 {
	if r := floatOf(ds, tag.RecommendedDisplayFrameRate, 0); r > 0 {
		return r
	}
	if r := floatOf(ds, tag.CineRate, 0); r > 0 {
		return r
	}
	if ft := floatOf(ds, tag.FrameTime, 0); ft > 0 {
		return 1000 / ft
	}
	return 0
}

func stringOf(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return ""
	}
	switch v := el.Value.GetValue().(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(strings.TrimRight(v[0], "\x00"))
		}
	}
	return ""
}

// floats reads a numeric element whatever VR it was stored with.
func floats(ds *dicom.Dataset, t tag.Tag) ([]float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil, false
	}
	var out []float64
	switch v := el.Value.GetValue().(type) {
	case []string:
		for _, s := range v {
			for _, part := range strings.Split(s, `\`) {
				f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimRight(part, "\x00")), 64)
				if err != nil {
					return nil, false
				}
				out = append(out, f)
			}
		}
	case []int:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case []float64:
		out = append(out, v...)
	}
	return out, len(out) > 0
}

func floatOf(ds *dicom.Dataset, t tag.Tag, def float64) float64 {
	if v, ok := floats(ds, t); ok {
		return v[0]
	}
	return def
}

func intOf(ds *dicom.Dataset, t tag.Tag, def int) int {
	if v, ok := floats(ds, t); ok {
		return int(v[0])
	}
	return def
}
