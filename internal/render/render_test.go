package render

import (
	"image"
	"image/color"
	"testing"

	"cine-viewer/internal/dicomstack"
	"cine-viewer/pkg/colorutil"
	"cine-viewer/pkg/geometry"
)

func TestVOIMap(t *testing.T) {
	v := VOI{Center: 40, Width: 400}
	tests := []struct {
		name string
		x    float64
		want uint8
	}{
		{"below window", -1000, 0},
		{"above window", 1000, 255},
		{"center", 40, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Map(tt.x)
			if d := int(got) - int(tt.want); d < -1 || d > 1 {
				t.Errorf("Map(%v) = %d, want %d", tt.x, got, tt.want)
			}
		})
	}
}

func TestVOIAdjustKeepsWidthPositive(t *testing.T) {
	v := VOI{Center: 0, Width: 10}.Adjust(-100, 5)
	if v.Width != minWindowWidth || v.Center != 5 {
		t.Errorf("Adjust() = %+v", v)
	}
}

func TestDefaultVOI(t *testing.T) {
	f := dicomstack.NewGrayFrame(0, 2, 1, []float32{-100, 300})

	meta := dicomstack.DefaultMetadata(1, 2)
	if got := DefaultVOI(meta, f); got.Width != 400 || got.Center != 100 {
		t.Errorf("DefaultVOI(range) = %+v", got)
	}

	meta.HasWindow, meta.WindowCenter, meta.WindowWidth = true, 50, 350
	if got := DefaultVOI(meta, f); got.Width != 350 || got.Center != 50 {
		t.Errorf("DefaultVOI(tags) = %+v", got)
	}
}

func TestWindowInvert(t *testing.T) {
	f := dicomstack.NewGrayFrame(0, 2, 1, []float32{0, 255})
	v := VOI{Center: 127.5, Width: 256}

	plain := Window(f, v, false)
	inv := Window(f, v, true)
	if plain.Pix[0] != 0 || plain.Pix[4] != 255 {
		t.Errorf("plain = %v", plain.Pix[:8])
	}
	if inv.Pix[0] != 255 || inv.Pix[4] != 0 {
		t.Errorf("inverted = %v", inv.Pix[:8])
	}
}

func TestResampleScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	Resample(dst, src, geometry.Scale(2, 2))

	if got := dst.RGBAAt(1, 1); got.R == 0 {
		t.Errorf("inside pixel = %v, want painted", got)
	}
	if got := dst.RGBAAt(6, 6); got.A != 0 {
		t.Errorf("outside pixel = %v, want untouched", got)
	}
}

func TestRenderEmptyScene(t *testing.T) {
	out, err := Render(Scene{Width: 4, Height: 3})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(2, 2); got != colorutil.Background {
		t.Errorf("pixel = %v, want background", got)
	}
}

func TestRenderDrawsShapes(t *testing.T) {
	s := Scene{
		Width:  40,
		Height: 40,
		Shapes: []Shape{{
			Kind:   ShapeRect,
			Points: []geometry.Point2D{{X: 5, Y: 5}, {X: 35, Y: 35}},
			Color:  colorutil.Yellow,
		}},
	}
	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !anyPixel(out, func(c color.RGBA) bool { return c.R > 128 && c.G > 128 && c.B < 64 }) {
		t.Error("no yellow pixels after drawing a rectangle")
	}
}

func anyPixel(img *image.RGBA, fn func(color.RGBA) bool) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if fn(img.RGBAAt(x, y)) {
				return true
			}
		}
	}
	return false
}

func TestRenderOverlaysWithoutError(t *testing.T) {
	pts := []geometry.Point2D{{X: 4, Y: 4}, {X: 30, Y: 20}, {X: 10, Y: 34}}
	s := Scene{
		Width:  40,
		Height: 40,
		Shapes: []Shape{
			{Kind: ShapeLine, Points: pts[:2], Color: colorutil.Yellow},
			{Kind: ShapeLine, Points: pts[:1], Color: colorutil.Yellow},
			{Kind: ShapeRect, Points: pts[:2], Color: colorutil.Yellow},
			{Kind: ShapeEllipse, Points: pts[:2], Color: colorutil.Yellow},
			{Kind: ShapePolyline, Points: pts, Color: colorutil.Yellow},
			{Kind: ShapePolyline, Points: pts[:1], Color: colorutil.Yellow},
			{Kind: ShapeMarker, Points: pts[:1], Color: colorutil.Yellow, Text: "a"},
		},
		Magnifier: &Magnifier{Center: geometry.Point2D{X: 20, Y: 20}, Radius: 8, Level: 2},
	}
	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !anyPixel(out, func(c color.RGBA) bool { return c.R > 200 && c.G > 200 && c.B > 200 }) {
		t.Error("magnifier outline missing")
	}
}
