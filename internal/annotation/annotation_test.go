package annotation

import (
	"errors"
	"math"
	"testing"
	"time"

	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

func labelAt(imageID, text string) Annotation {
	return Annotation{
		Metadata: Metadata{
			ToolName:          tools.Label,
			ViewPlaneNormal:   geometry.Point3D{Z: -1},
			ViewUp:            geometry.Point3D{Y: -1},
			ReferencedImageID: imageID,
		},
		Data: Data{Text: text, Points: []geometry.Point3D{{X: 1, Y: 2}}},
	}
}

func TestAddAnnotation(t *testing.T) {
	s := NewStore()

	got, err := s.AddAnnotation(labelAt("img-1", "lesion"), "group-a")
	if err != nil {
		t.Fatalf("AddAnnotation() error = %v", err)
	}
	if got.UID == "" {
		t.Error("AddAnnotation() did not assign a UID")
	}
	if got.GroupKey != "group-a" {
		t.Errorf("GroupKey = %q, want group-a", got.GroupKey)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	all := s.GetAllAnnotations()
	if len(all) != 1 || all[0].Data.Text != "lesion" {
		t.Fatalf("GetAllAnnotations() = %+v", all)
	}
}

func TestAddAnnotationErrors(t *testing.T) {
	s := NewStore()

	tests := []struct {
		name    string
		a       Annotation
		key     string
		wantErr error
	}{
		{"empty group key", labelAt("img-1", "x"), "", ErrEmptyGroupKey},
		{"no image", labelAt("", "x"), "g", ErrNoImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddAnnotation(tt.a, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddAnnotation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	a := labelAt("img-1", "x")
	a.UID = "fixed"
	if _, err := s.AddAnnotation(a, "g"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := s.AddAnnotation(a, "g"); !errors.Is(err, ErrDuplicateUID) {
		t.Errorf("second add error = %v, want ErrDuplicateUID", err)
	}
}

func TestStoreQueries(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	a1, _ := s.AddAnnotation(labelAt("img-1", "first"), "g1")
	_, _ = s.AddAnnotation(labelAt("img-2", "second"), "g2")
	_, _ = s.AddAnnotation(labelAt("img-1", "third"), "g2")

	if n := s.Count(); n != 3 {
		t.Fatalf("Count() = %d, want 3", n)
	}

	all := s.GetAllAnnotations()
	want := []string{"first", "second", "third"}
	for i, a := range all {
		if a.Data.Text != want[i] {
			t.Errorf("GetAllAnnotations()[%d] = %q, want %q", i, a.Data.Text, want[i])
		}
	}

	if got := s.ForImage("img-1"); len(got) != 2 {
		t.Errorf("ForImage(img-1) = %d annotations, want 2", len(got))
	}
	if got := s.GetAnnotations("g2"); len(got) != 2 {
		t.Errorf("GetAnnotations(g2) = %d annotations, want 2", len(got))
	}

	if err := s.Remove(a1.UID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(a1.UID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() twice error = %v, want ErrNotFound", err)
	}
	if n := s.Count(); n != 2 {
		t.Errorf("Count() after remove = %d, want 2", n)
	}
}

func TestAddAnnotationCopiesPoints(t *testing.T) {
	s := NewStore()
	a := labelAt("img-1", "x")
	stored, _ := s.AddAnnotation(a, "g")
	a.Data.Points[0].X = 99
	if stored.Data.Points[0].X == 99 {
		t.Error("stored annotation aliases caller points")
	}
}

func TestMeasure(t *testing.T) {
	up := geometry.Point3D{Y: -1}
	normal := geometry.Point3D{Z: -1}

	tests := []struct {
		name   string
		tool   tools.Name
		points []geometry.Point3D
		want   float64
		unit   string
	}{
		{"length", tools.Length, []geometry.Point3D{{}, {X: 3, Y: 4}}, 5, UnitMM},
		{"rectangle", tools.RectangleROI, []geometry.Point3D{{X: 1, Y: 1}, {X: 5, Y: 3}}, 8, UnitMM2},
		{"ellipse", tools.EllipticalROI, []geometry.Point3D{{}, {X: 4, Y: 2}}, math.Pi * 2, UnitMM2},
		{"right angle", tools.Angle, []geometry.Point3D{{X: 1}, {}, {Y: 1}}, 90, UnitDegrees},
		{"straight angle", tools.Angle, []geometry.Point3D{{X: -1}, {}, {X: 1}}, 180, UnitDegrees},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Measure(tt.tool, tt.points, up, normal)
			if m == nil {
				t.Fatal("Measure() = nil")
			}
			if math.Abs(m.Value-tt.want) > 1e-9 || m.Unit != tt.unit {
				t.Errorf("Measure() = %v %s, want %v %s", m.Value, m.Unit, tt.want, tt.unit)
			}
		})
	}

	if m := Measure(tools.Label, []geometry.Point3D{{}}, up, normal); m != nil {
		t.Errorf("Measure(Label) = %+v, want nil", m)
	}
	if m := Measure(tools.Angle, []geometry.Point3D{{}, {}, {X: 1}}, up, normal); m != nil {
		t.Errorf("Measure(degenerate angle) = %+v, want nil", m)
	}
}
