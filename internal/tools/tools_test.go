package tools_test

import (
	"errors"
	"testing"

	"cine-viewer/internal/tools"
)

func newGroup(t *testing.T) *tools.Group {
	t.Helper()
	m := tools.NewManager()
	for _, n := range tools.All() {
		if err := m.AddTool(n); err != nil {
			t.Fatalf("AddTool(%s) error: %v", n, err)
		}
	}
	g, err := m.CreateToolGroup("group")
	if err != nil {
		t.Fatalf("CreateToolGroup error: %v", err)
	}
	for _, n := range tools.All() {
		if err := g.AddTool(n); err != nil {
			t.Fatalf("group AddTool(%s) error: %v", n, err)
		}
	}
	return g
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    tools.Name
		wantErr bool
	}{
		{"Pan", tools.Pan, false},
		{"WindowLevel", tools.WindowLevel, false},
		{"EllipticalROI", tools.EllipticalROI, false},
		{"Label", tools.Label, false},
		{"pan", 0, true},
		{"Wwwc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := tools.Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, tools.ErrUnknownTool) {
					t.Errorf("Parse(%q) error = %v, want ErrUnknownTool", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestBindingsFor(t *testing.T) {
	for _, n := range tools.All() {
		b := tools.BindingsFor(n)
		if n == tools.WindowLevel {
			if len(b) != 2 || b[0] != tools.InputPrimary || b[1] != tools.InputWheel {
				t.Errorf("BindingsFor(WindowLevel) = %v", b)
			}
			continue
		}
		if len(b) != 1 || b[0] != tools.InputPrimary {
			t.Errorf("BindingsFor(%s) = %v, want [Primary]", n, b)
		}
	}
}

func TestSetToolActiveIsExclusive(t *testing.T) {
	g := newGroup(t)

	if err := g.SetToolActive(tools.Pan); err != nil {
		t.Fatal(err)
	}
	if err := g.SetToolActive(tools.Zoom); err != nil {
		t.Fatal(err)
	}

	if got := g.Mode(tools.Pan); got != tools.ModePassive {
		t.Errorf("Pan mode = %v, want Passive", got)
	}
	active := g.ActiveTools()
	if len(active) != 1 || active[0] != tools.Zoom {
		t.Errorf("ActiveTools() = %v, want [Zoom]", active)
	}
	if n, ok := g.ActiveTool(tools.InputPrimary); !ok || n != tools.Zoom {
		t.Errorf("ActiveTool(Primary) = %v, %v", n, ok)
	}
	if _, ok := g.ActiveTool(tools.InputWheel); ok {
		t.Error("wheel bound without WindowLevel")
	}
}

func TestWindowLevelClaimsWheel(t *testing.T) {
	g := newGroup(t)
	if err := g.SetToolActive(tools.WindowLevel); err != nil {
		t.Fatal(err)
	}
	if n, ok := g.ActiveTool(tools.InputWheel); !ok || n != tools.WindowLevel {
		t.Errorf("ActiveTool(Wheel) = %v, %v", n, ok)
	}

	if err := g.SetToolActive(tools.Length); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.ActiveTool(tools.InputWheel); ok {
		t.Error("wheel still bound after WindowLevel was demoted")
	}
}

func TestModeChangeCallback(t *testing.T) {
	g := newGroup(t)
	var got []string
	g.OnModeChange(func(n tools.Name, m tools.Mode) {
		got = append(got, n.String()+"="+m.String())
	})

	_ = g.SetToolActive(tools.Pan)
	_ = g.SetToolActive(tools.Angle)

	want := []string{"Pan=Active", "Pan=Passive", "Angle=Active"}
	if len(got) != len(want) {
		t.Fatalf("callbacks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestManagerErrors(t *testing.T) {
	m := tools.NewManager()
	g, err := m.CreateToolGroup("a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateToolGroup("a"); !errors.Is(err, tools.ErrGroupExists) {
		t.Errorf("duplicate CreateToolGroup error = %v", err)
	}
	if _, err := m.GetToolGroup("missing"); !errors.Is(err, tools.ErrGroupNotFound) {
		t.Errorf("GetToolGroup(missing) error = %v", err)
	}
	if err := g.AddTool(tools.Pan); !errors.Is(err, tools.ErrToolNotRegistered) {
		t.Errorf("AddTool unregistered error = %v", err)
	}
	if err := g.SetToolActive(tools.Pan); !errors.Is(err, tools.ErrToolNotInGroup) {
		t.Errorf("SetToolActive not in group error = %v", err)
	}
	if err := m.AddTool(tools.Name(99)); !errors.Is(err, tools.ErrUnknownTool) {
		t.Errorf("AddTool(99) error = %v", err)
	}

	m.DestroyToolGroup("a")
	if _, err := m.GetToolGroup("a"); err == nil {
		t.Error("group still present after DestroyToolGroup")
	}
}

func TestAddViewportDeduplicates(t *testing.T) {
	g := newGroup(t)
	g.AddViewport("vp")
	g.AddViewport("vp")
	if got := g.Viewports(); len(got) != 1 {
		t.Errorf("Viewports() = %v", got)
	}
}
