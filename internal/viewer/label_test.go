package viewer

import (
	"errors"
	"testing"

	"cine-viewer/internal/app"
	"cine-viewer/internal/tools"
	"cine-viewer/pkg/geometry"
)

func newTestLabels(t *testing.T, hs *harness) (*LabelWorkflow, *fakeSurface) {
	t.Helper()
	surface := newFakeSurface()
	l := newLabelWorkflow(hs.h, hs.coord, hs.state, "group-test", discard)
	l.Attach(surface)
	t.Cleanup(l.Detach)
	return l, surface
}

func TestLabelRoundTrip(t *testing.T) {
	hs := newHarness(t, 5)
	labels, surface := newTestLabels(t, hs)
	if err := hs.coord.SelectTool(tools.Pan); err != nil {
		t.Fatal(err)
	}
	hs.nav.Seek(2)
	started := listen(hs.state, app.EventLabelEntryStarted)
	ended := listen(hs.state, app.EventLabelEntryEnded)

	surface.doubleClick(geometry.NewPoint2D(3, 4), geometry.NewPoint2D(30, 40))
	if labels.State() != LabelAwaitingText {
		t.Fatalf("State() = %s, want AwaitingText", labels.State())
	}
	ev := waitEvent(t, started).(app.LabelEntryStarted)
	if ev.ImageID != "img-2" || ev.ScreenPosition != geometry.NewPoint2D(30, 40) {
		t.Errorf("started event = %+v", ev)
	}

	a, err := labels.Commit("  nodule ")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if a == nil {
		t.Fatal("Commit returned no annotation")
	}

	all := hs.store.GetAllAnnotations()
	if len(all) != 1 {
		t.Fatalf("stored %d annotations, want 1", len(all))
	}
	got := all[0]
	if got.ToolName != tools.Label || got.Text != "nodule" {
		t.Errorf("annotation = %s %q", got.ToolName, got.Text)
	}
	if got.ReferencedImageID != "img-2" {
		t.Errorf("ReferencedImageID = %q", got.ReferencedImageID)
	}
	if len(got.Points) != 1 || got.Points[0] != geometry.NewPoint3D(3, 4, 5) {
		t.Errorf("Points = %v", got.Points)
	}
	if got.GroupKey != "group-test" || got.FrameOfReferenceUID != "1.2.3" {
		t.Errorf("GroupKey %q, FoR %q", got.GroupKey, got.FrameOfReferenceUID)
	}
	if got.ViewPlaneNormal != geometry.NewPoint3D(0, 0, 1) || got.ViewUp != geometry.NewPoint3D(0, -1, 0) {
		t.Errorf("camera vectors %v %v", got.ViewPlaneNormal, got.ViewUp)
	}

	if name, ok := hs.group.ActiveTool(tools.InputPrimary); !ok || name != tools.Pan {
		t.Errorf("primary owned by %v, %v; want Pan", name, ok)
	}
	if hs.group.Mode(tools.Label) != tools.ModePassive {
		t.Errorf("Label mode = %s", hs.group.Mode(tools.Label))
	}
	if labels.State() != LabelIdle {
		t.Errorf("State() = %s after commit", labels.State())
	}
	end := waitEvent(t, ended).(app.LabelEntryEnded)
	if !end.Committed || end.Annotation == nil || end.Annotation.UID != got.UID {
		t.Errorf("ended event = %+v", end)
	}
}

func TestLabelCancel(t *testing.T) {
	tests := []struct {
		name   string
		finish func(t *testing.T, l *LabelWorkflow)
	}{
		{"blur", func(t *testing.T, l *LabelWorkflow) { l.Cancel() }},
		{"empty confirm", func(t *testing.T, l *LabelWorkflow) {
			if a, err := l.Commit("   "); a != nil || err != nil {
				t.Errorf("Commit(blank) = %v, %v", a, err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t, 5)
			labels, surface := newTestLabels(t, hs)
			if err := hs.coord.SelectTool(tools.Zoom); err != nil {
				t.Fatal(err)
			}
			ended := listen(hs.state, app.EventLabelEntryEnded)

			surface.doubleClick(geometry.NewPoint2D(1, 1), geometry.NewPoint2D(1, 1))
			tt.finish(t, labels)

			if n := hs.store.Count(); n != 0 {
				t.Errorf("stored %d annotations", n)
			}
			if name, ok := hs.group.ActiveTool(tools.InputPrimary); !ok || name != tools.Zoom {
				t.Errorf("primary owned by %v, %v; want Zoom", name, ok)
			}
			if labels.State() != LabelIdle {
				t.Errorf("State() = %s", labels.State())
			}
			if ev := waitEvent(t, ended).(app.LabelEntryEnded); ev.Committed {
				t.Error("cancel reported a commit")
			}
		})
	}
}

func TestLabelDoubleClickAborts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(vp *fakeViewport)
	}{
		{"off image", func(vp *fakeViewport) { vp.offImg = true }},
		{"no image", func(vp *fakeViewport) { vp.noImage = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t, 5)
			labels, surface := newTestLabels(t, hs)
			started := listen(hs.state, app.EventLabelEntryStarted)
			tt.setup(hs.vp)

			surface.doubleClick(geometry.NewPoint2D(1, 1), geometry.NewPoint2D(1, 1))
			if labels.State() != LabelIdle {
				t.Errorf("State() = %s", labels.State())
			}
			expectNoEvent(t, started)
		})
	}
}

func TestLabelLastClickWins(t *testing.T) {
	hs := newHarness(t, 5)
	labels, surface := newTestLabels(t, hs)

	surface.doubleClick(geometry.NewPoint2D(1, 1), geometry.NewPoint2D(1, 1))
	surface.doubleClick(geometry.NewPoint2D(8, 9), geometry.NewPoint2D(8, 9))
	if _, err := labels.Commit("second"); err != nil {
		t.Fatal(err)
	}

	all := hs.store.GetAllAnnotations()
	if len(all) != 1 {
		t.Fatalf("stored %d annotations, want 1", len(all))
	}
	if all[0].Points[0] != geometry.NewPoint3D(8, 9, 5) {
		t.Errorf("label at %v", all[0].Points[0])
	}
}

func TestLabelPreconditions(t *testing.T) {
	hs := newHarness(t, 5)
	labels, surface := newTestLabels(t, hs)

	if _, err := labels.Commit("x"); !errors.Is(err, ErrLabelPrecondition) {
		t.Errorf("Commit without pending error = %v", err)
	}

	surface.doubleClick(geometry.NewPoint2D(1, 1), geometry.NewPoint2D(1, 1))
	hs.h.clear()
	if _, err := labels.Commit("x"); !errors.Is(err, ErrLabelPrecondition) {
		t.Errorf("Commit without handles error = %v", err)
	}
	if labels.State() != LabelAwaitingText {
		t.Error("failed commit closed the entry")
	}
}

func TestLabelCommitWithLabelSelected(t *testing.T) {
	hs := newHarness(t, 5)
	labels, surface := newTestLabels(t, hs)
	if err := hs.coord.SelectTool(tools.Label); err != nil {
		t.Fatal(err)
	}

	surface.doubleClick(geometry.NewPoint2D(1, 1), geometry.NewPoint2D(1, 1))
	if _, err := labels.Commit("x"); err != nil {
		t.Fatal(err)
	}
	if hs.group.Mode(tools.Label) != tools.ModePassive {
		t.Errorf("Label mode = %s", hs.group.Mode(tools.Label))
	}
	if name, ok := hs.group.ActiveTool(tools.InputPrimary); ok {
		t.Errorf("primary owned by %s", name)
	}
}

func TestLabelDetach(t *testing.T) {
	hs := newHarness(t, 5)
	labels, surface := newTestLabels(t, hs)
	if surface.subscribers() != 1 {
		t.Fatalf("subscribers = %d", surface.subscribers())
	}
	labels.Detach()
	if surface.subscribers() != 0 {
		t.Errorf("subscribers = %d after Detach", surface.subscribers())
	}
	surface.doubleClick(geometry.NewPoint2D(1, 1), geometry.NewPoint2D(1, 1))
	if labels.State() != LabelIdle {
		t.Error("detached workflow reacted to a double-click")
	}
}

func TestLabelEndClearsPreviousTool(t *testing.T) {
	hs := newHarness(t, 5)
	labels, surface := newTestLabels(t, hs)
	if err := hs.coord.SelectTool(tools.Pan); err != nil {
		t.Fatal(err)
	}

	surface.doubleClick(geometry.NewPoint2D(3, 4), geometry.NewPoint2D(3, 4))
	if prev, ok := hs.coord.Previous(); !ok || prev != tools.Pan {
		t.Fatalf("Previous() during entry = %v, %v", prev, ok)
	}
	if _, err := labels.Commit("first"); err != nil {
		t.Fatal(err)
	}
	if prev, ok := hs.coord.Previous(); ok {
		t.Errorf("Previous() after commit = %v, want cleared", prev)
	}

	// The restored tool is recorded again by the next entry.
	surface.doubleClick(geometry.NewPoint2D(5, 6), geometry.NewPoint2D(5, 6))
	if prev, ok := hs.coord.Previous(); !ok || prev != tools.Pan {
		t.Fatalf("Previous() on second entry = %v, %v", prev, ok)
	}
	labels.Cancel()
	if _, ok := hs.coord.Previous(); ok {
		t.Error("Previous() survived Cancel")
	}

	surface.doubleClick(geometry.NewPoint2D(5, 6), geometry.NewPoint2D(5, 6))
	if _, err := labels.Commit("second"); err != nil {
		t.Fatal(err)
	}
	if got, ok := hs.coord.Active(); !ok || got != tools.Pan {
		t.Errorf("Active() = %v, %v, want Pan", got, ok)
	}
}
