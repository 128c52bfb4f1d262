package viewer

import (
	"testing"
	"time"

	"cine-viewer/internal/app"
)

func TestSeek(t *testing.T) {
	tests := []struct {
		name   string
		target int
		ok     bool
		want   int
	}{
		{"first", 0, true, 0},
		{"middle", 2, true, 2},
		{"last", 4, true, 4},
		{"negative", -1, false, 1},
		{"past end", 5, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t, 5)
			if !hs.nav.Seek(1) {
				t.Fatal("Seek(1) rejected")
			}
			frames := listen(hs.state, app.EventFrameChanged)
			renders := hs.vp.renderCount()

			if got := hs.nav.Seek(tt.target); got != tt.ok {
				t.Fatalf("Seek(%d) = %v, want %v", tt.target, got, tt.ok)
			}
			if got := hs.nav.Index(); got != tt.want {
				t.Errorf("Index() = %d, want %d", got, tt.want)
			}
			if got := hs.vp.CurrentImageIDIndex(); got != tt.want {
				t.Errorf("viewport index = %d, want %d", got, tt.want)
			}

			if !tt.ok {
				expectNoEvent(t, frames)
				if hs.vp.renderCount() != renders {
					t.Error("rejected seek rendered")
				}
				return
			}
			ev := waitEvent(t, frames).(app.FrameChanged)
			if ev.Index != tt.want || ev.Count != 5 {
				t.Errorf("event = %+v", ev)
			}
			if ev.ImageID == "" {
				t.Error("event has no image ID")
			}
		})
	}
}

func TestStep(t *testing.T) {
	hs := newHarness(t, 3)

	if hs.nav.Prev() {
		t.Error("Prev() at first frame moved")
	}
	if !hs.nav.Next() || !hs.nav.Next() {
		t.Fatal("Next() rejected")
	}
	if hs.nav.Next() {
		t.Error("Next() at last frame moved")
	}
	if got := hs.nav.Index(); got != 2 {
		t.Errorf("Index() = %d, want 2", got)
	}
	if !hs.nav.Step(-2) || hs.nav.Index() != 0 {
		t.Errorf("Step(-2) left index %d", hs.nav.Index())
	}
}

func TestSeekWithoutViewport(t *testing.T) {
	hs := newHarness(t, 5)
	hs.h.clear()

	if hs.nav.Seek(2) {
		t.Error("Seek succeeded without a viewport")
	}
	if hs.nav.Index() != 0 {
		t.Errorf("Index() = %d, want 0", hs.nav.Index())
	}
}

func TestNavigable(t *testing.T) {
	tests := []struct {
		count int
		want  bool
	}{
		{0, false},
		{1, false},
		{2, true},
	}
	for _, tt := range tests {
		hs := newHarness(t, tt.count)
		if got := hs.nav.Navigable(); got != tt.want {
			t.Errorf("Navigable() with %d frames = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestTimecode(t *testing.T) {
	hs := newHarness(t, 40)
	if got := hs.nav.Timecode(100 * time.Millisecond); got != "1 / 40  00:00.00" {
		t.Errorf("Timecode() = %q", got)
	}
	hs.nav.Seek(12)
	if got := hs.nav.Timecode(100 * time.Millisecond); got != "13 / 40  00:01.20" {
		t.Errorf("Timecode() = %q", got)
	}

	empty := newHarness(t, 0)
	if got := empty.nav.Timecode(time.Second); got != "0 / 0  00:00.00" {
		t.Errorf("empty Timecode() = %q", got)
	}
}
