package viewer

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cine-viewer/internal/annotation"
	"cine-viewer/internal/app"
	"cine-viewer/internal/tools"
	"cine-viewer/internal/viewport"
	"cine-viewer/pkg/geometry"
)

const waitTimeout = 2 * time.Second

var discard = slog.New(slog.DiscardHandler)

type fakeViewport struct {
	mu      sync.Mutex
	index   int
	count   int
	renders int
	offImg  bool
	noImage bool
	camera  viewport.Camera
	// hold, when set, makes the next SetImageIDIndex block until a result
	// is sent on it.
	hold    chan error
	holding chan struct{}
}

func newFakeViewport(count int) *fakeViewport {
	return &fakeViewport{
		count: count,
		camera: viewport.Camera{
			Zoom:            1,
			ViewPlaneNormal: geometry.NewPoint3D(0, 0, 1),
			ViewUp:          geometry.NewPoint3D(0, -1, 0),
		},
	}
}

func (f *fakeViewport) ID() string { return "vp-test" }

// holdNextSet makes the next SetImageIDIndex block. The returned channels
// report that the call has started and deliver its result.
func (f *fakeViewport) holdNextSet() (started <-chan struct{}, release chan<- error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = make(chan error)
	f.holding = make(chan struct{})
	return f.holding, f.hold
}

func (f *fakeViewport) SetImageIDIndex(index int) error {
	f.mu.Lock()
	hold, holding := f.hold, f.holding
	f.hold, f.holding = nil, nil
	f.mu.Unlock()
	if hold != nil {
		close(holding)
		if err := <-hold; err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= f.count {
		return viewport.ErrIndexRange
	}
	f.index = index
	return nil
}

func (f *fakeViewport) CurrentImageIDIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

func (f *fakeViewport) CurrentImageID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noImage {
		return "", false
	}
	return fmt.Sprintf("img-%d", f.index), true
}

// CanvasToWorld maps canvas (x, y) to world (x, y, 5).
func (f *fakeViewport) CanvasToWorld(p geometry.Point2D) (geometry.Point3D, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offImg {
		return geometry.Point3D{}, false
	}
	return geometry.NewPoint3D(p.X, p.Y, 5), true
}

func (f *fakeViewport) Camera() viewport.Camera {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.camera
}

func (f *fakeViewport) FrameOfReferenceUID() string { return "1.2.3" }

func (f *fakeViewport) Render() error {
	f.mu.Lock()
	f.renders++
	f.mu.Unlock()
	return nil
}

func (f *fakeViewport) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renders
}

type fakeSurface struct {
	mu   sync.Mutex
	subs map[int]func(DoubleClick)
	next int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{subs: make(map[int]func(DoubleClick))}
}

func (s *fakeSurface) SubscribeDoubleClick(fn func(DoubleClick)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *fakeSurface) doubleClick(canvas, screen geometry.Point2D) {
	s.mu.Lock()
	var fns []func(DoubleClick)
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(DoubleClick{Canvas: canvas, Screen: screen})
	}
}

func (s *fakeSurface) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	c       chan time.Time
	fired   bool
	stopped bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.fired && !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) isStopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}

// fakeClock fires timers only when the test advances it.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	created chan *fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		created: make(chan *fakeTimer, 64),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), c: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	if !t.at.After(c.now) {
		t.fired = true
		t.c <- c.now
	}
	c.mu.Unlock()
	c.created <- t
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if t.fired || t.stopped || t.at.After(c.now) {
			continue
		}
		t.fired = true
		t.c <- c.now
	}
}

func (c *fakeClock) waitTimer(t *testing.T) *fakeTimer {
	t.Helper()
	select {
	case tm := <-c.created:
		return tm
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a timer")
		return nil
	}
}

func (c *fakeClock) expectNoTimer(t *testing.T) {
	t.Helper()
	select {
	case tm := <-c.created:
		t.Fatalf("unexpected timer at %v", tm.at)
	case <-time.After(50 * time.Millisecond):
	}
}

func listen(state *app.State, typ app.EventType) <-chan any {
	ch := make(chan any, 64)
	state.On(typ, func(data any) { ch <- data })
	return ch
}

func waitEvent(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func expectNoEvent(t *testing.T, ch <-chan any) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// newToolGroup returns a group holding every tool, as Open builds it.
func newToolGroup(t *testing.T) *tools.Group {
	t.Helper()
	m := tools.NewManager()
	g, err := m.CreateToolGroup("group-test")
	if err != nil {
		t.Fatalf("CreateToolGroup: %v", err)
	}
	for _, name := range tools.All() {
		if err := m.AddTool(name); err != nil {
			t.Fatalf("AddTool(%s): %v", name, err)
		}
		if err := g.AddTool(name); err != nil {
			t.Fatalf("group AddTool(%s): %v", name, err)
		}
	}
	return g
}

type harness struct {
	vp    *fakeViewport
	group *tools.Group
	store *annotation.Store
	state *app.State
	h     *handles
	nav   *Navigator
	coord *ToolCoordinator
}

func newHarness(t *testing.T, count int) *harness {
	t.Helper()
	vp := newFakeViewport(count)
	group := newToolGroup(t)
	store := annotation.NewStore()
	state := app.NewState()
	h := newHandles(vp, group, store)
	nav := newNavigator(h, state, discard)
	nav.Load(count, 0)
	return &harness{
		vp:    vp,
		group: group,
		store: store,
		state: state,
		h:     h,
		nav:   nav,
		coord: newToolCoordinator(h, state, discard),
	}
}
