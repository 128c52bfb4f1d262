package viewer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cine-viewer/internal/app"
)

// Navigator owns the current frame index of a viewer. Seeks are serialized:
// each one either fully applies (viewport index, render, event) or is rejected.
type Navigator struct {
	h      *handles
	state  *app.State
	logger *slog.Logger

	// seekMu orders seeks from the UI and the playback loop. Listeners are
	// always notified after it is released.
	seekMu sync.Mutex

	mu    sync.Mutex
	index int
	count int
}

func newNavigator(h *handles, state *app.State, logger *slog.Logger) *Navigator {
	return &Navigator{
		h:      h,
		state:  state,
		logger: logger.With(slog.String("component", "navigator")),
	}
}

// Load records the frame count of a freshly loaded stack and the index the
// viewport was opened at.
func (n *Navigator) Load(count, index int) {
	n.mu.Lock()
	n.count = count
	n.index = index
	n.mu.Unlock()
}

// Index returns the current 0-based frame index.
func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Count returns the number of frames in the loaded stack.
func (n *Navigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// Navigable reports whether there is more than one frame to move between.
func (n *Navigator) Navigable() bool {
	return n.Count() > 1
}

// Seek moves to a 0-based frame index. Out of range indexes and seeks without
// a viewport are rejected and leave the index unchanged.
func (n *Navigator) Seek(index int) bool {
	n.seekMu.Lock()
	ev, ok := n.seekLocked(index)
	n.seekMu.Unlock()
	if ok {
		n.state.Emit(app.EventFrameChanged, ev)
	}
	return ok
}

// Step moves by delta frames relative to the current index without wrapping.
func (n *Navigator) Step(delta int) bool {
	n.seekMu.Lock()
	ev, ok := n.seekLocked(n.Index() + delta)
	n.seekMu.Unlock()
	if ok {
		n.state.Emit(app.EventFrameChanged, ev)
	}
	return ok
}

// Next steps one frame forward.
func (n *Navigator) Next() bool { return n.Step(1) }

// Prev steps one frame back.
func (n *Navigator) Prev() bool { return n.Step(-1) }

func (n *Navigator) seekLocked(index int) (app.FrameChanged, bool) {
	count := n.Count()
	if index < 0 || index >= count {
		n.logger.Debug("seek out of range", slog.Int("index", index), slog.Int("count", count))
		return app.FrameChanged{}, false
	}

	vp := n.h.viewport()
	if vp == nil {
		n.logger.Warn("seek without viewport", slog.Int("index", index))
		return app.FrameChanged{}, false
	}
	if err := vp.SetImageIDIndex(index); err != nil {
		n.logger.Error("seek failed", slog.Int("index", index), slog.Any("error", err))
		return app.FrameChanged{}, false
	}

	n.mu.Lock()
	n.index = index
	n.mu.Unlock()

	if err := vp.Render(); err != nil {
		n.logger.Error("render failed", slog.Int("index", index), slog.Any("error", err))
	}
	id, _ := vp.CurrentImageID()
	return app.FrameChanged{Index: index, Count: count, ImageID: id}, true
}

// Timecode formats the current position with FormatPosition.
func (n *Navigator) Timecode(interval time.Duration) string {
	n.mu.Lock()
	index, count := n.index, n.count
	n.mu.Unlock()
	return FormatPosition(index, count, interval)
}

// FormatPosition formats a position as "3 / 40  00:01.23": the 1-based frame
// number, the frame count and the elapsed time at the given frame interval.
func FormatPosition(index, count int, interval time.Duration) string {
	if count == 0 {
		return "0 / 0  00:00.00"
	}
	elapsed := time.Duration(index) * interval
	minutes := int(elapsed / time.Minute)
	seconds := (elapsed % time.Minute).Seconds()
	return fmt.Sprintf("%d / %d  %02d:%05.2f", index+1, count, minutes, seconds)
}
