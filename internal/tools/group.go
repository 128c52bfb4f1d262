package tools

import (
	"fmt"
	"sync"
)

// Config holds optional per-tool settings.
type Config struct {
	// MagnificationLevel is the inset zoom factor for Magnify.
	MagnificationLevel float64
	// ElementRadius is the inset radius in canvas pixels for Magnify.
	ElementRadius int
}

type toolState struct {
	mode     Mode
	bindings []Input
	config   Config
}

// Group is a named set of tools bound to one or more viewports.
// At most one tool is active per input; activating a tool on an input
// forces the previous holder of that input passive.
type Group struct {
	mu        sync.RWMutex
	id        string
	manager   *Manager
	tools     map[Name]*toolState
	viewports []string
	onChange  func(name Name, mode Mode)
}

// ID returns the group identifier.
func (g *Group) ID() string {
	return g.id
}

// AddTool adds a registered tool to the group in disabled mode.
func (g *Group) AddTool(name Name, cfg ...Config) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTool, int(name))
	}
	if g.manager != nil && !g.manager.IsRegistered(name) {
		return fmt.Errorf("%w: %s", ErrToolNotRegistered, name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st := &toolState{mode: ModeDisabled}
	if len(cfg) > 0 {
		st.config = cfg[0]
	}
	g.tools[name] = st
	return nil
}

// HasTool reports whether the group contains the tool.
func (g *Group) HasTool(name Name) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.tools[name]
	return ok
}

// ToolConfig returns the configuration the tool was added with.
func (g *Group) ToolConfig(name Name) (Config, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st, ok := g.tools[name]
	if !ok {
		return Config{}, false
	}
	return st.config, true
}

// AddViewport binds the group to a viewport.
func (g *Group) AddViewport(viewportID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.viewports {
		if id == viewportID {
			return
		}
	}
	g.viewports = append(g.viewports, viewportID)
}

// Viewports returns the IDs of bound viewports.
func (g *Group) Viewports() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.viewports))
	copy(out, g.viewports)
	return out
}

// OnModeChange sets a callback invoked after each mode change.
func (g *Group) OnModeChange(callback func(name Name, mode Mode)) {
	g.mu.Lock()
	g.onChange = callback
	g.mu.Unlock()
}

// SetToolActive activates a tool on the given inputs. With no inputs the
// tool's default bindings are used.
func (g *Group) SetToolActive(name Name, inputs ...Input) error {
	if len(inputs) == 0 {
		inputs = BindingsFor(name)
	}

	g.mu.Lock()
	st, ok := g.tools[name]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrToolNotInGroup, name)
	}

	var demoted []Name
	for other, ost := range g.tools {
		if other == name || ost.mode != ModeActive {
			continue
		}
		if overlaps(ost.bindings, inputs) {
			ost.mode = ModePassive
			ost.bindings = nil
			demoted = append(demoted, other)
		}
	}
	st.mode = ModeActive
	st.bindings = append([]Input(nil), inputs...)
	cb := g.onChange
	g.mu.Unlock()

	if cb != nil {
		for _, d := range demoted {
			cb(d, ModePassive)
		}
		cb(name, ModeActive)
	}
	return nil
}

// SetToolPassive makes a tool passive and releases its bindings.
func (g *Group) SetToolPassive(name Name) error {
	return g.setMode(name, ModePassive)
}

// SetToolEnabled makes a tool render-only.
func (g *Group) SetToolEnabled(name Name) error {
	return g.setMode(name, ModeEnabled)
}

// SetToolDisabled disables a tool.
func (g *Group) SetToolDisabled(name Name) error {
	return g.setMode(name, ModeDisabled)
}

func (g *Group) setMode(name Name, mode Mode) error {
	g.mu.Lock()
	st, ok := g.tools[name]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrToolNotInGroup, name)
	}
	st.mode = mode
	st.bindings = nil
	cb := g.onChange
	g.mu.Unlock()

	if cb != nil {
		cb(name, mode)
	}
	return nil
}

// Mode returns the current mode of a tool.
func (g *Group) Mode(name Name) Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if st, ok := g.tools[name]; ok {
		return st.mode
	}
	return ModeDisabled
}

// ActiveTool returns the tool bound to an input, if any.
func (g *Group) ActiveTool(input Input) (Name, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for name, st := range g.tools {
		if st.mode != ModeActive {
			continue
		}
		for _, b := range st.bindings {
			if b == input {
				return name, true
			}
		}
	}
	return 0, false
}

// ActiveTools returns every tool currently in active mode.
func (g *Group) ActiveTools() []Name {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Name
	for _, name := range All() {
		if st, ok := g.tools[name]; ok && st.mode == ModeActive {
			out = append(out, name)
		}
	}
	return out
}

func overlaps(a, b []Input) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
