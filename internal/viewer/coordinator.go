package viewer

import (
	"fmt"
	"log/slog"
	"sync"

	"cine-viewer/internal/app"
	"cine-viewer/internal/tools"
)

// ToolCoordinator keeps exactly one tool active on the primary input and
// remembers the last tool the user picked.
type ToolCoordinator struct {
	h      *handles
	state  *app.State
	logger *slog.Logger

	mu          sync.Mutex
	active      tools.Name
	hasActive   bool
	previous    tools.Name
	hasPrevious bool
}

func newToolCoordinator(h *handles, state *app.State, logger *slog.Logger) *ToolCoordinator {
	return &ToolCoordinator{
		h:      h,
		state:  state,
		logger: logger.With(slog.String("component", "tools")),
	}
}

// SelectTool activates name with its bindings and makes every other tool
// passive.
func (c *ToolCoordinator) SelectTool(name tools.Name) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTool, int(name))
	}
	group, vp := c.h.toolGroup(), c.h.viewport()
	if group == nil || vp == nil {
		c.logger.Warn("tool selection without tool group or viewport", slog.String("tool", name.String()))
		return ErrNotReady
	}

	if err := group.SetToolActive(name, tools.BindingsFor(name)...); err != nil {
		return fmt.Errorf("activate %s: %w", name, err)
	}
	for _, other := range tools.All() {
		if other == name {
			continue
		}
		if err := group.SetToolPassive(other); err != nil {
			c.logger.Warn("set passive failed", slog.String("tool", other.String()), slog.Any("error", err))
		}
	}

	c.mu.Lock()
	c.active, c.hasActive = name, true
	c.previous, c.hasPrevious = name, true
	c.mu.Unlock()

	if err := vp.Render(); err != nil {
		c.logger.Error("render failed", slog.Any("error", err))
	}
	c.logger.Debug("tool selected", slog.String("tool", name.String()))
	c.state.Emit(app.EventToolChanged, app.ToolChanged{Tool: name})
	return nil
}

// SelectToolByName parses a tool identifier and selects it.
func (c *ToolCoordinator) SelectToolByName(s string) error {
	name, err := tools.Parse(s)
	if err != nil {
		return err
	}
	return c.SelectTool(name)
}

// Active returns the tool currently on the primary input.
func (c *ToolCoordinator) Active() (tools.Name, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.hasActive
}

// Previous returns the tool to restore after a label commit.
func (c *ToolCoordinator) Previous() (tools.Name, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previous, c.hasPrevious
}

// beginLabel records the tool to restore when a label entry ends. The tool
// currently on the primary input wins over the last selection.
func (c *ToolCoordinator) beginLabel() (tools.Name, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasActive {
		c.previous, c.hasPrevious = c.active, true
	}
	return c.previous, c.hasPrevious
}

// endLabel forgets the tool recorded by beginLabel.
func (c *ToolCoordinator) endLabel() {
	c.mu.Lock()
	c.previous, c.hasPrevious = 0, false
	c.mu.Unlock()
}

// finishLabel runs the tool transitions of a committed label: Label goes
// active then passive, and prev is restored unless it is Label itself.
func (c *ToolCoordinator) finishLabel(group ToolGroup, prev tools.Name, hasPrev bool) {
	if err := group.SetToolActive(tools.Label, tools.BindingsFor(tools.Label)...); err != nil {
		c.logger.Warn("activate label failed", slog.Any("error", err))
	}
	if err := group.SetToolPassive(tools.Label); err != nil {
		c.logger.Warn("label passive failed", slog.Any("error", err))
	}

	restored := hasPrev && prev != tools.Label
	if restored {
		if err := group.SetToolActive(prev, tools.BindingsFor(prev)...); err != nil {
			c.logger.Warn("restore tool failed", slog.String("tool", prev.String()), slog.Any("error", err))
			restored = false
		}
	}

	c.mu.Lock()
	if restored {
		c.active, c.hasActive = prev, true
	} else {
		c.hasActive = false
	}
	c.previous, c.hasPrevious = 0, false
	c.mu.Unlock()

	if restored {
		c.state.Emit(app.EventToolChanged, app.ToolChanged{Tool: prev})
	}
}
