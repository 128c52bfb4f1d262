package viewer

import (
	"errors"

	"cine-viewer/internal/tools"
)

var (
	// ErrInit wraps every failure that leaves a viewer unusable.
	ErrInit = errors.New("viewer initialization failed")

	// ErrNotReady is returned when a command runs without a live viewport or
	// tool group.
	ErrNotReady = errors.New("viewer not ready")

	// ErrLabelPrecondition is returned when a label cannot be committed. The
	// pending entry stays open.
	ErrLabelPrecondition = errors.New("label preconditions not met")

	// ErrInvalidSpeed is returned for non-positive speed multipliers.
	ErrInvalidSpeed = errors.New("speed multiplier must be positive")

	// ErrUnknownTool is returned for names outside the tool enumeration.
	ErrUnknownTool = tools.ErrUnknownTool
)
