package tools

import "errors"

var (
	// ErrUnknownTool is returned for identifiers outside the enumeration.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolNotRegistered is returned when a group adds a tool the manager does not know.
	ErrToolNotRegistered = errors.New("tool not registered")

	// ErrToolNotInGroup is returned when changing the mode of a tool the group has not added.
	ErrToolNotInGroup = errors.New("tool not in group")

	// ErrGroupExists is returned when creating a group with an existing ID.
	ErrGroupExists = errors.New("tool group already exists")

	// ErrGroupNotFound is returned when a group ID is unknown.
	ErrGroupNotFound = errors.New("tool group not found")
)
