// Package tools provides the closed set of interactive viewer tools, their
// input bindings, and tool groups that enforce exclusive activation.
package tools

import "fmt"

// Name identifies one of the interactive tools.
type Name int

const (
	Pan Name = iota
	Zoom
	WindowLevel
	Length
	RectangleROI
	EllipticalROI
	Angle
	Label
	Magnify

	numTools
)

var names = [numTools]string{
	Pan:           "Pan",
	Zoom:          "Zoom",
	WindowLevel:   "WindowLevel",
	Length:        "Length",
	RectangleROI:  "RectangleROI",
	EllipticalROI: "EllipticalROI",
	Angle:         "Angle",
	Label:         "Label",
	Magnify:       "Magnify",
}

// String returns the tool identifier.
func (n Name) String() string {
	if !n.Valid() {
		return fmt.Sprintf("Tool(%d)", int(n))
	}
	return names[n]
}

// Valid reports whether n is one of the enumerated tools.
func (n Name) Valid() bool {
	return n >= 0 && n < numTools
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTool, int(n))
	}
	return []byte(names[n]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Parse returns the tool with the given identifier.
func Parse(s string) (Name, error) {
	for i, name := range names {
		if name == s {
			return Name(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTool, s)
}

// All returns every tool in enumeration order.
func All() []Name {
	all := make([]Name, numTools)
	for i := range all {
		all[i] = Name(i)
	}
	return all
}

// Selectable returns the tools offered as toolbar buttons. Label is driven by
// the double-click workflow instead of a button.
func Selectable() []Name {
	return []Name{Pan, Zoom, Length, RectangleROI, EllipticalROI, Angle, WindowLevel, Magnify}
}

// Annotates reports whether the tool creates annotations.
func (n Name) Annotates() bool {
	switch n {
	case Length, RectangleROI, EllipticalROI, Angle, Label:
		return true
	}
	return false
}
