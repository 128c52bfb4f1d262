package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"cine-viewer/pkg/colorutil"
)

// CineTheme is a low-glare reading-room theme. It is always dark, whatever
// variant the desktop asks for, and its accents follow the overlay colors so
// that chrome and annotations read the same.
type CineTheme struct{}

var _ fyne.Theme = (*CineTheme)(nil)

var cinePalette = map[fyne.ThemeColorName]color.Color{
	theme.ColorNameBackground:        color.NRGBA{R: 0x0B, G: 0x0C, B: 0x0E, A: 0xFF},
	theme.ColorNameOverlayBackground: color.NRGBA{R: 0x16, G: 0x18, B: 0x1B, A: 0xFF},
	theme.ColorNameMenuBackground:    color.NRGBA{R: 0x16, G: 0x18, B: 0x1B, A: 0xFF},
	theme.ColorNameInputBackground:   color.NRGBA{R: 0x1C, G: 0x1F, B: 0x23, A: 0xFF},
	theme.ColorNameButton:            color.NRGBA{R: 0x24, G: 0x28, B: 0x2E, A: 0xFF},
	// Dimmed foreground keeps text from outshining the image.
	theme.ColorNameForeground: color.NRGBA{R: 0xC8, G: 0xCC, B: 0xD0, A: 0xFF},
	theme.ColorNamePrimary:    color.NRGBA{R: 0x3A, G: 0x8F, B: 0xB7, A: 0xFF},
	theme.ColorNameFocus:      translucent(colorutil.Annotation, 0x90),
	theme.ColorNameSelection:  translucent(colorutil.Annotation, 0x50),
	theme.ColorNameHover:      translucent(colorutil.White, 0x12),
	theme.ColorNameSeparator:  colorutil.Gray(0x2A),
	theme.ColorNameScrollBar:  colorutil.Gray(0x5A),
}

// translucent returns the opaque overlay color c at alpha a, unpremultiplied.
func translucent(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// Color returns the reading-room palette entry for name, falling back to
// fyne's dark colors.
func (t *CineTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	if c, ok := cinePalette[name]; ok {
		return c
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (t *CineTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *CineTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

// Size tightens the chrome so the viewport gets most of the window.
func (t *CineTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameText:
		return 13
	case theme.SizeNameCaptionText:
		return 11
	case theme.SizeNameSeparatorThickness:
		return 1
	case theme.SizeNameScrollBarSmall:
		return 4
	default:
		return theme.DefaultTheme().Size(name)
	}
}
