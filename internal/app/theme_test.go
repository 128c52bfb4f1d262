package app

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"cine-viewer/pkg/colorutil"
)

func TestThemeIgnoresLightVariant(t *testing.T) {
	th := &CineTheme{}
	names := []fyne.ThemeColorName{
		theme.ColorNameBackground,
		theme.ColorNameForeground,
		theme.ColorNameButton,
		theme.ColorNameDisabled,
	}
	for _, name := range names {
		dark, light := th.Color(name, theme.VariantDark), th.Color(name, theme.VariantLight)
		if dark != light {
			t.Errorf("%s: light %v, dark %v", name, light, dark)
		}
	}
}

func TestThemeSelectionFollowsAnnotations(t *testing.T) {
	th := &CineTheme{}
	got, ok := th.Color(theme.ColorNameSelection, theme.VariantDark).(color.NRGBA)
	if !ok {
		t.Fatalf("selection color is %T", th.Color(theme.ColorNameSelection, theme.VariantDark))
	}
	a := colorutil.Annotation
	if got.R != a.R || got.G != a.G || got.B != a.B || got.A == 0xFF {
		t.Errorf("selection = %v, want translucent %v", got, a)
	}
}

func TestThemeCompactPadding(t *testing.T) {
	th := &CineTheme{}
	if p, def := th.Size(theme.SizeNamePadding), theme.DefaultTheme().Size(theme.SizeNamePadding); p >= def {
		t.Errorf("padding = %v, want below default %v", p, def)
	}
}
