package subtitles

import (
	"golang.org/x/text/language"

	"reelforge/internal/config"
)

// Panel styles.
const (
	PanelBand    = config.PanelBand
	PanelRounded = config.PanelRounded
)

// Style fixes every layout constant of a subtitle frame.
type Style struct {
	Width        int
	Height       int
	FontSize     float64
	WrapWidth    int
	LinePadding  int
	Panel        string
	BandHeight   int
	BottomOffset int
	PaddingX     int
	PaddingY     int
	Radius       int
	PanelAlpha   uint8
}

// StyleFromPreset derives the subtitle style for a request in lang.
func StyleFromPreset(p config.Preset, lang language.Tag) Style {
	return Style{
		Width:        p.Width,
		Height:       p.Height,
		FontSize:     p.FontSize,
		WrapWidth:    WrapWidthFor(lang, p.WrapWidth, p.DenseWrapWidth),
		LinePadding:  p.LinePadding,
		Panel:        p.Panel,
		BandHeight:   p.BandHeight,
		BottomOffset: p.BottomOffset,
		PaddingX:     p.PaddingX,
		PaddingY:     p.PaddingY,
		Radius:       p.PanelRadius,
		PanelAlpha:   uint8(p.PanelAlpha),
	}
}

// WrapWidthFor picks the characters-per-line limit for lang. Latin, Cyrillic,
// and Greek scripts use latin; everything else uses dense.
func WrapWidthFor(lang language.Tag, latin, dense int) int {
	script, _ := lang.Script()
	switch script.String() {
	case "Latn", "Cyrl", "Grek":
		return latin
	default:
		if dense <= 0 {
			return latin
		}
		return dense
	}
}
