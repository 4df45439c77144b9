package subtitles

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"reelforge/internal/textutil"
)

// Renderer draws subtitle frames: transparent RGBA images of the output size
// with wrapped white text over a translucent black panel. It holds only the
// parsed font and style and is safe for concurrent use.
type Renderer struct {
	style Style
	font  *opentype.Font
}

// LoadFont reads an OpenType/TrueType file. An empty path yields Go Regular.
func LoadFont(path string) (*opentype.Font, error) {
	data := goregular.TTF
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		data = raw
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return parsed, nil
}

// NewRenderer validates style and binds it to f.
func NewRenderer(style Style, f *opentype.Font) (*Renderer, error) {
	if f == nil {
		return nil, errors.New("subtitles: font required")
	}
	if style.Width <= 0 || style.Height <= 0 {
		return nil, fmt.Errorf("subtitles: invalid frame size %dx%d", style.Width, style.Height)
	}
	if style.FontSize <= 0 {
		return nil, errors.New("subtitles: font size must be positive")
	}
	if style.WrapWidth <= 0 {
		return nil, errors.New("subtitles: wrap width must be positive")
	}
	switch style.Panel {
	case PanelBand, PanelRounded:
	default:
		return nil, fmt.Errorf("subtitles: unknown panel style %q", style.Panel)
	}
	return &Renderer{style: style, font: f}, nil
}

// Style returns the renderer's layout.
func (r *Renderer) Style() Style {
	return r.style
}

// Render draws text and writes the PNG to dest, returning dest.
func (r *Renderer) Render(text, dest string) (string, error) {
	img, err := r.RenderImage(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("subtitles: encode png: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("subtitles: create dir: %w", err)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("subtitles: write png: %w", err)
	}
	return dest, nil
}

// RenderImage draws text into a new image without touching the filesystem.
func (r *Renderer) RenderImage(text string) (*image.RGBA, error) {
	lines := textutil.Wrap(text, r.style.WrapWidth)
	if len(lines) == 0 {
		return nil, errors.New("subtitles: nothing to render")
	}

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    r.style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("subtitles: create face: %w", err)
	}
	defer face.Close()

	s := r.style
	ascent := face.Metrics().Ascent.Ceil()
	lineHeight := ascent + s.LinePadding
	blockHeight := len(lines) * lineHeight

	widths := make([]int, len(lines))
	maxWidth := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
		if widths[i] > maxWidth {
			maxWidth = widths[i]
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	panel := color.NRGBA{A: s.PanelAlpha}

	var top int
	switch s.Panel {
	case PanelBand:
		bandTop := s.Height - s.BandHeight
		fillRect(img, image.Rect(0, bandTop, s.Width, s.Height), panel)
		top = bandTop + (s.BandHeight-blockHeight)/2
	default:
		top = s.Height - s.BottomOffset - blockHeight
		box := image.Rect(
			(s.Width-maxWidth)/2-s.PaddingX,
			top-s.PaddingY/2,
			(s.Width+maxWidth)/2+s.PaddingX,
			top+blockHeight+s.PaddingY/2,
		)
		fillRoundedRect(img, box, float32(s.Radius), panel)
	}

	drawer := font.Drawer{Dst: img, Src: image.White, Face: face}
	y := top
	for i, line := range lines {
		x := (s.Width - widths[i]) / 2
		drawer.Dot = fixed.P(x, y+ascent)
		drawer.DrawString(line)
		y += lineHeight
	}
	return img, nil
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.NRGBA) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	src := image.NewUniform(c)
	ras := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	ras.MoveTo(float32(rect.Min.X), float32(rect.Min.Y))
	ras.LineTo(float32(rect.Max.X), float32(rect.Min.Y))
	ras.LineTo(float32(rect.Max.X), float32(rect.Max.Y))
	ras.LineTo(float32(rect.Min.X), float32(rect.Max.Y))
	ras.ClosePath()
	ras.Draw(img, img.Bounds(), src, image.Point{})
}

// kappa places cubic control points so each corner approximates a quarter circle.
const kappa = 0.5522847498

func fillRoundedRect(img *image.RGBA, rect image.Rectangle, radius float32, c color.NRGBA) {
	x0, y0 := float32(rect.Min.X), float32(rect.Min.Y)
	x1, y1 := float32(rect.Max.X), float32(rect.Max.Y)
	maxRadius := float32(math.Min(float64(x1-x0), float64(y1-y0))) / 2
	if radius > maxRadius {
		radius = maxRadius
	}
	if radius <= 0 {
		fillRect(img, rect, c)
		return
	}
	k := radius * kappa

	ras := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	ras.MoveTo(x0+radius, y0)
	ras.LineTo(x1-radius, y0)
	ras.CubeTo(x1-radius+k, y0, x1, y0+radius-k, x1, y0+radius)
	ras.LineTo(x1, y1-radius)
	ras.CubeTo(x1, y1-radius+k, x1-radius+k, y1, x1-radius, y1)
	ras.LineTo(x0+radius, y1)
	ras.CubeTo(x0+radius-k, y1, x0, y1-radius+k, x0, y1-radius)
	ras.LineTo(x0, y0+radius)
	ras.CubeTo(x0, y0+radius-k, x0+radius-k, y0, x0+radius, y0)
	ras.ClosePath()
	ras.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}
