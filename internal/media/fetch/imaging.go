package fetch

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxImagePixels bounds the decoded size of any still image.
const maxImagePixels = 1 << 25

// DecodeImage reads any supported still image (png, jpeg, gif, webp). Images
// whose header declares more than maxImagePixels pixels are rejected before
// any pixel data is decoded.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("decode %s: %dx%d image exceeds %d pixels", path, cfg.Width, cfg.Height, maxImagePixels)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Resize scales src to exactly w×h.
func Resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// Thumbnail downscales src to fit inside maxW×maxH keeping its aspect ratio.
// Images already inside the box are returned unchanged.
func Thumbnail(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw <= maxW && sh <= maxH {
		return src
	}
	scale := min(float64(maxW)/float64(sw), float64(maxH)/float64(sh))
	w := max(1, int(float64(sw)*scale))
	h := max(1, int(float64(sh)*scale))
	return Resize(src, w, h)
}

// CropToFill scales the centre of src so it covers exactly tw×th. The crop
// is taken in source coordinates, so memory stays bounded by the output size
// whatever the source aspect ratio. The result is fully opaque.
func CropToFill(src image.Image, tw, th int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw <= 0 || sh <= 0 {
		return dst
	}
	scale := max(float64(tw)/float64(sw), float64(th)/float64(sh))
	cw := min(sw, max(1, int(float64(tw)/scale+0.5)))
	ch := min(sh, max(1, int(float64(th)/scale+0.5)))
	x0 := b.Min.X + (sw-cw)/2
	y0 := b.Min.Y + (sh-ch)/2
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+cw, y0+ch), draw.Over, nil)
	return dst
}

// FitLogo rewrites the image at path as a PNG fitted to w×h: "thumbnail"
// shrinks preserving aspect, "stretch" forces the exact box.
func FitLogo(path, dest, mode string, w, h int) error {
	img, err := DecodeImage(path)
	if err != nil {
		return err
	}
	var out image.Image
	if mode == "stretch" {
		out = Resize(img, w, h)
	} else {
		out = Thumbnail(img, w, h)
	}
	return WritePNG(dest, out)
}

// StretchToFrame rewrites the image at path as a w×h PNG.
func StretchToFrame(path, dest string, w, h int) error {
	img, err := DecodeImage(path)
	if err != nil {
		return err
	}
	return WritePNG(dest, Resize(img, w, h))
}

// CropToFrame rewrites the image at path as an opaque w×h PNG.
func CropToFrame(path, dest string, w, h int) error {
	img, err := DecodeImage(path)
	if err != nil {
		return err
	}
	return WritePNG(dest, CropToFill(img, w, h))
}
