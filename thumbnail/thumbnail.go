// Package thumbnail renders a fallback title card for videos that have no
// thumbnail.jpg sidecar.
package thumbnail

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	card_width  = 1280
	card_height = 720
	title_x     = 80
	title_y     = 380
	font_size   = 56
)

var (
	backgroundColor = color.RGBA{16, 24, 48, 255}
	titleColor      = color.RGBA{255, 255, 255, 255}
)

// Render draws the title onto a solid card and writes it as PNG into dir,
// returning the file path.
func Render(title, fontFile, dir string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("thumbnail: empty title")
	}
	fontData, err := os.ReadFile(fontFile)
	if err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}
	ttf, err := truetype.Parse(fontData)
	if err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, card_width, card_height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    font_size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(titleColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(title_x), Y: fixed.I(title_y)},
	}
	drawer.DrawString(title)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "thumbnail.png")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return "", err
	}
	return path, out.Close()
}
