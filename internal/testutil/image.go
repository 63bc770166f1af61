package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

// A5Size is roughly an A5 page at 100 DPI, before scaling.
var A5Size = ImageSize{Width: 580, Height: 820}

// PageImageConfig describes a synthetic scanned page.
type PageImageConfig struct {
	Lines      []string
	Size       ImageSize
	Margin     int
	Scale      int // integer upscale applied after drawing, helps OCR read the bitmap font
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
}

// DefaultPageImageConfig returns a configuration for a page with the given lines.
func DefaultPageImageConfig(lines ...string) PageImageConfig {
	return PageImageConfig{
		Lines:      lines,
		Size:       A5Size,
		Margin:     40,
		Scale:      3,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GeneratePageImage draws the configured lines top to bottom, left aligned.
func GeneratePageImage(config PageImageConfig) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}

	lineHeight := config.FontFace.Metrics().Height.Ceil() + 6
	for i, line := range config.Lines {
		drawer.Dot = fixed.P(config.Margin, config.Margin+(i+1)*lineHeight)
		drawer.DrawString(line)
	}

	if config.Scale > 1 {
		return imaging.Resize(img, config.Size.Width*config.Scale, config.Size.Height*config.Scale, imaging.NearestNeighbor)
	}
	return img
}

// SaveImage saves an image to the specified path as PNG.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err)
	return img
}
