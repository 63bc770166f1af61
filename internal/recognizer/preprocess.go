package recognizer

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// PreprocessOptions tune the cleanup applied before recognition.
type PreprocessOptions struct {
	MaxSide  int     // longest side in pixels after downscaling, 0 keeps the size
	Contrast float64 // percentage passed to imaging.AdjustContrast, 0 disables
	Sharpen  float64 // sigma passed to imaging.Sharpen, 0 disables
}

// DefaultPreprocessOptions suit 300 DPI scans of printed books.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		MaxSide:  4000,
		Contrast: 20,
		Sharpen:  0.5,
	}
}

// Preprocessing converts pages to grayscale, boosts contrast and caps their
// size before passing them on.
type Preprocessing struct {
	next Recognizer
	opts PreprocessOptions
}

// NewPreprocessing wraps next.
func NewPreprocessing(next Recognizer, opts PreprocessOptions) *Preprocessing {
	return &Preprocessing{next: next, opts: opts}
}

// Recognize implements Recognizer.
func (p *Preprocessing) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	if img == nil {
		return "", ErrNilImage
	}
	return p.next.Recognize(ctx, Preprocess(img, p.opts), profile)
}

// Preprocess applies opts to img and returns a new image.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	out := image.Image(imaging.Grayscale(img))

	if opts.MaxSide > 0 {
		b := out.Bounds()
		if b.Dx() > opts.MaxSide || b.Dy() > opts.MaxSide {
			out = imaging.Fit(out, opts.MaxSide, opts.MaxSide, imaging.Lanczos)
		}
	}
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, opts.Sharpen)
	}
	return out
}
