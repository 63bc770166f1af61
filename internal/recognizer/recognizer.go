// Package recognizer turns page images into text with Tesseract.
package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// Profile selects how Tesseract reads a page.
type Profile struct {
	Languages []string `json:"languages"`
	OEM       int      `json:"oem"` // OCR engine mode, 0-3
	PSM       int      `json:"psm"` // page segmentation mode, 0-13
	DPI       int      `json:"dpi"` // resolution hint for the engine
}

// DefaultProfile reads Russian and English text as a single uniform block.
func DefaultProfile() Profile {
	return Profile{
		Languages: []string{"rus", "eng"},
		OEM:       3,
		PSM:       6,
		DPI:       300,
	}
}

// LanguageSpec joins the languages the way tesseract's -l flag expects.
func (p Profile) LanguageSpec() string {
	return strings.Join(p.Languages, "+")
}

// Validate checks the profile against the ranges tesseract accepts.
func (p Profile) Validate() error {
	if len(p.Languages) == 0 {
		return errors.New("at least one language is required")
	}
	for _, lang := range p.Languages {
		if lang == "" || strings.ContainsAny(lang, "+ \t") {
			return fmt.Errorf("invalid language %q", lang)
		}
	}
	if p.OEM < 0 || p.OEM > 3 {
		return fmt.Errorf("oem must be between 0 and 3, got %d", p.OEM)
	}
	if p.PSM < 0 || p.PSM > 13 {
		return fmt.Errorf("psm must be between 0 and 13, got %d", p.PSM)
	}
	if p.DPI < 0 {
		return fmt.Errorf("dpi must not be negative, got %d", p.DPI)
	}
	return nil
}

// Recognizer extracts the text of one page image. Errors are page-level:
// callers record them and move on to the next page.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, profile Profile) (string, error)
}

// Func adapts a plain function to Recognizer.
type Func func(ctx context.Context, img image.Image, profile Profile) (string, error)

// Recognize calls f.
func (f Func) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	return f(ctx, img, profile)
}

var (
	// ErrNilImage is returned for a page without image data.
	ErrNilImage = errors.New("nil image")

	// ErrNotAvailable is returned by backends compiled out of this binary.
	ErrNotAvailable = errors.New("recognizer backend not available")

	// ErrGarbledOutput is returned when the engine produced control-character noise.
	ErrGarbledOutput = errors.New("garbled recognizer output")
)

// encodePNG serializes img for handing to the engine.
func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}
	return buf.Bytes(), nil
}

// cleanOutput validates raw engine output and normalizes it for the classifier.
func cleanOutput(raw string, profile Profile) (string, error) {
	if err := validateText(raw); err != nil {
		return "", err
	}
	opts := DefaultCleanOptions()
	opts.Languages = profile.Languages
	return PostProcessText(raw, opts), nil
}
