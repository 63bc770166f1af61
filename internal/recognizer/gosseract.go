//go:build gosseract

package recognizer

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognizes pages in-process through the libtesseract bindings.
// A fresh client is created per page; clients are not safe for concurrent use.
type Gosseract struct{}

// NewGosseract creates the in-process recognizer.
func NewGosseract() (Recognizer, error) {
	return &Gosseract{}, nil
}

// Recognize implements Recognizer. The engine mode is fixed at client
// creation by libtesseract, so profile.OEM is not applied.
func (g *Gosseract) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", fmt.Errorf("invalid recognition profile: %w", err)
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(profile.Languages...); err != nil {
		return "", fmt.Errorf("gosseract set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(profile.PSM)); err != nil {
		return "", fmt.Errorf("gosseract set psm: %w", err)
	}
	if profile.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(profile.DPI)); err != nil {
			return "", fmt.Errorf("gosseract set dpi: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("gosseract set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w", err)
	}
	return cleanOutput(text, profile)
}
