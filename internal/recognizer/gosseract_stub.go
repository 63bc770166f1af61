//go:build !gosseract

package recognizer

import "fmt"

// NewGosseract reports that the binary was built without libtesseract.
// Rebuild with -tags gosseract to enable the in-process engine.
func NewGosseract() (Recognizer, error) {
	return nil, fmt.Errorf("%w: built without the gosseract tag", ErrNotAvailable)
}
