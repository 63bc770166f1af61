// Package pdf turns the leading pages of a PDF document into page images.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/tiff"
)

// DefaultDPI is the resolution pages are rendered at unless configured otherwise.
const DefaultDPI = 300

// PageImage is a single rendered page. The pipeline drops Image once the
// page has been processed.
type PageImage struct {
	Number int
	Image  image.Image
	DPI    int
}

// Rasterizer renders the pages of a document that fall inside a page range.
// Pages come back in ascending order; pages past the end of the document are
// silently omitted. Any error is fatal for the whole document.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, r PageRange, dpi int) ([]PageImage, error)
}

var (
	// ErrRasterization matches every *RasterizationError.
	ErrRasterization = errors.New("rasterization failed")

	// ErrNoPageImage marks a page that exists but carries nothing to recognize.
	ErrNoPageImage = errors.New("page has no raster content")
)

// RasterizationError reports a document that could not be rendered.
type RasterizationError struct {
	Path   string
	Engine string
	Err    error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterize %s (%s): %v", e.Path, e.Engine, e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRasterization.
func (e *RasterizationError) Is(target error) bool {
	return target == ErrRasterization
}

func rasterizationError(path, engine string, err error) error {
	return &RasterizationError{Path: path, Engine: engine, Err: err}
}

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return n, nil
}

// checkReadable fails early on a path that does not name a regular file.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// loadImageFile loads an image from a file path.
func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: rendered page files live in our own temp dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}
