package pdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

const fitzEngine = "mupdf"

// FitzRasterizer renders pages in-process with MuPDF.
type FitzRasterizer struct{}

// NewFitzRasterizer creates a MuPDF backed rasterizer.
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// Rasterize renders every page of r that exists in the document.
func (f *FitzRasterizer) Rasterize(ctx context.Context, path string, r PageRange, dpi int) ([]PageImage, error) {
	if err := r.Validate(); err != nil {
		return nil, rasterizationError(path, fitzEngine, err)
	}
	if err := checkReadable(path); err != nil {
		return nil, rasterizationError(path, fitzEngine, err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, rasterizationError(path, fitzEngine, err)
	}
	defer func() { _ = doc.Close() }()

	window, ok := r.Clamp(doc.NumPage())
	if !ok {
		return nil, rasterizationError(path, fitzEngine,
			fmt.Errorf("first page %d is beyond the document's %d pages", r.First, doc.NumPage()))
	}

	pages := make([]PageImage, 0, window.Len())
	for n := window.First; n <= window.Last; n++ {
		if err := ctx.Err(); err != nil {
			return nil, rasterizationError(path, fitzEngine, err)
		}
		img, err := doc.ImageDPI(n-1, float64(dpi))
		if err != nil {
			return nil, rasterizationError(path, fitzEngine, fmt.Errorf("render page %d: %w", n, err))
		}
		pages = append(pages, PageImage{Number: n, Image: img, DPI: dpi})
	}
	return pages, nil
}
