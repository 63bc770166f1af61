package pdf

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const embeddedEngine = "pdfcpu"

// EmbeddedImageRasterizer pulls the scanned page images straight out of the
// PDF instead of rendering. It only suits scans where each page is one image.
// Pages without a decodable image are returned with a nil Image.
type EmbeddedImageRasterizer struct {
	logger *slog.Logger
}

// NewEmbeddedImageRasterizer creates a pdfcpu backed rasterizer.
func NewEmbeddedImageRasterizer(logger *slog.Logger) *EmbeddedImageRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddedImageRasterizer{logger: logger}
}

// Rasterize extracts the largest embedded image of every page in r.
func (e *EmbeddedImageRasterizer) Rasterize(ctx context.Context, path string, r PageRange, dpi int) ([]PageImage, error) {
	if err := r.Validate(); err != nil {
		return nil, rasterizationError(path, embeddedEngine, err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	count, err := PageCount(path)
	if err != nil {
		return nil, rasterizationError(path, embeddedEngine, err)
	}
	window, ok := r.Clamp(count)
	if !ok {
		return nil, rasterizationError(path, embeddedEngine,
			fmt.Errorf("first page %d is beyond the document's %d pages", r.First, count))
	}

	images, err := e.extract(ctx, path, window)
	if err != nil {
		return nil, rasterizationError(path, embeddedEngine, err)
	}

	pages := make([]PageImage, 0, window.Len())
	for n := window.First; n <= window.Last; n++ {
		img := largestImage(images[n])
		if img == nil {
			e.logger.Debug("page has no embedded image", "file", path, "page", n)
		}
		pages = append(pages, PageImage{Number: n, Image: img, DPI: dpi})
	}
	return pages, nil
}

// extract groups the decodable images of the selected pages by page number.
func (e *EmbeddedImageRasterizer) extract(ctx context.Context, path string, window PageRange) (map[int][]image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided PDF file path is expected
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	result := make(map[int][]image.Image)
	digest := func(img model.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		decoded, _, err := image.Decode(img)
		if err != nil {
			// Skip formats we cannot decode (JBIG2, JPX)
			e.logger.Debug("skipping embedded image", "page", img.PageNr, "type", img.FileType, "error", err)
			return nil
		}
		result[img.PageNr] = append(result[img.PageNr], decoded)
		return nil
	}

	if err := api.ExtractImages(f, window.Pages(), digest, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	return result, nil
}

// largestImage picks the image covering the most pixels, the scan itself on
// pages that also carry small stamps or logos.
func largestImage(images []image.Image) image.Image {
	var best image.Image
	bestArea := 0
	for _, img := range images {
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	return best
}
