package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const popplerEngine = "pdftoppm"

// PopplerRasterizer renders pages by running poppler's pdftoppm.
type PopplerRasterizer struct {
	binary string
	logger *slog.Logger
}

// NewPopplerRasterizer creates a rasterizer around the pdftoppm binary at path.
func NewPopplerRasterizer(binary string, logger *slog.Logger) *PopplerRasterizer {
	if binary == "" {
		binary = popplerEngine
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PopplerRasterizer{binary: binary, logger: logger}
}

// Rasterize renders r at dpi into grayscale PNGs and decodes them.
func (p *PopplerRasterizer) Rasterize(ctx context.Context, path string, r PageRange, dpi int) ([]PageImage, error) {
	if err := r.Validate(); err != nil {
		return nil, rasterizationError(path, popplerEngine, err)
	}
	if err := checkReadable(path); err != nil {
		return nil, rasterizationError(path, popplerEngine, err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	dir, err := os.MkdirTemp("", "tocfinder-raster-*")
	if err != nil {
		return nil, rasterizationError(path, popplerEngine, fmt.Errorf("failed to create temp directory: %w", err))
	}
	defer func() { _ = os.RemoveAll(dir) }()

	const prefix = "page"
	args := []string{
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(r.First),
		"-l", strconv.Itoa(r.Last),
		"-gray",
		"-png",
		path,
		filepath.Join(dir, prefix),
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, args...) //nolint:gosec // G204: binary comes from engine discovery
	cmd.Stderr = &stderr

	p.logger.Debug("running pdftoppm", "file", path, "pages", r.String(), "dpi", dpi)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, rasterizationError(path, popplerEngine, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, rasterizationError(path, popplerEngine, err)
		}
		return nil, rasterizationError(path, popplerEngine, fmt.Errorf("%w: %s", err, msg))
	}

	pages, err := collectRenderedPages(dir, prefix, dpi)
	if err != nil {
		return nil, rasterizationError(path, popplerEngine, err)
	}
	if len(pages) == 0 {
		return nil, rasterizationError(path, popplerEngine, errors.New("no pages rendered"))
	}
	return pages, nil
}

// collectRenderedPages decodes prefix-N.png files written by pdftoppm in page order.
func collectRenderedPages(dir, prefix string, dpi int) ([]PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pages []PageImage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		number, ok := parseRenderedPageNumber(entry.Name(), prefix)
		if !ok {
			continue
		}
		img, err := loadImageFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("decode page %d: %w", number, err)
		}
		pages = append(pages, PageImage{Number: number, Image: img, DPI: dpi})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// parseRenderedPageNumber extracts N from pdftoppm's "<prefix>-0N.png" names.
// The zero padding depends on the document's page count.
func parseRenderedPageNumber(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".png") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".png")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
