package testutil

import (
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/require"
)

// WriteImagePDF assembles a PDF with one page per image, the layout of a scan.
func WriteImagePDF(t *testing.T, dir string, pages []image.Image) string {
	t.Helper()
	require.NotEmpty(t, pages)

	imageFiles := make([]string, len(pages))
	for i, img := range pages {
		imageFiles[i] = filepath.Join(dir, fmt.Sprintf("scan_%02d.png", i+1))
		SaveImage(t, img, imageFiles[i])
	}

	out := filepath.Join(dir, "scan.pdf")
	require.NoError(t, api.ImportImagesFile(imageFiles, out, pdfcpu.DefaultImportConfig(), nil))
	return out
}

// WriteTextPDF renders each entry of pages to an image and assembles the PDF.
func WriteTextPDF(t *testing.T, dir string, pages ...[]string) string {
	t.Helper()

	images := make([]image.Image, len(pages))
	for i, lines := range pages {
		images[i] = GeneratePageImage(DefaultPageImageConfig(lines...))
	}
	return WriteImagePDF(t, dir, images)
}
