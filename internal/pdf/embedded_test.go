package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/testutil"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestEmbeddedImageRasterizer(t *testing.T) {
	path := testutil.WriteTextPDF(t, t.TempDir(),
		testutil.RegularPageLines(), testutil.TOCPageLines(), testutil.RegularPageLines())

	pages, err := NewEmbeddedImageRasterizer(nil).Rasterize(context.Background(), path, DefaultPageRange(), 300)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.NotNil(t, p.Image, "page %d", p.Number)
		assert.Equal(t, 300, p.DPI)
	}
}

func TestEmbeddedImageRasterizerSubRange(t *testing.T) {
	path := testutil.WriteTextPDF(t, t.TempDir(),
		testutil.RegularPageLines(), testutil.TOCPageLines(), testutil.RegularPageLines())

	pages, err := NewEmbeddedImageRasterizer(nil).Rasterize(context.Background(), path, PageRange{First: 2, Last: 2}, 300)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 2, pages[0].Number)
}

func TestEmbeddedImageRasterizerRangePastEnd(t *testing.T) {
	path := testutil.WriteTextPDF(t, t.TempDir(), testutil.RegularPageLines())

	_, err := NewEmbeddedImageRasterizer(nil).Rasterize(context.Background(), path, PageRange{First: 4, Last: 10}, 300)
	assert.ErrorIs(t, err, ErrRasterization)
}

func TestEmbeddedImageRasterizerCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, writeFile(path, "not a pdf at all"))

	pages, err := NewEmbeddedImageRasterizer(nil).Rasterize(context.Background(), path, DefaultPageRange(), 300)
	assert.ErrorIs(t, err, ErrRasterization)
	assert.Empty(t, pages)
}
