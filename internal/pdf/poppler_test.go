package pdf

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/testutil"
)

func TestParseRenderedPageNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"page-1.png", 1, true},
		{"page-07.png", 7, true},
		{"page-010.png", 10, true},
		{"page-00.png", 0, false},
		{"other-1.png", 0, false},
		{"page-1.ppm", 0, false},
		{"page-x.png", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRenderedPageNumber(tt.name, "page")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectRenderedPagesOrdersByNumber(t *testing.T) {
	dir := t.TempDir()
	img := testutil.GeneratePageImage(testutil.DefaultPageImageConfig("x"))
	for _, name := range []string{"page-10.png", "page-02.png", "page-01.png", "notes.txt"} {
		if filepath.Ext(name) == ".png" {
			testutil.SaveImage(t, img, filepath.Join(dir, name))
		}
	}

	pages, err := collectRenderedPages(dir, "page", 150)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{pages[0].Number, pages[1].Number, pages[2].Number})
	assert.Equal(t, 150, pages[0].DPI)
}

func TestPopplerRasterizerRejectsInvalidInput(t *testing.T) {
	r := NewPopplerRasterizer("/nonexistent/pdftoppm", nil)

	_, err := r.Rasterize(context.Background(), "whatever.pdf", PageRange{First: 3, Last: 1}, 300)
	assert.ErrorIs(t, err, ErrRasterization)

	_, err = r.Rasterize(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), DefaultPageRange(), 300)
	assert.ErrorIs(t, err, ErrRasterization)
}

func TestPopplerRasterizerShortDocument(t *testing.T) {
	testutil.SkipIfShort(t)
	binary := testutil.RequireBinary(t, "pdftoppm")

	path := testutil.WriteTextPDF(t, t.TempDir(),
		testutil.RegularPageLines(), testutil.TOCPageLines(), testutil.RegularPageLines())

	pages, err := NewPopplerRasterizer(binary, nil).Rasterize(context.Background(), path, DefaultPageRange(), 72)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.NotNil(t, p.Image)
	}
}

func TestPopplerRasterizerCorruptDocument(t *testing.T) {
	testutil.SkipIfShort(t)
	binary := testutil.RequireBinary(t, "pdftoppm")

	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, writeFile(path, "this is not a pdf"))

	_, err := NewPopplerRasterizer(binary, nil).Rasterize(context.Background(), path, DefaultPageRange(), 72)
	assert.ErrorIs(t, err, ErrRasterization)
}
