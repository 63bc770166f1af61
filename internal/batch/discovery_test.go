package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))
	return path
}

func TestDiscoverPDFFiles_EmptyArgs(t *testing.T) {
	files, err := DiscoverPDFFiles(nil, false, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverPDFFiles_ExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	pdfFile := touch(t, filepath.Join(dir, "book.pdf"))
	oddName := touch(t, filepath.Join(dir, "scan.bin"))

	files, err := DiscoverPDFFiles([]string{pdfFile, oddName, pdfFile}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{pdfFile, oddName}, files)
}

func TestDiscoverPDFFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	b := touch(t, filepath.Join(dir, "B.PDF"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.pdf"))

	files, err := DiscoverPDFFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)
}

func TestDiscoverPDFFiles_Recursive(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	c := touch(t, filepath.Join(dir, "nested", "deeper", "c.pdf"))
	touch(t, filepath.Join(dir, ".cache", "hidden.pdf"))

	files, err := DiscoverPDFFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, c}, files)
}

func TestDiscoverPDFFiles_IncludeExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	keep := touch(t, filepath.Join(dir, "vol1.pdf"))
	touch(t, filepath.Join(dir, "vol1-draft.pdf"))
	touch(t, filepath.Join(dir, "index.pdf"))

	files, err := DiscoverPDFFiles([]string{dir}, false, []string{"vol*.pdf"}, []string{"*-draft.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestDiscoverPDFFiles_ExcludeAppliesToExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	draft := touch(t, filepath.Join(dir, "draft.pdf"))

	files, err := DiscoverPDFFiles([]string{draft}, false, nil, []string{"draft*"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverPDFFiles_MissingPath(t *testing.T) {
	_, err := DiscoverPDFFiles([]string{filepath.Join(t.TempDir(), "missing")}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.False(t, matchesAnyPattern("/tmp/a.pdf", nil))
	assert.True(t, matchesAnyPattern("/tmp/a.pdf", []string{"*.txt", "*.pdf"}))
	assert.False(t, matchesAnyPattern("/tmp/a.pdf", []string{"b*"}))
}

func TestShouldIncludeFile(t *testing.T) {
	assert.True(t, shouldIncludeFile("x.pdf", nil, nil))
	assert.False(t, shouldIncludeFile("x.pdf", []string{"*.pdf"}, []string{"x*"}))
	assert.False(t, shouldIncludeFile("x.txt", []string{"*.pdf"}, nil))
}
