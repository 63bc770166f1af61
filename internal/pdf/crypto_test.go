package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/testutil"
)

type recordingRasterizer struct {
	paths []string
}

func (r *recordingRasterizer) Rasterize(_ context.Context, path string, _ PageRange, _ int) ([]PageImage, error) {
	r.paths = append(r.paths, path)
	return []PageImage{{Number: 1}}, nil
}

func TestDecryptPlainDocumentIsPassThrough(t *testing.T) {
	path := testutil.WriteTextPDF(t, t.TempDir(), testutil.RegularPageLines())

	encrypted, err := IsEncrypted(path)
	require.NoError(t, err)
	assert.False(t, encrypted)

	out, cleanup, err := Decrypt(path, PasswordCredentials{UserPassword: "x"})
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, path, out)
}

func TestNewDecryptingRasterizer(t *testing.T) {
	next := &recordingRasterizer{}

	assert.Same(t, next, NewDecryptingRasterizer(next, PasswordCredentials{}))

	wrapped := NewDecryptingRasterizer(next, PasswordCredentials{UserPassword: "secret"})
	require.IsType(t, &DecryptingRasterizer{}, wrapped)

	path := testutil.WriteTextPDF(t, t.TempDir(), testutil.RegularPageLines())
	pages, err := wrapped.Rasterize(context.Background(), path, DefaultPageRange(), 300)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Equal(t, []string{path}, next.paths)
}

func TestPasswordCredentialsEmpty(t *testing.T) {
	assert.True(t, PasswordCredentials{}.Empty())
	assert.False(t, PasswordCredentials{OwnerPassword: "o"}.Empty())
}
