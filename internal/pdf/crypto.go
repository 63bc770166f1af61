package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PasswordCredentials contains the passwords for a PDF file.
type PasswordCredentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// Empty reports whether no password was supplied.
func (c PasswordCredentials) Empty() bool {
	return c.UserPassword == "" && c.OwnerPassword == ""
}

// IsEncrypted checks if a PDF file is encrypted/password-protected.
func IsEncrypted(filename string) (bool, error) {
	// Page counting fails on encrypted files opened without a password
	_, err := api.PageCountFile(filename)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "encrypted") ||
			strings.Contains(msg, "password") ||
			strings.Contains(msg, "decrypt") {
			return true, nil
		}
		return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
	}
	return false, nil
}

// Decrypt writes a decrypted copy of filename to a temporary file. For files
// that are not encrypted it returns filename itself. The returned cleanup
// function removes any temporary file and is always safe to call.
func Decrypt(filename string, creds PasswordCredentials) (string, func(), error) {
	noop := func() {}

	encrypted, err := IsEncrypted(filename)
	if err != nil {
		return "", noop, err
	}
	if !encrypted {
		return filename, noop, nil
	}
	if creds.Empty() {
		return "", noop, fmt.Errorf("%s is password protected", filename)
	}

	tempFile, err := os.CreateTemp("", "decrypted-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temporary file: %w", err)
	}
	_ = tempFile.Close() // Close file handle, keep path
	cleanup := func() { _ = os.Remove(tempFile.Name()) }

	config := model.NewDefaultConfiguration()
	config.UserPW = creds.UserPassword
	config.OwnerPW = creds.OwnerPassword

	if err := api.DecryptFile(filename, tempFile.Name(), config); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return tempFile.Name(), cleanup, nil
}

// DecryptingRasterizer decrypts password protected documents before handing
// them to the wrapped rasterizer.
type DecryptingRasterizer struct {
	next  Rasterizer
	creds PasswordCredentials
}

// NewDecryptingRasterizer wraps next. With empty credentials next is returned unchanged.
func NewDecryptingRasterizer(next Rasterizer, creds PasswordCredentials) Rasterizer {
	if creds.Empty() {
		return next
	}
	return &DecryptingRasterizer{next: next, creds: creds}
}

// Rasterize decrypts path if needed and delegates.
func (d *DecryptingRasterizer) Rasterize(ctx context.Context, path string, r PageRange, dpi int) ([]PageImage, error) {
	plain, cleanup, err := Decrypt(path, d.creds)
	if err != nil {
		return nil, rasterizationError(path, "decrypt", err)
	}
	defer cleanup()
	return d.next.Rasterize(ctx, plain, r, dpi)
}
