// Package testutil holds fixtures shared by the package tests: synthetic page
// images, small PDFs assembled from them, and engine availability checks.
package testutil

import (
	"os/exec"
	"testing"
)

// RequireBinary skips the test unless name is on PATH and returns its location.
func RequireBinary(t *testing.T, name string) string {
	t.Helper()

	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not installed: %v", name, err)
	}
	return path
}

// SkipIfShort skips engine backed tests under -short.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping engine test in short mode")
	}
}
