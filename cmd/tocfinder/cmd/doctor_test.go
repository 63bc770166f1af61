package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/engines"
)

// fakeDiscover reports both engines as missing.
func fakeDiscover(req engines.Requirements, _ engines.Overrides) (*engines.Environment, error) {
	var errs []error
	if req.Tesseract {
		errs = append(errs, &engines.EngineNotFoundError{Engine: "Tesseract OCR", Binary: engines.TesseractBinary, Err: errors.New("not on PATH")})
	}
	if req.Poppler {
		errs = append(errs, &engines.EngineNotFoundError{Engine: "Poppler", Binary: engines.PdftoppmBinary, Err: errors.New("not on PATH")})
	}
	return &engines.Environment{}, errors.Join(errs...)
}

func withDiscover(t *testing.T, fn func(engines.Requirements, engines.Overrides) (*engines.Environment, error)) {
	t.Helper()
	orig := discover
	discover = fn
	t.Cleanup(func() { discover = orig })
}

func TestCheckEnvironment_ReportsMissingEngines(t *testing.T) {
	withDiscover(t, fakeDiscover)
	cfg := config.DefaultConfig()

	var out bytes.Buffer
	err := checkEnvironment(context.Background(), &out, &cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, engines.ErrEngineNotFound)
	assert.Contains(t, out.String(), "tesseract: not found")
	assert.Contains(t, out.String(), "pdftoppm:  not found")
	assert.Contains(t, err.Error(), "Tesseract OCR not found")
	assert.Contains(t, err.Error(), "Poppler not found")
}

func TestCheckEnvironment_IgnoresUnusedEngines(t *testing.T) {
	withDiscover(t, fakeDiscover)
	cfg := config.DefaultConfig()
	cfg.Raster.Engine = config.RasterFitz

	var out bytes.Buffer
	err := checkEnvironment(context.Background(), &out, &cfg)

	// tesseract is still required; poppler is not.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tesseract OCR not found")
	assert.NotContains(t, err.Error(), "Poppler")
	assert.Contains(t, out.String(), "pdftoppm:  not found")
}

func TestCheckEnvironment_PrintsPopplerDir(t *testing.T) {
	withDiscover(t, func(req engines.Requirements, o engines.Overrides) (*engines.Environment, error) {
		_, err := fakeDiscover(engines.Requirements{Tesseract: req.Tesseract}, o)
		return &engines.Environment{PdftoppmPath: "/opt/poppler/bin/pdftoppm"}, err
	})
	cfg := config.DefaultConfig()

	var out bytes.Buffer
	err := checkEnvironment(context.Background(), &out, &cfg)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "Poppler")
	assert.Contains(t, out.String(), "pdftoppm:  /opt/poppler/bin/pdftoppm")
	assert.Contains(t, out.String(), "poppler:   /opt/poppler/bin")
}

func TestUnjoin(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	assert.Nil(t, unjoin(nil))
	assert.Equal(t, []error{a}, unjoin(a))
	assert.Equal(t, []error{a, b}, unjoin(errors.Join(a, b)))
}
