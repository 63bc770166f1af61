// Package engines locates the external programs tocfinder drives.
package engines

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Binary names looked up on PATH.
const (
	TesseractBinary = "tesseract"
	PdftoppmBinary  = "pdftoppm"
)

// ErrEngineNotFound matches every *EngineNotFoundError.
var ErrEngineNotFound = errors.New("engine not found")

// EngineNotFoundError reports a required program that could not be located.
type EngineNotFoundError struct {
	Engine string
	Binary string
	Hint   string
	Err    error
}

func (e *EngineNotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found (looked for %q)", e.Engine, e.Binary)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

func (e *EngineNotFoundError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEngineNotFound.
func (e *EngineNotFoundError) Is(target error) bool {
	return target == ErrEngineNotFound
}

// Environment records where the external engines live. It is produced once
// at startup and passed to the components that run them.
type Environment struct {
	TesseractPath string `json:"tesseract_path,omitempty"`
	PdftoppmPath  string `json:"pdftoppm_path,omitempty"`
}

// PopplerDir returns the directory holding pdftoppm.
func (e *Environment) PopplerDir() string {
	if e.PdftoppmPath == "" {
		return ""
	}
	return filepath.Dir(e.PdftoppmPath)
}

// Requirements selects which engines must be present.
type Requirements struct {
	Tesseract bool
	Poppler   bool
}

// Overrides point discovery at explicit locations instead of PATH.
type Overrides struct {
	TesseractPath string // path to the tesseract executable
	PopplerPath   string // directory containing pdftoppm, or pdftoppm itself
}

// Finder performs discovery. LookPath defaults to exec.LookPath.
type Finder struct {
	LookPath func(file string) (string, error)
	Stat     func(name string) (os.FileInfo, error)
}

// NewFinder creates a Finder backed by the real filesystem.
func NewFinder() *Finder {
	return &Finder{LookPath: exec.LookPath, Stat: os.Stat}
}

// Discover locates the required engines using the default Finder.
func Discover(req Requirements, overrides Overrides) (*Environment, error) {
	return NewFinder().Discover(req, overrides)
}

// Discover locates every required engine. All missing engines are reported
// together so one run of the doctor command shows everything to install.
func (f *Finder) Discover(req Requirements, overrides Overrides) (*Environment, error) {
	env := &Environment{}
	var errs []error

	if req.Tesseract {
		path, err := f.locate(TesseractBinary, overrides.TesseractPath, false)
		if err != nil {
			errs = append(errs, &EngineNotFoundError{
				Engine: "Tesseract OCR",
				Binary: TesseractBinary,
				Hint:   "install tesseract with the rus and eng language data, or set ocr.tesseract_path",
				Err:    err,
			})
		}
		env.TesseractPath = path
	}

	if req.Poppler {
		path, err := f.locate(PdftoppmBinary, overrides.PopplerPath, true)
		if err != nil {
			errs = append(errs, &EngineNotFoundError{
				Engine: "Poppler",
				Binary: PdftoppmBinary,
				Hint:   "install poppler-utils, or set raster.poppler_path",
				Err:    err,
			})
		}
		env.PdftoppmPath = path
	}

	if len(errs) > 0 {
		return env, errors.Join(errs...)
	}
	return env, nil
}

// locate resolves binary from an explicit override or PATH. When dirAllowed
// is set the override may name the directory containing the binary.
func (f *Finder) locate(binary, override string, dirAllowed bool) (string, error) {
	if override == "" {
		return f.LookPath(binary)
	}

	info, err := f.Stat(override)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		if !dirAllowed {
			return "", fmt.Errorf("%s is a directory", override)
		}
		candidate := filepath.Join(override, executableName(binary))
		info, err = f.Stat(candidate)
		if err != nil {
			return "", err
		}
		override = candidate
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", override)
	}
	return override, nil
}

func executableName(binary string) string {
	if runtime.GOOS == "windows" {
		return binary + ".exe"
	}
	return binary
}
