package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractCLI runs the tesseract executable once per page, piping the page
// in as PNG and reading plain text back.
type TesseractCLI struct {
	binary string
}

// NewTesseractCLI creates a recognizer for the tesseract binary at path.
func NewTesseractCLI(binary string) *TesseractCLI {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractCLI{binary: binary}
}

// Recognize implements Recognizer.
func (t *TesseractCLI) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", fmt.Errorf("invalid recognition profile: %w", err)
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, t.args(profile)...) //nolint:gosec // G204: binary comes from engine discovery
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}

	return cleanOutput(stdout.String(), profile)
}

func (t *TesseractCLI) args(profile Profile) []string {
	args := []string{
		"stdin", "stdout",
		"--oem", strconv.Itoa(profile.OEM),
		"--psm", strconv.Itoa(profile.PSM),
		"-l", profile.LanguageSpec(),
	}
	if profile.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(profile.DPI))
	}
	return args
}

// Languages lists the language packs the installed tesseract can load.
func (t *TesseractCLI) Languages(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, t.binary, "--list-langs").Output() //nolint:gosec // G204: binary comes from engine discovery
	if err != nil {
		return nil, fmt.Errorf("tesseract --list-langs: %w", err)
	}
	return parseLanguageList(string(out)), nil
}

// Version returns the first line of tesseract --version.
func (t *TesseractCLI) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.binary, "--version").CombinedOutput() //nolint:gosec // G204: binary comes from engine discovery
	if err != nil {
		return "", fmt.Errorf("tesseract --version: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// parseLanguageList skips the "List of available languages" header.
func parseLanguageList(out string) []string {
	var langs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "list of available languages") {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}

// MissingLanguages returns the entries of want that are not in have.
func MissingLanguages(want, have []string) []string {
	index := make(map[string]struct{}, len(have))
	for _, l := range have {
		index[l] = struct{}{}
	}
	var missing []string
	for _, l := range want {
		if _, ok := index[l]; !ok {
			missing = append(missing, l)
		}
	}
	return missing
}
