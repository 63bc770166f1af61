package recognizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls text post-processing behavior.
type CleanOptions struct {
	NormalizeForm      string            // "NFC" (default), "NFKC", "NFD", "NFKD", "" to disable
	CollapseWhitespace bool              // collapse runs of spaces and tabs within a line
	DropBlankLines     bool              // squeeze runs of blank lines down to one
	Trim               bool              // trim leading/trailing whitespace
	RemoveControlChars bool              // remove non-printable control characters
	RemoveZeroWidth    bool              // remove zero-width spaces/joiners
	ReplaceMap         map[string]string // string replacements applied after normalization
	Languages          []string          // tesseract language codes; select the default ReplaceMap
}

// DefaultCleanOptions returns sensible defaults for OCR text. Line breaks are
// kept: the layout of a page is what tells a contents page apart.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFC",
		CollapseWhitespace: true,
		DropBlankLines:     true,
		Trim:               true,
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
	}
}

// PostProcessText applies normalization and cleaning to OCR text.
func PostProcessText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}

	s = applyNormalization(s, opts)
	if opts.RemoveZeroWidth {
		s = removeZeroWidth(s)
	}
	if opts.RemoveControlChars {
		s = removeControlChars(s)
	}
	s = applyReplacements(s, opts)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if opts.CollapseWhitespace {
		s = collapseWhitespace(s)
	}
	if opts.DropBlankLines {
		s = blankRunRe.ReplaceAllString(s, "\n\n")
	}
	if opts.Trim {
		s = strings.TrimSpace(s)
	}

	return s
}

func applyNormalization(s string, opts CleanOptions) string {
	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFC":
		return norm.NFC.String(s)
	case "NFKC":
		return norm.NFKC.String(s)
	case "NFD":
		return norm.NFD.String(s)
	case "NFKD":
		return norm.NFKD.String(s)
	}
	return s
}

func applyReplacements(s string, opts CleanOptions) string {
	if len(opts.ReplaceMap) > 0 {
		return applyReplaceMap(s, opts.ReplaceMap)
	}
	if len(opts.Languages) > 0 {
		return applyReplaceMap(s, DefaultReplaceMapForLanguages(opts.Languages))
	}
	return s
}

func applyReplaceMap(s string, replaceMap map[string]string) string {
	// Replace longer keys first to avoid partial overlaps
	for _, k := range sortedKeysByLength(replaceMap) {
		s = strings.ReplaceAll(s, k, replaceMap[k])
	}
	return s
}

func sortedKeysByLength(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := range len(keys) - 1 {
		for j := i + 1; j < len(keys); j++ {
			if len(keys[j]) > len(keys[i]) || (len(keys[j]) == len(keys[i]) && keys[j] < keys[i]) {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DefaultReplaceMapForLanguages returns light-touch replacements for OCR
// artifacts and typographic punctuation in the given tesseract languages.
func DefaultReplaceMapForLanguages(langs []string) map[string]string {
	m := map[string]string{
		"\u2018": "'",   // ‘
		"\u2019": "'",   // ’
		"\u201C": "\"",  // “
		"\u201D": "\"",  // ”
		"\u2013": "-",   // en dash
		"\u2014": "-",   // em dash
		"\u00A0": " ",   // non-breaking space
		"\u2009": " ",   // thin space
		"\u2026": "...", // horizontal ellipsis
	}
	for _, lang := range langs {
		switch strings.ToLower(lang) {
		case "rus", "ukr", "bel":
			// Russian typography uses guillemets and „lapki“
			m["\u00AB"] = "\"" // «
			m["\u00BB"] = "\"" // »
			m["\u201E"] = "\"" // „
		case "deu":
			m["\u201E"] = "\"" // „
		case "fra":
			m["\u00AB"] = "\"" // «
			m["\u00BB"] = "\"" // »
		}
	}
	return m
}

var (
	hspaceRe   = regexp.MustCompile(`[ \t\f\v]+`)
	blankRunRe = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

// collapseWhitespace squeezes horizontal whitespace and strips it from line ends.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(hspaceRe.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}

// removeZeroWidth removes common zero-width characters used in OCR noise.
func removeZeroWidth(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u200B', // ZERO WIDTH SPACE
			'\u200C', // ZERO WIDTH NON-JOINER
			'\u200D', // ZERO WIDTH JOINER
			'\uFEFF': // ZERO WIDTH NO-BREAK SPACE (BOM)
			// skip
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// garbledControlRatio is the share of control characters above which engine
// output is treated as garbage rather than text.
const garbledControlRatio = 0.05

// validateText rejects raw engine output dominated by control characters,
// which tesseract emits when it decodes noise. Empty output is valid.
func validateText(s string) error {
	var controls, total int
	for _, r := range s {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
			controls++
		}
	}
	if total == 0 {
		return nil
	}
	if ratio := float64(controls) / float64(total); ratio >= garbledControlRatio {
		return fmt.Errorf("%w: %.0f%% control characters", ErrGarbledOutput, ratio*100)
	}
	return nil
}
