package classifier

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// HeuristicConfig tunes the layout based classifier.
type HeuristicConfig struct {
	Threshold float64
	Keywords  []string // headings that title a contents page, any case
	MinLines  int      // pages shorter than this get a proportionally weaker layout score
}

// DefaultHeuristicConfig knows Russian and English headings plus a few
// common European ones.
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		Threshold: DefaultThreshold,
		Keywords: []string{
			"table of contents",
			"contents",
			"оглавление",
			"содержание",
			"inhaltsverzeichnis",
			"inhalt",
			"table des matières",
			"sommaire",
		},
		MinLines: 4,
	}
}

// Heuristic scores a page on a contents heading and on how many of its lines
// look like entries: a title followed by a page number, often joined by dot
// leaders.
type Heuristic struct {
	threshold float64
	keywords  []string
	minLines  int
}

// NewHeuristic creates a heuristic classifier.
func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = normalize(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if cfg.MinLines < 1 {
		cfg.MinLines = 1
	}
	return &Heuristic{threshold: cfg.Threshold, keywords: keywords, minLines: cfg.MinLines}
}

// Classify implements Classifier. It never fails.
func (h *Heuristic) Classify(ctx context.Context, text string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	return decide(h.Extract(text).Score(h.minLines), h.threshold), nil
}

// Features summarizes the layout signals of one page.
type Features struct {
	Lines          int  // non-empty lines
	HeadingKeyword bool // a keyword titles the page
	BodyKeyword    bool // a keyword appears further down
	EntryLines     int  // lines ending in a page number
	LeaderLines    int  // lines with dot leaders
	NumberedLines  int  // lines opening with a section number or chapter word
}

const headingLines = 3

var (
	entryRe    = regexp.MustCompile(`^.*\pL.*?(?:(?:\s*[.·•_\-]{2,}\s*|\s+)\d{1,3}|\s*[.·•_\-]{2,}\s*[ivxlc]{1,6})$`)
	leaderRe   = regexp.MustCompile(`(?:\.\s?){4,}|_{4,}|·{4,}|-{4,}`)
	numberedRe = regexp.MustCompile(`^(?:\d{1,2}(?:\.\d{1,2})*\.?|[ivx]{1,5}\.|chapter|part|section|appendix|глава|часть|раздел|приложение)\s`)
)

// Extract computes the features of text.
func (h *Heuristic) Extract(text string) Features {
	var f Features
	for _, line := range strings.Split(normalize(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		f.Lines++

		if h.hasKeyword(line) {
			if f.Lines <= headingLines && utf8.RuneCountInString(line) <= 40 {
				f.HeadingKeyword = true
			} else {
				f.BodyKeyword = true
			}
		}
		if entryRe.MatchString(line) {
			f.EntryLines++
		}
		if leaderRe.MatchString(line) {
			f.LeaderLines++
		}
		if numberedRe.MatchString(line) {
			f.NumberedLines++
		}
	}
	return f
}

// Score combines the features into a TOC likelihood in [0, 1].
func (f Features) Score(minLines int) float64 {
	if f.Lines == 0 {
		return 0
	}

	keyword := 0.0
	switch {
	case f.HeadingKeyword:
		keyword = 1
	case f.BodyKeyword:
		keyword = 0.4
	}

	lines := float64(f.Lines)
	layout := 0.6*ratioScore(float64(f.EntryLines)/lines, 0.5) +
		0.25*ratioScore(float64(f.LeaderLines)/lines, 0.3) +
		0.15*ratioScore(float64(f.NumberedLines)/lines, 0.3)
	if f.Lines < minLines {
		layout *= lines / float64(minLines)
	}

	return Clamp(0.3*keyword + 0.7*layout)
}

// ratioScore maps a line ratio onto [0, 1], saturating at full.
func ratioScore(ratio, full float64) float64 {
	return math.Min(1, ratio/full)
}

func (h *Heuristic) hasKeyword(line string) bool {
	for _, k := range h.keywords {
		if strings.Contains(line, k) {
			return true
		}
	}
	return false
}

// normalize folds case and compatibility forms so OCR variants compare equal.
func normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}
