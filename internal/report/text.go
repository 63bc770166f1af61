package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// Percent formats a confidence in [0, 1] with one decimal, e.g. "80.0%".
func Percent(c float64) string {
	return strconv.FormatFloat(c*100, 'f', 1, 64) + "%"
}

// PageStatus is the human label for one page record.
func PageStatus(rec pipeline.PageRecord) string {
	switch {
	case rec.Failed():
		return fmt.Sprintf("error (%s): %v", rec.Err.Stage, rec.Err.Err)
	case rec.IsTOC:
		return "Table of contents"
	default:
		return "Regular text"
	}
}

// SummaryLine states where the table of contents was found, if anywhere.
func SummaryLine(res *pipeline.Result) string {
	s := res.Summary
	if s.HasTOC && s.Confidence != nil {
		pages := make([]string, len(s.TOCPages))
		for i, p := range s.TOCPages {
			pages[i] = strconv.Itoa(p)
		}
		return fmt.Sprintf("TOC found on page(s): %s with confidence %s", strings.Join(pages, ", "), Percent(*s.Confidence))
	}
	if res.Range.First == 1 {
		return fmt.Sprintf("No TOC found in the first %d pages", res.Range.Last)
	}
	return fmt.Sprintf("No TOC found in pages %s", res.Range)
}

// WriteText renders a result the way the console shows it.
func WriteText(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", res.Filename)
	for _, rec := range res.Records {
		fmt.Fprintf(&b, "Page %d: %s\n", rec.Page, PageStatus(rec))
		if !rec.Failed() {
			fmt.Fprintf(&b, "   Confidence: %s\n", Percent(rec.Confidence))
		}
	}
	b.WriteString("\nSummary:\n")
	b.WriteString(SummaryLine(res))
	b.WriteString("\n")
	if n := len(res.Summary.FailedPages); n > 0 {
		fmt.Fprintf(&b, "%d of %d pages could not be analyzed\n", n, res.Summary.PagesExamined)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
