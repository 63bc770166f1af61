package pdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PageRange is an inclusive, 1-based page window.
type PageRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// DefaultPageRange covers the first ten pages, where a TOC normally sits.
func DefaultPageRange() PageRange {
	return PageRange{First: 1, Last: 10}
}

// Validate checks that the range is non-empty and 1-based.
func (r PageRange) Validate() error {
	if r.First < 1 {
		return fmt.Errorf("first page must be at least 1, got %d", r.First)
	}
	if r.Last < r.First {
		return fmt.Errorf("last page %d is before first page %d", r.Last, r.First)
	}
	return nil
}

// Len returns the number of pages the range asks for.
func (r PageRange) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// Clamp trims the range to a document with pageCount pages. It reports false
// when the range starts beyond the last page.
func (r PageRange) Clamp(pageCount int) (PageRange, bool) {
	if pageCount < r.First {
		return PageRange{}, false
	}
	if r.Last > pageCount {
		r.Last = pageCount
	}
	return r, true
}

// Pages lists the page numbers of the range as strings, the form pdfcpu
// expects for page selection.
func (r PageRange) Pages() []string {
	out := make([]string, 0, r.Len())
	for p := r.First; p <= r.Last; p++ {
		out = append(out, strconv.Itoa(p))
	}
	return out
}

func (r PageRange) String() string {
	if r.First == r.Last {
		return strconv.Itoa(r.First)
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// ParsePageRange parses "N" or "N-M". An empty string yields the default range.
func ParsePageRange(s string) (PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPageRange(), nil
	}

	r, err := parseRangeToken(s)
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid page range %q: %w", s, err)
	}
	if err := r.Validate(); err != nil {
		return PageRange{}, fmt.Errorf("invalid page range %q: %w", s, err)
	}
	return r, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) (PageRange, error) {
	if strings.Contains(part, ",") {
		return PageRange{}, errors.New("only a single contiguous range is supported")
	}
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return PageRange{}, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return PageRange{}, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return PageRange{}, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		return PageRange{First: start, Last: end}, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid page number: %s", part)
	}
	return PageRange{First: page, Last: page}, nil
}
