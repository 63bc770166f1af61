package batch

import (
	"time"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	Workers         int  // documents scanned concurrently
	ContinueOnError bool // keep going after a document fails

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress reports documents, not pages.
	Progress pipeline.ProgressCallback
}

// DefaultConfig scans two documents at a time and stops at the first failure.
func DefaultConfig() Config {
	return Config{Workers: 2}
}

// Item is the outcome for one document. Exactly one of Result and Err is set
// for documents that were attempted; skipped documents have neither.
type Item struct {
	Path   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Err    error            `json:"-"`
}

// Skipped reports whether the document was never scanned.
func (i Item) Skipped() bool {
	return i.Result == nil && i.Err == nil
}

// Result holds the result of batch processing in discovery order.
type Result struct {
	Items    []Item
	Duration time.Duration
	Workers  int
}

// Stats counts the items of a batch.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	WithTOC   int `json:"with_toc"`
}

// Stats summarizes r.
func (r *Result) Stats() Stats {
	s := Stats{Total: len(r.Items)}
	for _, item := range r.Items {
		switch {
		case item.Err != nil:
			s.Failed++
		case item.Result != nil:
			s.Succeeded++
			if item.Result.Summary.HasTOC {
				s.WithTOC++
			}
		default:
			s.Skipped++
		}
	}
	return s
}

// Results returns the successful pipeline results in order.
func (r *Result) Results() []*pipeline.Result {
	out := make([]*pipeline.Result, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Result != nil {
			out = append(out, item.Result)
		}
	}
	return out
}
