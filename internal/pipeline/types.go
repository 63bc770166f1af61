package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/tocfinder/internal/pdf"
)

// Stage names the per-page step that failed.
type Stage string

const (
	StageRecognize Stage = "recognize"
	StageClassify  Stage = "classify"
)

// ErrInternal wraps failures that are bugs rather than bad input.
var ErrInternal = errors.New("internal error")

// PageError records why a page produced no verdict.
type PageError struct {
	Page  int
	Stage Stage
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// MarshalJSON renders the stage and message; the page is carried by the record.
func (e *PageError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Stage   Stage  `json:"stage"`
		Message string `json:"message"`
	}{e.Stage, msg})
}

// PageRecord is the outcome for one rasterized page. Error records have
// IsTOC false and Confidence 0.
type PageRecord struct {
	Page       int        `json:"page"`
	IsTOC      bool       `json:"is_toc"`
	Confidence float64    `json:"confidence"`
	Err        *PageError `json:"error,omitempty"`
}

// Failed reports whether the page ended in an error.
func (r PageRecord) Failed() bool {
	return r.Err != nil
}

func errorRecord(page int, stage Stage, err error) PageRecord {
	return PageRecord{Page: page, Err: &PageError{Page: page, Stage: stage, Err: err}}
}

// RunSummary is the document-level verdict.
type RunSummary struct {
	TOCPages      []int    `json:"toc_pages"`
	HasTOC        bool     `json:"has_toc"`
	Confidence    *float64 `json:"confidence,omitempty"` // nil when no TOC was found
	PagesExamined int      `json:"pages_examined"`
	FailedPages   []int    `json:"failed_pages,omitempty"`
}

// Timing breaks down where a run spent its time.
type Timing struct {
	RasterizeMs int64 `json:"rasterize_ms"`
	PagesMs     int64 `json:"pages_ms"`
	TotalMs     int64 `json:"total_ms"`
}

// Result is everything one run produced.
type Result struct {
	RunID     string        `json:"run_id"`
	Filename  string        `json:"filename"`
	Range     pdf.PageRange `json:"range"`
	Records   []PageRecord  `json:"records"`
	Summary   RunSummary    `json:"summary"`
	Timing    Timing        `json:"timing"`
	StartedAt time.Time     `json:"started_at"`
}
