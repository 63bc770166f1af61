// Package pipeline drives one document through rasterization, recognition
// and classification and reduces the page verdicts to a summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/tocfinder/internal/classifier"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/recognizer"
)

// Config holds the settings shared by every run of a Pipeline.
type Config struct {
	Range   pdf.PageRange
	DPI     int
	Profile recognizer.Profile
	Workers int // pages recognized concurrently; 1 is strictly sequential
}

// DefaultConfig examines pages 1-10 at 300 DPI, one page at a time.
func DefaultConfig() Config {
	return Config{
		Range:   pdf.DefaultPageRange(),
		DPI:     pdf.DefaultDPI,
		Profile: recognizer.DefaultProfile(),
		Workers: 1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return fmt.Errorf("invalid page range: %w", err)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("invalid dpi: %d", c.DPI)
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("invalid recognition profile: %w", err)
	}
	return nil
}

// Pipeline runs documents through a rasterizer, recognizer and classifier.
// It keeps no per-run state and may serve concurrent runs.
type Pipeline struct {
	rasterizer pdf.Rasterizer
	recognizer recognizer.Recognizer
	classifier classifier.Classifier
	config     Config
	logger     *slog.Logger
	progress   ProgressCallback
	newRunID   func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for run and page events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress sets the default progress callback for every run.
func WithProgress(cb ProgressCallback) Option {
	return func(p *Pipeline) {
		if cb != nil {
			p.progress = cb
		}
	}
}

// WithRunIDGenerator replaces the UUID run identifiers.
func WithRunIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newRunID = fn
		}
	}
}

// New creates a pipeline from its three stages.
func New(r pdf.Rasterizer, rec recognizer.Recognizer, cls classifier.Classifier, config Config, opts ...Option) (*Pipeline, error) {
	if r == nil || rec == nil || cls == nil {
		return nil, errors.New("pipeline requires a rasterizer, a recognizer and a classifier")
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		rasterizer: r,
		recognizer: rec,
		classifier: cls,
		config:     config,
		logger:     slog.Default(),
		progress:   NoOpProgressCallback{},
		newRunID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// RunOption adjusts a single run.
type RunOption func(*runSettings)

type runSettings struct {
	pages    pdf.PageRange
	progress ProgressCallback
}

// WithRange examines r instead of the configured page range.
func WithRange(r pdf.PageRange) RunOption {
	return func(s *runSettings) { s.pages = r }
}

// WithRunProgress reports this run to cb instead of the pipeline default.
func WithRunProgress(cb ProgressCallback) RunOption {
	return func(s *runSettings) {
		if cb != nil {
			s.progress = cb
		}
	}
}

// Run examines the document at path. Page-level failures become error
// records; rasterization failures, cancellation and internal errors fail the
// whole run and return no result.
func (p *Pipeline) Run(ctx context.Context, path string, opts ...RunOption) (res *Result, err error) {
	settings := runSettings{pages: p.config.Range, progress: p.progress}
	for _, opt := range opts {
		opt(&settings)
	}
	if path == "" {
		return nil, errors.New("no document given")
	}
	if err := settings.pages.Validate(); err != nil {
		return nil, fmt.Errorf("invalid page range: %w", err)
	}

	runID := p.newRunID()
	logger := p.logger.With("run_id", runID, "file", path)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("run panicked", "panic", r)
			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	logger.Info("run started", "pages", settings.pages.String(), "dpi", p.config.DPI, "workers", p.config.Workers)

	pages, err := p.rasterizer.Rasterize(ctx, path, settings.pages, p.config.DPI)
	if err != nil {
		logger.Error("rasterization failed", "error", err)
		return nil, err
	}
	pages, err = orderPages(pages, settings.pages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	rasterized := time.Now()

	records, err := p.processPages(ctx, pages, settings.progress, logger)
	if err != nil {
		logger.Warn("run aborted", "error", err)
		return nil, err
	}

	summary := Summarize(records)
	finished := time.Now()
	logger.Info("run finished",
		"pages", len(records),
		"toc_pages", summary.TOCPages,
		"failed_pages", len(summary.FailedPages),
		"duration", finished.Sub(started).Round(time.Millisecond),
	)

	return &Result{
		RunID:    runID,
		Filename: path,
		Range:    settings.pages,
		Records:  records,
		Summary:  summary,
		Timing: Timing{
			RasterizeMs: rasterized.Sub(started).Milliseconds(),
			PagesMs:     finished.Sub(rasterized).Milliseconds(),
			TotalMs:     finished.Sub(started).Milliseconds(),
		},
		StartedAt: started,
	}, nil
}

// orderPages sorts the rasterizer output and rejects pages outside the
// requested range or rendered twice.
func orderPages(pages []pdf.PageImage, r pdf.PageRange) ([]pdf.PageImage, error) {
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	for i, page := range pages {
		if page.Number < r.First || page.Number > r.Last {
			return nil, fmt.Errorf("rasterizer returned page %d outside %s", page.Number, r)
		}
		if i > 0 && pages[i-1].Number == page.Number {
			return nil, fmt.Errorf("rasterizer returned page %d twice", page.Number)
		}
	}
	return pages, nil
}

// processPage recognizes and classifies one page. It never fails: every
// problem, including a panic in a stage, becomes an error record. The page
// image is released before returning.
func (p *Pipeline) processPage(ctx context.Context, page *pdf.PageImage, logger *slog.Logger) (rec PageRecord) {
	stage := StageRecognize
	defer func() {
		page.Image = nil
		if r := recover(); r != nil {
			rec = errorRecord(page.Number, stage, fmt.Errorf("%w: panic: %v", ErrInternal, r))
			logger.Error("page stage panicked", "page", page.Number, "stage", stage, "panic", r)
		}
	}()

	if page.Image == nil {
		logger.Warn("page failed", "page", page.Number, "stage", stage, "error", pdf.ErrNoPageImage)
		return errorRecord(page.Number, stage, pdf.ErrNoPageImage)
	}

	profile := p.config.Profile
	if page.DPI > 0 {
		profile.DPI = page.DPI
	}

	text, err := p.recognizer.Recognize(ctx, page.Image, profile)
	if err != nil {
		logger.Warn("page failed", "page", page.Number, "stage", stage, "error", err)
		return errorRecord(page.Number, stage, err)
	}

	stage = StageClassify
	decision, err := p.classifier.Classify(ctx, text)
	if err != nil {
		logger.Warn("page failed", "page", page.Number, "stage", stage, "error", err)
		return errorRecord(page.Number, stage, err)
	}

	rec = PageRecord{
		Page:       page.Number,
		IsTOC:      decision.IsTOC,
		Confidence: classifier.Clamp(decision.Confidence),
	}
	logger.Debug("page classified", "page", rec.Page, "is_toc", rec.IsTOC, "confidence", rec.Confidence, "chars", len(text))
	return rec
}
