// Package batch scans many documents with one pipeline.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// Runner scans a single document. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, path string, opts ...pipeline.RunOption) (*pipeline.Result, error)
}

// ErrNoDocuments is returned when discovery finds nothing to scan.
var ErrNoDocuments = errors.New("no PDF files found")

// Process discovers the documents named by args and scans each with runner.
// Results keep discovery order whatever the worker count. Unless
// ContinueOnError is set, the first failure stops the batch and is returned
// together with the partial result.
func Process(ctx context.Context, runner Runner, args []string, config Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := DiscoverPDFFiles(args, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover PDF files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}

	workers := max(config.Workers, 1)
	workers = min(workers, len(files))
	progress := config.Progress
	if progress == nil {
		progress = pipeline.NoOpProgressCallback{}
	}

	logger.Info("batch started", "files", len(files), "workers", workers)
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make([]Item, len(files))
	for i, f := range files {
		items[i].Path = f
	}

	type done struct {
		index int
		item  Item
	}
	jobs := make(chan int, len(files))
	results := make(chan done, len(files))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, err := runner.Run(ctx, files[idx])
				if err != nil && !config.ContinueOnError {
					cancel()
				}
				results <- done{index: idx, item: Item{Path: files[idx], Result: res, Err: err}}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	progress.OnStart(len(files))
	var firstErr error
	completed := 0
	for d := range results {
		items[d.index] = d.item
		completed++
		if d.item.Err != nil {
			logger.Warn("document failed", "file", d.item.Path, "error", d.item.Err)
			progress.OnError(d.index+1, d.item.Err)
			if !config.ContinueOnError && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", d.item.Path, d.item.Err)
				cancel()
			}
		}
		progress.OnProgress(completed, len(files))
	}
	progress.OnComplete()

	result := &Result{Items: items, Duration: time.Since(start), Workers: workers}
	stats := result.Stats()
	logger.Info("batch finished",
		"files", stats.Total,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"with_toc", stats.WithTOC,
		"duration", result.Duration.Round(time.Millisecond),
	)

	if firstErr != nil {
		return result, firstErr
	}
	if err := ctx.Err(); err != nil && stats.Skipped > 0 {
		return result, err
	}
	return result, nil
}
