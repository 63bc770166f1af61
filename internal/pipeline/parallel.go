package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/tocfinder/internal/pdf"
)

// pageResult carries a finished record back to the collector.
type pageResult struct {
	index  int
	record PageRecord
}

// processPages produces one record per page in page order. Progress is
// always reported from the calling goroutine.
func (p *Pipeline) processPages(ctx context.Context, pages []pdf.PageImage, progress ProgressCallback, logger *slog.Logger) ([]PageRecord, error) {
	total := len(pages)
	progress.OnStart(total)
	defer progress.OnComplete()

	if p.config.Workers <= 1 || total <= 1 {
		return p.processSequential(ctx, pages, progress, logger)
	}
	return p.processParallel(ctx, pages, progress, logger)
}

func (p *Pipeline) processSequential(ctx context.Context, pages []pdf.PageImage, progress ProgressCallback, logger *slog.Logger) ([]PageRecord, error) {
	records := make([]PageRecord, 0, len(pages))
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := p.processPage(ctx, &pages[i], logger)
		records = append(records, rec)
		reportRecord(progress, rec, len(records), len(pages))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// processParallel fans pages out to a bounded worker pool and slots the
// records back by index.
func (p *Pipeline) processParallel(ctx context.Context, pages []pdf.PageImage, progress ProgressCallback, logger *slog.Logger) ([]PageRecord, error) {
	workers := min(p.config.Workers, len(pages))

	jobs := make(chan int, len(pages))
	results := make(chan pageResult, len(pages))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- pageResult{index: idx, record: p.processPage(ctx, &pages[idx], logger)}
			}
		}()
	}

	for i := range pages {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]PageRecord, len(pages))
	done := 0
	for res := range results {
		records[res.index] = res.record
		done++
		reportRecord(progress, res.record, done, len(pages))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func reportRecord(progress ProgressCallback, rec PageRecord, done, total int) {
	if rc, ok := progress.(RecordCallback); ok {
		rc.OnRecord(rec)
	}
	if rec.Failed() {
		progress.OnError(rec.Page, rec.Err)
	}
	progress.OnProgress(done, total)
}
