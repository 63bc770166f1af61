package pipeline

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/MeKo-Tech/tocfinder/internal/classifier"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/recognizer"
)

// fakeRasterizer renders a document of Pages pages. Each page image is
// Number pixels wide so fakes further down can tell pages apart.
type fakeRasterizer struct {
	Pages int
	Err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, path string, r pdf.PageRange, dpi int) ([]pdf.PageImage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return nil, &pdf.RasterizationError{Path: path, Engine: "fake", Err: f.Err}
	}
	r, ok := r.Clamp(f.Pages)
	if !ok {
		return nil, nil
	}
	pages := make([]pdf.PageImage, 0, r.Len())
	for n := r.First; n <= r.Last; n++ {
		pages = append(pages, pdf.PageImage{Number: n, Image: pageImage(n), DPI: dpi})
	}
	return pages, nil
}

// staticRasterizer returns a fixed page list.
type staticRasterizer []pdf.PageImage

func (s staticRasterizer) Rasterize(context.Context, string, pdf.PageRange, int) ([]pdf.PageImage, error) {
	out := make([]pdf.PageImage, len(s))
	copy(out, s)
	return out, nil
}

func pageImage(n int) image.Image {
	return image.NewGray(image.Rect(0, 0, n, 1))
}

// pageText recognizes "page N" from the width of the fake page image.
func pageText(fail ...int) recognizer.Recognizer {
	failing := make(map[int]bool, len(fail))
	for _, n := range fail {
		failing[n] = true
	}
	return recognizer.Func(func(_ context.Context, img image.Image, _ recognizer.Profile) (string, error) {
		n := img.Bounds().Dx()
		if failing[n] {
			return "", fmt.Errorf("tesseract exited on page %d", n)
		}
		return "page " + strconv.Itoa(n), nil
	})
}

// verdicts classifies "page N" with the decision stored for N. Pages
// without an entry are regular text at 0.9.
func verdicts(decisions map[int]classifier.Decision) classifier.Classifier {
	return classifier.Func(func(_ context.Context, text string) (classifier.Decision, error) {
		n, err := strconv.Atoi(strings.TrimPrefix(text, "page "))
		if err != nil {
			return classifier.Decision{}, fmt.Errorf("unexpected text %q", text)
		}
		if d, ok := decisions[n]; ok {
			return d, nil
		}
		return classifier.Decision{IsTOC: false, Confidence: 0.9}, nil
	})
}

// recordingProgress keeps everything a run reported.
type recordingProgress struct {
	started   int
	progress  []int
	errors    []int
	records   []PageRecord
	completed int
}

func (r *recordingProgress) OnStart(total int)             { r.started = total }
func (r *recordingProgress) OnProgress(current, total int) { r.progress = append(r.progress, current) }
func (r *recordingProgress) OnComplete()                   { r.completed++ }
func (r *recordingProgress) OnError(page int, err error)   { r.errors = append(r.errors, page) }
func (r *recordingProgress) OnRecord(rec PageRecord)       { r.records = append(r.records, rec) }
