package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/classifier"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
	"github.com/MeKo-Tech/tocfinder/internal/recognizer"
)

// fakeRasterizer renders up to Pages pages and remembers what it was asked.
type fakeRasterizer struct {
	Pages int
	Err   error

	mu        sync.Mutex
	gotRange  pdf.PageRange
	gotUpload []byte
}

func (f *fakeRasterizer) Rasterize(_ context.Context, path string, r pdf.PageRange, dpi int) ([]pdf.PageImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.gotRange = r
	f.gotUpload = data
	f.mu.Unlock()

	if f.Err != nil {
		return nil, &pdf.RasterizationError{Path: path, Engine: "fake", Err: f.Err}
	}
	var pages []pdf.PageImage
	for n := r.First; n <= r.Last && n <= f.Pages; n++ {
		pages = append(pages, pdf.PageImage{Number: n, Image: image.NewGray(image.Rect(0, 0, n, 1)), DPI: dpi})
	}
	return pages, nil
}

func (f *fakeRasterizer) Range() pdf.PageRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotRange
}

func (f *fakeRasterizer) Upload() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotUpload
}

// pageText reports the page number encoded in the fake image width.
func pageText(failing ...int) recognizer.Recognizer {
	return recognizer.Func(func(_ context.Context, img image.Image, _ recognizer.Profile) (string, error) {
		page := img.Bounds().Dx()
		for _, f := range failing {
			if f == page {
				return "", errors.New("ocr failed")
			}
		}
		return strconv.Itoa(page), nil
	})
}

// verdicts marks the given pages as TOC with the given confidence.
func verdicts(toc map[int]float64) classifier.Classifier {
	return classifier.Func(func(_ context.Context, text string) (classifier.Decision, error) {
		page, err := strconv.Atoi(text)
		if err != nil {
			return classifier.Decision{}, err
		}
		if c, ok := toc[page]; ok {
			return classifier.Decision{IsTOC: true, Confidence: c}, nil
		}
		return classifier.Decision{Confidence: 0.1}, nil
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, r pdf.Rasterizer, rec recognizer.Recognizer, cls classifier.Classifier) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(r, rec, cls, pipeline.DefaultConfig(), pipeline.WithLogger(quietLogger()))
	require.NoError(t, err)
	return p
}

func newTestServer(t *testing.T, scanner Scanner, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := Config{Version: "test", Logger: quietLogger()}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := NewServer(scanner, cfg)
	require.NoError(t, err)
	return s
}

// uploadRequest builds a multipart POST /toc request.
func uploadRequest(t *testing.T, filename string, body []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("pdf", filename)
		require.NoError(t, err)
		_, err = part.Write(body)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/toc", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
