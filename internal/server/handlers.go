package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
	"github.com/MeKo-Tech/tocfinder/internal/report"
)

// RuntimeStats summarizes memory usage of the server process.
type RuntimeStats struct {
	AllocBytes uint64 `json:"alloc_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

func currentRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		AllocBytes: m.Alloc,
		SysBytes:   m.Sys,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:      "healthy",
		Version:     s.version,
		Time:        time.Now().UTC().Format(time.RFC3339),
		Environment: s.environment,
		Runtime:     currentRuntimeStats(),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// tocHandler scans an uploaded PDF. The multipart form carries the document
// as "pdf" and optionally "pages" and "format" (json unless given).
func (s *Server) tocHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := s.parseUpload(w, r)
	if err != nil {
		return // error already written
	}
	defer func() { _ = file.Close() }()

	format := report.FormatJSON
	if v := r.FormValue("format"); v != "" {
		if format, err = report.ParseFormat(v); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	pages, err := s.requestRange(r.FormValue("pages"))
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	path, cleanup, err := saveUpload(file)
	if err != nil {
		s.logger.Error("failed to store upload", "error", err)
		s.writeErrorResponse(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.scanner.Run(ctx, path,
		pipeline.WithRange(pages),
		pipeline.WithRunProgress(pipeline.RecordFunc(observePage)),
	)
	observeScan("http", res, err, time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("scan failed", "file", header.Filename, "error", err)
		s.writeErrorResponse(w, "Scan failed: "+err.Error(), statusForError(err))
		return
	}

	// Report the client's file name rather than the temp path.
	res.Filename = header.Filename
	s.writeResult(w, res, format)
}

// parseUpload extracts the "pdf" part of a size-limited multipart form.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.handleFormParseError(w, err)
		return nil, nil, err
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.writeErrorResponse(w, "No PDF file provided", http.StatusBadRequest)
		return nil, nil, err
	}
	uploadSizeBytes.Observe(float64(header.Size))
	return file, header, nil
}

func (s *Server) handleFormParseError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
}

// requestRange parses an optional page range, defaulting to the server's.
func (s *Server) requestRange(value string) (pdf.PageRange, error) {
	if strings.TrimSpace(value) == "" {
		return s.defaultRange, nil
	}
	r, err := pdf.ParsePageRange(value)
	if err != nil {
		return pdf.PageRange{}, fmt.Errorf("invalid pages: %w", err)
	}
	return r, nil
}

// saveUpload copies an upload to a temp file the rasterizers can open.
func saveUpload(src io.Reader) (string, func(), error) {
	tmp, err := os.CreateTemp("", "tocfinder-upload-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

// statusForError maps run failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pdf.ErrRasterization):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeResult(w http.ResponseWriter, res *pipeline.Result, format report.Format) {
	switch format {
	case report.FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := report.WriteText(w, res); err != nil {
			s.logger.Error("failed to write text response", "error", err)
		}
	case report.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := report.WriteCSV(w, res); err != nil {
			s.logger.Error("failed to write csv response", "error", err)
		}
	default:
		s.writeJSON(w, http.StatusOK, TOCResponse{
			Success: true,
			Message: report.SummaryLine(res),
			Result:  res,
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, TOCResponse{Success: false, Error: message})
}
