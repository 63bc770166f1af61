// Package server exposes the TOC pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/tocfinder/internal/engines"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// Scanner examines one document on disk. *pipeline.Pipeline satisfies it.
type Scanner interface {
	Run(ctx context.Context, path string, opts ...pipeline.RunOption) (*pipeline.Result, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	scanner      Scanner
	corsOrigin   string
	maxUploadMB  int64
	timeout      time.Duration
	defaultRange pdf.PageRange
	rateLimiter  *RateLimiter
	environment  engines.Environment
	version      string
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	CORSOrigin   string
	MaxUploadMB  int64
	TimeoutSec   int
	DefaultRange pdf.PageRange
	RateLimit    RateLimitConfig
	Environment  engines.Environment
	Version      string
	Logger       *slog.Logger
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string              `json:"status"`
	Version     string              `json:"version,omitempty"`
	Time        string              `json:"time"`
	Environment engines.Environment `json:"environment"`
	Runtime     RuntimeStats        `json:"runtime"`
}

// TOCResponse is the JSON body of POST /toc.
type TOCResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer creates a server around scanner.
func NewServer(scanner Scanner, config Config) (*Server, error) {
	if scanner == nil {
		return nil, errors.New("server requires a scanner")
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	if config.TimeoutSec <= 0 {
		config.TimeoutSec = 120
	}
	if config.DefaultRange == (pdf.PageRange{}) {
		config.DefaultRange = pdf.DefaultPageRange()
	}
	if err := config.DefaultRange.Validate(); err != nil {
		return nil, err
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		scanner:      scanner,
		corsOrigin:   config.CORSOrigin,
		maxUploadMB:  config.MaxUploadMB,
		timeout:      time.Duration(config.TimeoutSec) * time.Second,
		defaultRange: config.DefaultRange,
		environment:  config.Environment,
		version:      config.Version,
		logger:       config.Logger,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(config.RateLimit)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/toc", s.corsMiddleware(s.rateLimitMiddleware(s.tocHandler)))
	mux.HandleFunc("/ws/toc", s.tocWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
