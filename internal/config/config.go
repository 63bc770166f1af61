package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/tocfinder/internal/classifier"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
	"github.com/MeKo-Tech/tocfinder/internal/recognizer"
)

// Engine names accepted by the configuration.
const (
	RasterPoppler  = "poppler"
	RasterFitz     = "fitz"
	RasterEmbedded = "embedded"

	OCRTesseract = "tesseract"
	OCRGosseract = "gosseract"

	ClassifierHeuristic = "heuristic"
	ClassifierLLM       = "llm"
)

var (
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validFormats     = []string{"text", "json", "csv"}
	validRasterizers = []string{RasterPoppler, RasterFitz, RasterEmbedded}
	validOCREngines  = []string{OCRTesseract, OCRGosseract}
	validClassifiers = []string{ClassifierHeuristic, ClassifierLLM}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	pageRange := pdf.DefaultPageRange()
	profile := recognizer.DefaultProfile()

	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pages: PagesConfig{
			First: pageRange.First,
			Last:  pageRange.Last,
		},
		Raster: RasterConfig{
			Engine: RasterPoppler,
			DPI:    pdf.DefaultDPI,
		},
		OCR: OCRConfig{
			Engine:       OCRTesseract,
			Languages:    profile.Languages,
			OEM:          profile.OEM,
			PSM:          profile.PSM,
			Retries:      0,
			RetryDelayMs: 500,
			Preprocess:   false,
		},
		Classifier: ClassifierConfig{
			Engine:    ClassifierHeuristic,
			Threshold: classifier.DefaultThreshold,
			LLM: LLMConfig{
				BaseURL:    "https://api.openai.com/v1",
				Model:      "gpt-4o-mini",
				TimeoutSec: 30,
			},
		},
		Pipeline: PipelineConfig{
			Workers: 1,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      120,
			ShutdownTimeout: 10,

			RateLimitEnabled:  false,
			RequestsPerMinute: 30,
			RequestsPerHour:   600,
			MaxRequestsPerDay: 2000,
			MaxDataPerDayMB:   1024,
		},
		Batch: BatchConfig{
			Workers:         2,
			ContinueOnError: false,
			Recursive:       false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if err := validateEnum(c.LogLevel, "log level", validLogLevels); err != nil {
		return err
	}
	if c.Output.Format != "" {
		if err := validateEnum(c.Output.Format, "output format", validFormats); err != nil {
			return err
		}
	}
	if err := validateEnum(c.Raster.Engine, "raster engine", validRasterizers); err != nil {
		return err
	}
	if err := validateEnum(c.OCR.Engine, "ocr engine", validOCREngines); err != nil {
		return err
	}
	if err := validateEnum(c.Classifier.Engine, "classifier engine", validClassifiers); err != nil {
		return err
	}

	if err := c.PageRange().Validate(); err != nil {
		return fmt.Errorf("invalid pages: %w", err)
	}
	if c.Raster.DPI < 72 || c.Raster.DPI > 1200 {
		return fmt.Errorf("invalid raster dpi: %d (must be between 72 and 1200)", c.Raster.DPI)
	}
	if err := c.Profile().Validate(); err != nil {
		return fmt.Errorf("invalid ocr profile: %w", err)
	}
	if c.OCR.Retries < 0 {
		return fmt.Errorf("invalid ocr retries: %d (must not be negative)", c.OCR.Retries)
	}
	if c.OCR.RetryDelayMs < 0 {
		return fmt.Errorf("invalid ocr retry delay: %d (must not be negative)", c.OCR.RetryDelayMs)
	}

	if err := validateThreshold(c.Classifier.Threshold, "classifier.threshold"); err != nil {
		return err
	}
	if c.Classifier.Engine == ClassifierLLM {
		if c.Classifier.LLM.Model == "" {
			return fmt.Errorf("classifier.llm.model is required when classifier engine is %q", ClassifierLLM)
		}
		if c.Classifier.LLM.TimeoutSec <= 0 {
			return fmt.Errorf("invalid classifier.llm.timeout_sec: %d (must be positive)", c.Classifier.LLM.TimeoutSec)
		}
	}

	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("invalid pipeline workers: %d (must be positive)", c.Pipeline.Workers)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.RequestsPerHour < 0 ||
		c.Server.MaxRequestsPerDay < 0 || c.Server.MaxDataPerDayMB < 0 {
		return errors.New("rate limits must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// PageRange returns the configured page window.
func (c *Config) PageRange() pdf.PageRange {
	return pdf.PageRange{First: c.Pages.First, Last: c.Pages.Last}
}

// Profile returns the recognition profile handed to every Recognize call.
func (c *Config) Profile() recognizer.Profile {
	return recognizer.Profile{
		Languages: append([]string(nil), c.OCR.Languages...),
		OEM:       c.OCR.OEM,
		PSM:       c.OCR.PSM,
		DPI:       c.Raster.DPI,
	}
}

// RetryDelay returns the pause between OCR attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.OCR.RetryDelayMs) * time.Millisecond
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		Range:   c.PageRange(),
		DPI:     c.Raster.DPI,
		Profile: c.Profile(),
		Workers: c.Pipeline.Workers,
	}
}

// ToHeuristicConfig converts to classifier.HeuristicConfig.
func (c *Config) ToHeuristicConfig() classifier.HeuristicConfig {
	cfg := classifier.DefaultHeuristicConfig()
	cfg.Threshold = c.Classifier.Threshold
	return cfg
}

// ToLLMConfig converts to classifier.LLMConfig.
func (c *Config) ToLLMConfig() classifier.LLMConfig {
	return classifier.LLMConfig{
		BaseURL:   c.Classifier.LLM.BaseURL,
		Model:     c.Classifier.LLM.Model,
		APIKey:    c.Classifier.LLM.APIKey,
		Timeout:   time.Duration(c.Classifier.LLM.TimeoutSec) * time.Second,
		Threshold: c.Classifier.Threshold,
	}
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func validateEnum(value, name string, allowed []string) error {
	if !contains(allowed, value) {
		return fmt.Errorf("invalid %s: %s (must be one of: %s)", name, value, strings.Join(allowed, ", "))
	}
	return nil
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
