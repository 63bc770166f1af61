package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/tocfinder/internal/classifier"
	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/engines"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
	"github.com/MeKo-Tech/tocfinder/internal/recognizer"
)

// requirements lists the external programs the configured engines run.
func requirements(cfg *config.Config) engines.Requirements {
	return engines.Requirements{
		Tesseract: cfg.OCR.Engine == config.OCRTesseract,
		Poppler:   cfg.Raster.Engine == config.RasterPoppler,
	}
}

// discoverEngines runs the startup environment check.
func discoverEngines(cfg *config.Config) (*engines.Environment, error) {
	env, err := engines.Discover(requirements(cfg), engines.Overrides{
		TesseractPath: cfg.OCR.TesseractPath,
		PopplerPath:   cfg.Raster.PopplerPath,
	})
	if err != nil {
		return nil, fmt.Errorf("environment check failed: %w", err)
	}
	return env, nil
}

func newRasterizer(cfg *config.Config, env *engines.Environment, creds pdf.PasswordCredentials, logger *slog.Logger) (pdf.Rasterizer, error) {
	var r pdf.Rasterizer
	switch cfg.Raster.Engine {
	case config.RasterPoppler:
		r = pdf.NewPopplerRasterizer(env.PdftoppmPath, logger)
	case config.RasterFitz:
		r = pdf.NewFitzRasterizer()
	case config.RasterEmbedded:
		r = pdf.NewEmbeddedImageRasterizer(logger)
	default:
		return nil, fmt.Errorf("unknown raster engine %q", cfg.Raster.Engine)
	}
	return pdf.NewDecryptingRasterizer(r, creds), nil
}

func newRecognizer(cfg *config.Config, env *engines.Environment, logger *slog.Logger) (recognizer.Recognizer, error) {
	var rec recognizer.Recognizer
	switch cfg.OCR.Engine {
	case config.OCRTesseract:
		rec = recognizer.NewTesseractCLI(env.TesseractPath)
	case config.OCRGosseract:
		g, err := recognizer.NewGosseract()
		if err != nil {
			return nil, err
		}
		rec = g
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCR.Engine)
	}

	if cfg.OCR.Preprocess {
		rec = recognizer.NewPreprocessing(rec, recognizer.DefaultPreprocessOptions())
	}
	if cfg.OCR.Retries > 0 {
		rec = recognizer.NewRetrying(rec, cfg.OCR.Retries, cfg.RetryDelay(), logger)
	}
	return rec, nil
}

func newClassifier(cfg *config.Config) (classifier.Classifier, error) {
	switch cfg.Classifier.Engine {
	case config.ClassifierHeuristic:
		return classifier.NewHeuristic(cfg.ToHeuristicConfig()), nil
	case config.ClassifierLLM:
		return classifier.NewLLM(cfg.ToLLMConfig())
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier.Engine)
	}
}

// buildPipeline checks the environment and wires the configured engines.
func buildPipeline(cfg *config.Config, creds pdf.PasswordCredentials, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Pipeline, *engines.Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	env, err := discoverEngines(cfg)
	if err != nil {
		return nil, nil, err
	}

	r, err := newRasterizer(cfg, env, creds, logger)
	if err != nil {
		return nil, nil, err
	}
	rec, err := newRecognizer(cfg, env, logger)
	if err != nil {
		return nil, nil, err
	}
	cls, err := newClassifier(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	p, err := pipeline.New(r, rec, cls, cfg.ToPipelineConfig(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return p, env, nil
}
