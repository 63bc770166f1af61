package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
)

// addPipelineFlags registers the flags shared by scan, batch and serve.
func addPipelineFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()

	cmd.Flags().String("pages", "", "page range to examine, e.g. '1-10' (overrides --first/--last)")
	cmd.Flags().Int("first", defaults.Pages.First, "first page to examine")
	cmd.Flags().Int("last", defaults.Pages.Last, "last page to examine")
	cmd.Flags().Int("dpi", defaults.Raster.DPI, "rasterization resolution")
	cmd.Flags().String("raster-engine", defaults.Raster.Engine, "page renderer (poppler, fitz, embedded)")
	cmd.Flags().String("poppler-path", "", "directory containing pdftoppm")
	cmd.Flags().String("ocr-engine", defaults.OCR.Engine, "OCR engine (tesseract, gosseract)")
	cmd.Flags().StringSliceP("languages", "l", defaults.OCR.Languages, "tesseract languages")
	cmd.Flags().Int("oem", defaults.OCR.OEM, "tesseract OCR engine mode")
	cmd.Flags().Int("psm", defaults.OCR.PSM, "tesseract page segmentation mode")
	cmd.Flags().String("tesseract-path", "", "path to the tesseract executable")
	cmd.Flags().Int("ocr-retries", defaults.OCR.Retries, "extra OCR attempts per page")
	cmd.Flags().Bool("preprocess", defaults.OCR.Preprocess, "clean up page images before OCR")
	cmd.Flags().String("classifier", defaults.Classifier.Engine, "TOC classifier (heuristic, llm)")
	cmd.Flags().Float64("threshold", defaults.Classifier.Threshold, "minimum confidence for a TOC verdict (0..1)")
	cmd.Flags().String("llm-model", defaults.Classifier.LLM.Model, "chat model used by the llm classifier")
	cmd.Flags().String("llm-base-url", defaults.Classifier.LLM.BaseURL, "OpenAI compatible API base URL")
	cmd.Flags().IntP("workers", "w", defaults.Pipeline.Workers, "pages recognized in parallel")
	cmd.Flags().String("password", "", "user password for encrypted PDFs")
	cmd.Flags().String("owner-password", "", "owner password for encrypted PDFs")
}

// applyPipelineFlags copies explicitly set flags over cfg. Values from the
// config file and environment stay in place otherwise.
func applyPipelineFlags(cmd *cobra.Command, cfg *config.Config) error {
	setStringWithFlag := func(flagName string, target *string) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetString(flagName)
		}
	}
	setIntWithFlag := func(flagName string, target *int) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetInt(flagName)
		}
	}

	setIntWithFlag("first", &cfg.Pages.First)
	setIntWithFlag("last", &cfg.Pages.Last)
	if cmd.Flags().Changed("pages") {
		value, _ := cmd.Flags().GetString("pages")
		r, err := pdf.ParsePageRange(value)
		if err != nil {
			return err
		}
		cfg.Pages.First, cfg.Pages.Last = r.First, r.Last
	}

	setIntWithFlag("dpi", &cfg.Raster.DPI)
	setStringWithFlag("raster-engine", &cfg.Raster.Engine)
	setStringWithFlag("poppler-path", &cfg.Raster.PopplerPath)
	setStringWithFlag("password", &cfg.Raster.Password)

	setStringWithFlag("ocr-engine", &cfg.OCR.Engine)
	if cmd.Flags().Changed("languages") {
		cfg.OCR.Languages, _ = cmd.Flags().GetStringSlice("languages")
	}
	setIntWithFlag("oem", &cfg.OCR.OEM)
	setIntWithFlag("psm", &cfg.OCR.PSM)
	setStringWithFlag("tesseract-path", &cfg.OCR.TesseractPath)
	setIntWithFlag("ocr-retries", &cfg.OCR.Retries)
	if cmd.Flags().Changed("preprocess") {
		cfg.OCR.Preprocess, _ = cmd.Flags().GetBool("preprocess")
	}

	setStringWithFlag("classifier", &cfg.Classifier.Engine)
	if cmd.Flags().Changed("threshold") {
		cfg.Classifier.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	setStringWithFlag("llm-model", &cfg.Classifier.LLM.Model)
	setStringWithFlag("llm-base-url", &cfg.Classifier.LLM.BaseURL)
	setIntWithFlag("workers", &cfg.Pipeline.Workers)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// credentials returns the PDF passwords from config and flags.
func credentials(cmd *cobra.Command, cfg *config.Config) pdf.PasswordCredentials {
	owner, _ := cmd.Flags().GetString("owner-password")
	return pdf.PasswordCredentials{UserPassword: cfg.Raster.Password, OwnerPassword: owner}
}

// commandConfig returns a copy of the loaded configuration with cmd's flags
// applied, so repeated invocations in one process do not leak overrides.
func commandConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := *GetConfig()
	cfg.OCR.Languages = append([]string(nil), cfg.OCR.Languages...)
	if err := applyPipelineFlags(cmd, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
