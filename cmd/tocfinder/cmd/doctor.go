package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/engines"
	"github.com/MeKo-Tech/tocfinder/internal/recognizer"
)

// discover is replaced in tests.
var discover = engines.Discover

// doctorCmd represents the doctor command.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the OCR and rendering engines are installed",
	Long: `Locate tesseract and pdftoppm, list the installed tesseract languages and
report anything the current configuration needs but cannot find.

Examples:
  tocfinder doctor
  tocfinder doctor --languages deu,eng`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringSliceP("languages", "l", nil, "languages to check instead of the configured ones")
	doctorCmd.Flags().String("tesseract-path", "", "path to the tesseract executable")
	doctorCmd.Flags().String("poppler-path", "", "directory containing pdftoppm")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := *GetConfig()
	if cmd.Flags().Changed("languages") {
		cfg.OCR.Languages, _ = cmd.Flags().GetStringSlice("languages")
	}
	if cmd.Flags().Changed("tesseract-path") {
		cfg.OCR.TesseractPath, _ = cmd.Flags().GetString("tesseract-path")
	}
	if cmd.Flags().Changed("poppler-path") {
		cfg.Raster.PopplerPath, _ = cmd.Flags().GetString("poppler-path")
	}
	return checkEnvironment(cmd.Context(), cmd.OutOrStdout(), &cfg)
}

// checkEnvironment prints what was found and fails when an engine the
// configuration relies on is missing.
func checkEnvironment(ctx context.Context, out io.Writer, cfg *config.Config) error {
	env, discoverErr := discover(engines.Requirements{Tesseract: true, Poppler: true}, engines.Overrides{
		TesseractPath: cfg.OCR.TesseractPath,
		PopplerPath:   cfg.Raster.PopplerPath,
	})
	need := requirements(cfg)
	var problems []error

	_, _ = fmt.Fprintln(out, "Environment check")
	if env.TesseractPath != "" {
		_, _ = fmt.Fprintf(out, "  tesseract: %s\n", env.TesseractPath)
		problems = append(problems, checkTesseract(ctx, out, env.TesseractPath, cfg.OCR.Languages, need.Tesseract)...)
	} else {
		_, _ = fmt.Fprintln(out, "  tesseract: not found")
	}
	if env.PdftoppmPath != "" {
		_, _ = fmt.Fprintf(out, "  pdftoppm:  %s\n", env.PdftoppmPath)
		_, _ = fmt.Fprintf(out, "  poppler:   %s\n", env.PopplerDir())
	} else {
		_, _ = fmt.Fprintln(out, "  pdftoppm:  not found")
	}
	if _, err := recognizer.NewGosseract(); err != nil {
		_, _ = fmt.Fprintf(out, "  gosseract: unavailable (%v)\n", err)
		if cfg.OCR.Engine == config.OCRGosseract {
			problems = append(problems, err)
		}
	} else {
		_, _ = fmt.Fprintln(out, "  gosseract: available")
	}

	if file := GetConfigLoader().GetConfigFileUsed(); file != "" {
		_, _ = fmt.Fprintf(out, "  config:    %s\n", file)
	} else {
		_, _ = fmt.Fprintln(out, "  config:    defaults (no config file found)")
	}

	var notFound *engines.EngineNotFoundError
	for _, err := range unjoin(discoverErr) {
		if errors.As(err, &notFound) &&
			((notFound.Binary == engines.TesseractBinary && !need.Tesseract) ||
				(notFound.Binary == engines.PdftoppmBinary && !need.Poppler)) {
			continue
		}
		problems = append(problems, err)
	}

	if len(problems) > 0 {
		_, _ = fmt.Fprintln(out)
		for _, p := range problems {
			_, _ = fmt.Fprintf(out, "✗ %v\n", p)
		}
		return fmt.Errorf("environment check failed: %w", errors.Join(problems...))
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "✓ Ready to scan.")
	return nil
}

// checkTesseract prints version and languages. Missing languages only count
// as problems when tesseract is the configured engine.
func checkTesseract(ctx context.Context, out io.Writer, binary string, want []string, required bool) []error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli := recognizer.NewTesseractCLI(binary)
	if v, err := cli.Version(ctx); err == nil {
		_, _ = fmt.Fprintf(out, "    version:   %s\n", v)
	}
	have, err := cli.Languages(ctx)
	if err != nil {
		if required {
			return []error{err}
		}
		return nil
	}
	_, _ = fmt.Fprintf(out, "    languages: %s\n", strings.Join(have, ", "))

	missing := recognizer.MissingLanguages(want, have)
	if len(missing) == 0 || !required {
		return nil
	}
	return []error{fmt.Errorf("tesseract language data missing: %s", strings.Join(missing, ", "))}
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
