package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
	"github.com/MeKo-Tech/tocfinder/internal/report"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan <file.pdf>",
	Short: "Find the table of contents in one PDF",
	Long: `Render the leading pages of a PDF, recognize their text and report which
pages contain the table of contents.

A page that cannot be recognized or classified is reported as an error and
the remaining pages are still examined.

Examples:
  tocfinder scan book.pdf
  tocfinder scan book.pdf --pages 1-20
  tocfinder scan book.pdf --languages deu,eng --format json --output book.json
  tocfinder scan secret.pdf --password hunter2`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addPipelineFlags(scanCmd)
	scanCmd.Flags().StringP("format", "f", "", "output format (text, json, csv)")
	scanCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	scanCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	format, outputFile, err := outputOptions(cmd, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile) //nolint:gosec // G304: output path chosen by the user
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	presenter := report.NewConsolePresenter(out, cmd.ErrOrStderr(), format)

	res, err := scanDocument(cmd, cfg, args[0])
	if err != nil {
		_ = presenter.PresentError(err)
		return reportedError{err}
	}
	if err := presenter.PresentSummary(res); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if outputFile != "" {
		slog.Info("results written", "file", outputFile)
	}
	return nil
}

// scanDocument checks the document and the environment, then runs one scan.
func scanDocument(cmd *cobra.Command, cfg *config.Config, path string) (*pipeline.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open document: %w", err)
	}

	logger := slog.Default()
	var opts []pipeline.Option
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		opts = append(opts, pipeline.WithProgress(progressCallback(cmd.ErrOrStderr(), logger)))
	}

	p, _, err := buildPipeline(cfg, credentials(cmd, cfg), logger, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(cmd.Context(), path)
}

func progressCallback(w io.Writer, logger *slog.Logger) pipeline.ProgressCallback {
	return pipeline.NewMultiProgressCallback(
		pipeline.NewConsoleProgressCallback(w, ""),
		pipeline.NewLogProgressCallback(logger, slog.LevelDebug),
	)
}

// outputOptions resolves the report format and file from config and flags.
func outputOptions(cmd *cobra.Command, cfg *config.Config) (report.Format, string, error) {
	formatName := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		formatName, _ = cmd.Flags().GetString("format")
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return "", "", err
	}

	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}
	return format, outputFile, nil
}
