package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tocfinder/internal/batch"
	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Find the table of contents in many PDFs",
	Long: `Scan every PDF named on the command line or found in the given directories
and report one result per document.

Examples:
  tocfinder batch a.pdf b.pdf
  tocfinder batch ./scans --recursive
  tocfinder batch ./scans --exclude 'draft-*' --continue-on-error --format csv --output toc.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addPipelineFlags(batchCmd)

	defaults := config.DefaultConfig()
	batchCmd.Flags().StringP("format", "f", "", "output format (text, json, csv)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().BoolP("recursive", "r", defaults.Batch.Recursive, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "file patterns to include (default *.pdf)")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	batchCmd.Flags().Int("parallel", defaults.Batch.Workers, "documents scanned at the same time")
	batchCmd.Flags().Bool("continue-on-error", defaults.Batch.ContinueOnError, "keep going when a document fails")
	batchCmd.Flags().Bool("stats", false, "print processing statistics to stderr")
	batchCmd.Flags().Bool("progress", false, "log per-document progress")
}

// batchConfig maps the batch section and flags to batch.Config.
func batchConfig(cmd *cobra.Command, cfg *config.Config) batch.Config {
	bc := batch.DefaultConfig()
	bc.Workers = cfg.Batch.Workers
	bc.Recursive = cfg.Batch.Recursive
	bc.ContinueOnError = cfg.Batch.ContinueOnError

	if cmd.Flags().Changed("parallel") {
		bc.Workers, _ = cmd.Flags().GetInt("parallel")
	}
	if cmd.Flags().Changed("recursive") {
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if cmd.Flags().Changed("continue-on-error") {
		bc.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}
	if include, _ := cmd.Flags().GetStringSlice("include"); len(include) > 0 {
		bc.IncludePatterns = include
	}
	bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	return bc
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	format, outputFile, err := outputOptions(cmd, cfg)
	if err != nil {
		return err
	}

	logger := slog.Default()
	bc := batchConfig(cmd, cfg)
	if bc.Workers < 1 {
		return fmt.Errorf("invalid --parallel: %d (must be positive)", bc.Workers)
	}
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		bc.Progress = pipeline.NewLogProgressCallback(logger.With("unit", "documents"), slog.LevelInfo)
	}

	p, _, err := buildPipeline(cfg, credentials(cmd, cfg), logger)
	if err != nil {
		return err
	}

	res, runErr := batch.Process(cmd.Context(), p, args, bc, logger)
	if res == nil {
		if errors.Is(runErr, batch.ErrNoDocuments) {
			return fmt.Errorf("%w in %v", runErr, args)
		}
		return runErr
	}

	if err := res.SaveResults(format, outputFile, cmd.OutOrStdout()); err != nil {
		return err
	}
	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		res.PrintStats(cmd.ErrOrStderr())
	}
	if outputFile != "" {
		slog.Info("results written", "file", outputFile, "documents", len(res.Items))
	}
	return runErr
}
