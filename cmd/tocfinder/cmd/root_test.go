package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/config"
)

// Helper function to execute command and capture output.
func executeCommandAndCaptureOutput(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return strings.TrimSpace(buf.String()), err
}

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "tocfinder", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Same(t, rootCmd, GetRootCommand())
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--help"})
	require.NoError(t, err)

	assert.Contains(t, output, "table of contents")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--version"})
	require.NoError(t, err)
	assert.Contains(t, output, "commit:")
}

func TestRootCommandSubcommands(t *testing.T) {
	var names []string
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"scan", "batch", "serve", "doctor", "config"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--invalid-flag"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"warn", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
		{"", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.LogLevel = tt.level
		cfg.Verbose = tt.verbose
		assert.Equal(t, tt.want, levelFor(&cfg), "level %q verbose %v", tt.level, tt.verbose)
	}
}

func TestErrorReported(t *testing.T) {
	base := errors.New("boom")
	assert.True(t, errorReported(reportedError{base}))
	assert.True(t, errorReported(fmt.Errorf("wrapped: %w", reportedError{base})))
	assert.False(t, errorReported(base))
	assert.ErrorIs(t, reportedError{base}, base)
}

func TestScanCommand_MissingFile(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"scan", "/nonexistent/book.pdf"})
	require.Error(t, err)
	assert.True(t, errorReported(err))
	assert.Contains(t, output, "Error: cannot open document")
}

func TestScanCommand_RequiresOneFile(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"scan"})
	require.Error(t, err)
}

func TestConfigShowCommand(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "show"})
	require.NoError(t, err)
	assert.Contains(t, output, "pages:")
	assert.Contains(t, output, "classifier:")
	assert.NotContains(t, output, "api_key: sk-")
}
