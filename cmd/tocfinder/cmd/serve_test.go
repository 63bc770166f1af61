package cmd

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/engines"
	"github.com/MeKo-Tech/tocfinder/internal/pdf"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pages.First, cfg.Pages.Last = 2, 12
	cfg.Server.RateLimitEnabled = true
	cfg.Server.MaxDataPerDayMB = 3
	env := &engines.Environment{TesseractPath: "/usr/bin/tesseract"}

	sc := serverConfig(&cfg, env, quietLogger())

	assert.Equal(t, cfg.Server.Port, sc.Port)
	assert.Equal(t, pdf.PageRange{First: 2, Last: 12}, sc.DefaultRange)
	assert.True(t, sc.RateLimit.Enabled)
	assert.Equal(t, cfg.Server.RequestsPerMinute, sc.RateLimit.RequestsPerMinute)
	assert.Equal(t, int64(3*1024*1024), sc.RateLimit.MaxDataPerDay)
	assert.Equal(t, *env, sc.Environment)
	assert.NotEmpty(t, sc.Version)
}

func TestApplyServerFlags(t *testing.T) {
	newServeFlags := func(t *testing.T, args ...string) *cobra.Command {
		t.Helper()
		cmd := &cobra.Command{Use: "serve"}
		cmd.Flags().StringP("host", "H", "localhost", "")
		cmd.Flags().Int("port", 8080, "")
		cmd.Flags().String("cors-origin", "*", "")
		cmd.Flags().Int64("max-upload-size", 50, "")
		cmd.Flags().Int("timeout", 120, "")
		cmd.Flags().Int("shutdown-timeout", 10, "")
		cmd.Flags().Bool("rate-limit-enabled", false, "")
		cmd.Flags().Int("requests-per-minute", 30, "")
		cmd.Flags().Int("requests-per-hour", 600, "")
		cmd.Flags().Int("max-requests-per-day", 2000, "")
		cmd.Flags().Int64("max-data-per-day", 1024, "")
		require.NoError(t, cmd.Flags().Parse(args))
		return cmd
	}

	t.Run("overrides", func(t *testing.T) {
		sc := config.DefaultConfig().Server
		cmd := newServeFlags(t, "--host", "0.0.0.0", "--port", "9000", "--rate-limit-enabled", "--requests-per-minute", "5")

		require.NoError(t, applyServerFlags(cmd, &sc))
		assert.Equal(t, "0.0.0.0", sc.Host)
		assert.Equal(t, 9000, sc.Port)
		assert.True(t, sc.RateLimitEnabled)
		assert.Equal(t, 5, sc.RequestsPerMinute)
		assert.Equal(t, 600, sc.RequestsPerHour)
	})

	t.Run("invalid port", func(t *testing.T) {
		sc := config.DefaultConfig().Server
		cmd := newServeFlags(t, "--port", "70000")
		require.Error(t, applyServerFlags(cmd, &sc))
	})
}
