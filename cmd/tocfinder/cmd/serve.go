package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tocfinder/internal/config"
	"github.com/MeKo-Tech/tocfinder/internal/engines"
	"github.com/MeKo-Tech/tocfinder/internal/server"
	"github.com/MeKo-Tech/tocfinder/internal/version"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for TOC detection",
	Long: `Start an HTTP server that finds tables of contents in uploaded PDFs.

The server provides the following endpoints:
  POST /toc     - Scan an uploaded PDF (multipart field "pdf")
  GET  /ws/toc  - Scan over WebSocket, streaming every page verdict
  GET  /health  - Health check endpoint
  GET  /metrics - Prometheus metrics

Edits to the configuration file are picked up while running; the log level
changes immediately, engine settings apply after a restart.

Examples:
  tocfinder serve
  tocfinder serve --port 8080
  tocfinder serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addPipelineFlags(serveCmd)

	defaults := config.DefaultConfig().Server
	serveCmd.Flags().StringP("host", "H", defaults.Host, "server host")
	serveCmd.Flags().Int("port", defaults.Port, "server port")
	serveCmd.Flags().String("cors-origin", defaults.CORSOrigin, "CORS allowed origins")
	serveCmd.Flags().Int64("max-upload-size", defaults.MaxUploadMB, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", defaults.TimeoutSec, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", defaults.ShutdownTimeout, "shutdown timeout in seconds")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", defaults.RateLimitEnabled, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", defaults.RequestsPerMinute, "maximum requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", defaults.RequestsPerHour, "maximum requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", defaults.MaxRequestsPerDay, "maximum requests per day per client")
	serveCmd.Flags().Int64("max-data-per-day", defaults.MaxDataPerDayMB, "maximum upload volume per day per client (MB)")
}

// applyServerFlags copies explicitly set server flags over cfg.Server.
func applyServerFlags(cmd *cobra.Command, cfg *config.ServerConfig) error {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		cfg.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-upload-size") {
		cfg.MaxUploadMB, _ = flags.GetInt64("max-upload-size")
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("rate-limit-enabled") {
		cfg.RateLimitEnabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		cfg.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("requests-per-hour") {
		cfg.RequestsPerHour, _ = flags.GetInt("requests-per-hour")
	}
	if flags.Changed("max-requests-per-day") {
		cfg.MaxRequestsPerDay, _ = flags.GetInt("max-requests-per-day")
	}
	if flags.Changed("max-data-per-day") {
		cfg.MaxDataPerDayMB, _ = flags.GetInt64("max-data-per-day")
	}

	// Validate port number
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", cfg.Port)
	}
	return nil
}

// serverConfig maps the server section to server.Config.
func serverConfig(cfg *config.Config, env *engines.Environment, logger *slog.Logger) server.Config {
	sc := cfg.Server
	return server.Config{
		Host:         sc.Host,
		Port:         sc.Port,
		CORSOrigin:   sc.CORSOrigin,
		MaxUploadMB:  sc.MaxUploadMB,
		TimeoutSec:   sc.TimeoutSec,
		DefaultRange: cfg.PageRange(),
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimitEnabled,
			RequestsPerMinute: sc.RequestsPerMinute,
			RequestsPerHour:   sc.RequestsPerHour,
			MaxRequestsPerDay: sc.MaxRequestsPerDay,
			MaxDataPerDay:     sc.MaxDataPerDayMB * 1024 * 1024,
		},
		Environment: *env,
		Version:     version.String(),
		Logger:      logger,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServerFlags(cmd, &cfg.Server); err != nil {
		return err
	}

	logger := slog.Default()
	p, env, err := buildPipeline(cfg, credentials(cmd, cfg), logger)
	if err != nil {
		return err
	}

	tocServer, err := server.NewServer(p, serverConfig(cfg, env, logger))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if GetConfigLoader().GetConfigFileUsed() != "" {
		GetConfigLoader().Watch(logger, func(updated *config.Config) {
			logLevel.Set(levelFor(updated))
		})
	}

	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           tocServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		// Scans are bounded by the request timeout; leave room to write the response.
		WriteTimeout: timeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting TOC server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-cmd.Context().Done():
		logger.Info("Received shutdown signal")
	}

	logger.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", cfg.Server.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	logger.Info("Graceful shutdown completed")
	return nil
}
