package config

// Config represents the complete configuration for the tocfinder application.
// It includes settings for all commands (scan, batch, serve, doctor) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Page window examined in every document
	Pages PagesConfig `mapstructure:"pages" yaml:"pages" json:"pages"`

	// Rasterization settings
	Raster RasterConfig `mapstructure:"raster" yaml:"raster" json:"raster"`

	// Text recognition settings
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// TOC classification settings
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier" json:"classifier"`

	// Page pipeline settings
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// PagesConfig bounds the leading page window, 1-based and inclusive.
type PagesConfig struct {
	First int `mapstructure:"first" yaml:"first" json:"first"`
	Last  int `mapstructure:"last" yaml:"last" json:"last"`
}

// RasterConfig selects how PDF pages are turned into images.
type RasterConfig struct {
	Engine      string `mapstructure:"engine" yaml:"engine" json:"engine"`
	DPI         int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	PopplerPath string `mapstructure:"poppler_path" yaml:"poppler_path" json:"poppler_path"`
	Password    string `mapstructure:"password" yaml:"password" json:"-"`
}

// OCRConfig contains text recognition settings.
type OCRConfig struct {
	Engine        string   `mapstructure:"engine" yaml:"engine" json:"engine"`
	Languages     []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	OEM           int      `mapstructure:"oem" yaml:"oem" json:"oem"`
	PSM           int      `mapstructure:"psm" yaml:"psm" json:"psm"`
	TesseractPath string   `mapstructure:"tesseract_path" yaml:"tesseract_path" json:"tesseract_path"`
	Retries       int      `mapstructure:"retries" yaml:"retries" json:"retries"`
	RetryDelayMs  int      `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms" json:"retry_delay_ms"`
	Preprocess    bool     `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
}

// ClassifierConfig contains TOC classifier settings.
type ClassifierConfig struct {
	Engine    string    `mapstructure:"engine" yaml:"engine" json:"engine"`
	Threshold float64   `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	LLM       LLMConfig `mapstructure:"llm" yaml:"llm" json:"llm"`
}

// LLMConfig configures the OpenAI-compatible classifier backend.
type LLMConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Model      string `mapstructure:"model" yaml:"model" json:"model"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key" json:"-"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// PipelineConfig contains page pipeline settings.
type PipelineConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Per-client limits, off unless RateLimitEnabled is set.
	RateLimitEnabled  bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int64 `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Recursive       bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}
