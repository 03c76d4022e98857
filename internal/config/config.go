// Package config provides configuration management for the update extractor.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"msupdates/pkg/utils"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL           = errors.New("feed.base_url is required")
	ErrInvalidBaseURL           = errors.New("feed.base_url must be an http(s) URL")
	ErrInvalidBackupURL         = errors.New("feed.backup_urls entries must be http(s) URLs")
	ErrInvalidWindow            = errors.New("feed.window_days must be at least 1")
	ErrInvalidListing           = errors.New("feed.listing must be 'api' or 'calendar'")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidSummaryWidth      = errors.New("extraction.summary_width must be at least 10")
	ErrMissingOutputPath        = errors.New("output.path is required")
	ErrInvalidOutputFormat      = errors.New("output.format must be 'json', 'jsonl' or 'csv'")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// Listing modes.
const (
	ListingAPI      = "api"
	ListingCalendar = "calendar"
)

// DefaultBaseURL is the MSRC API root.
const DefaultBaseURL = "https://api.msrc.microsoft.com"

// Config represents the complete extractor configuration.
type Config struct {
	Feed       FeedConfig       `yaml:"feed"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Retry      RetryPolicy      `yaml:"retry"`
	Extraction ExtractionConfig `yaml:"extraction"`
}

// FeedConfig describes where advisory documents are read from.
type FeedConfig struct {
	BaseURL    string   `yaml:"base_url"`
	UserAgent  string   `yaml:"user_agent"`
	Listing    string   `yaml:"listing"`
	BackupURLs []string `yaml:"backup_urls"`
	WindowDays int      `yaml:"window_days"`
}

// Window returns the trailing publication window.
func (f *FeedConfig) Window() time.Duration {
	return time.Duration(f.WindowDays) * 24 * time.Hour
}

// GetAllURLs returns all base URLs (primary + backups).
func (f *FeedConfig) GetAllURLs() []string {
	urls := []string{f.BaseURL}
	urls = append(urls, f.BackupURLs...)

	return urls
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// ExtractionConfig tunes record construction.
type ExtractionConfig struct {
	SummaryWidth int `yaml:"summary_width"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	Path         string   `yaml:"path"`
	Format       string   `yaml:"format"`
	ReportPath   string   `yaml:"report_path"`
	ExtraFiles   []string `yaml:"extra_files"`
	PrettyPrint  bool     `yaml:"pretty_print"`
	CreateBackup bool     `yaml:"create_backup"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL:    DefaultBaseURL,
			UserAgent:  utils.DefaultUserAgent,
			Listing:    ListingAPI,
			WindowDays: 90,
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Extraction: ExtractionConfig{
			SummaryWidth: 200,
		},
		Output: OutputConfig{
			Path:         "updates.json",
			Format:       FormatJSON,
			PrettyPrint:  true,
			CreateBackup: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file. Keys absent from the file
// keep their Default values.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return ErrMissingBaseURL
	}

	if !utils.IsValidURL(c.Feed.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Feed.BaseURL)
	}

	for i, u := range c.Feed.BackupURLs {
		if !utils.IsValidURL(u) {
			return fmt.Errorf("%w: backup_urls[%d]", ErrInvalidBackupURL, i)
		}
	}

	if c.Feed.WindowDays < 1 {
		return ErrInvalidWindow
	}

	if c.Feed.Listing != ListingAPI && c.Feed.Listing != ListingCalendar {
		return ErrInvalidListing
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Extraction.SummaryWidth < 10 {
		return ErrInvalidSummaryWidth
	}

	if c.Output.Path == "" {
		return ErrMissingOutputPath
	}

	switch c.Output.Format {
	case FormatJSON, FormatJSONL, FormatCSV:
	default:
		return ErrInvalidOutputFormat
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{BaseURL: %s, WindowDays: %d, MaxAttempts: %d, Output: %s (%s)}",
		c.Feed.BaseURL,
		c.Feed.WindowDays,
		c.Retry.MaxAttempts,
		c.Output.Path,
		c.Output.Format,
	)
}
