package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Feed     FeedConfig     `yaml:"feed"`
	Export   ExportConfig   `yaml:"export"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the optional append-mode log file; logging to
// stderr is always on.
type LogConfig struct {
	Path string `yaml:"path"`
}

// ScrapeConfig configures listing-page traversal.
type ScrapeConfig struct {
	BaseURL   string `yaml:"base_url"`
	Pages     int    `yaml:"pages"`
	PageDelay string `yaml:"page_delay"`
}

// ParsePageDelay returns the delay between page fetches.
func (s ScrapeConfig) ParsePageDelay() time.Duration {
	d, err := time.ParseDuration(s.PageDelay)
	if err != nil {
		return 700 * time.Millisecond
	}
	return d
}

// FetchConfig configures the HTTP client and its retry policy.
type FetchConfig struct {
	Timeout        string `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
	MaxAttempts    int    `yaml:"max_attempts"`
	InitialBackoff string `yaml:"initial_backoff"`
	MaxBackoff     string `yaml:"max_backoff"`
}

// ParseTimeout returns the per-request timeout.
func (f FetchConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ParseInitialBackoff returns the first retry delay.
func (f FetchConfig) ParseInitialBackoff() time.Duration {
	d, err := time.ParseDuration(f.InitialBackoff)
	if err != nil {
		return time.Second
	}
	return d
}

// ParseMaxBackoff returns the retry delay ceiling.
func (f FetchConfig) ParseMaxBackoff() time.Duration {
	d, err := time.ParseDuration(f.MaxBackoff)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FeedConfig configures the optional hnrss feed ingest.
type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// ExportConfig configures export file destinations. Re-runs overwrite
// these files atomically.
type ExportConfig struct {
	CSVPath  string `yaml:"csv_path"`
	XLSXPath string `yaml:"xlsx_path"`
}

// ScheduleConfig configures daemon-mode scrape intervals.
type ScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// ParseInterval returns the scrape interval as time.Duration.
func (s ScheduleConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./hn.db"},
		Log:      LogConfig{Path: "hnscrape.log"},
		Scrape: ScrapeConfig{
			BaseURL:   "https://news.ycombinator.com/",
			Pages:     1,
			PageDelay: "700ms",
		},
		Fetch: FetchConfig{
			Timeout:        "15s",
			UserAgent:      "Mozilla/5.0",
			MaxAttempts:    3,
			InitialBackoff: "1s",
			MaxBackoff:     "30s",
		},
		Feed: FeedConfig{
			Enabled: false,
			URL:     "https://hnrss.org/frontpage",
		},
		Export: ExportConfig{
			CSVPath:  "hn_posts.csv",
			XLSXPath: "hn_posts.xlsx",
		},
		Schedule: ScheduleConfig{Interval: "30m"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HNSCRAPE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HNSCRAPE_BASE_URL"); v != "" {
		cfg.Scrape.BaseURL = v
	}
	if v := os.Getenv("HNSCRAPE_CSV_PATH"); v != "" {
		cfg.Export.CSVPath = v
	}
	if v := os.Getenv("HNSCRAPE_XLSX_PATH"); v != "" {
		cfg.Export.XLSXPath = v
	}
	if v := os.Getenv("HNSCRAPE_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
}
