package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "./hn.db", cfg.Database.Path)
	require.Equal(t, "https://news.ycombinator.com/", cfg.Scrape.BaseURL)
	require.Equal(t, 1, cfg.Scrape.Pages)
	require.Equal(t, 3, cfg.Fetch.MaxAttempts)
	require.Equal(t, "hn_posts.csv", cfg.Export.CSVPath)
	require.Equal(t, "hn_posts.xlsx", cfg.Export.XLSXPath)
	require.False(t, cfg.Feed.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/other.db
scrape:
  pages: 4
  page_delay: 2s
fetch:
  max_attempts: 5
feed:
  enabled: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/other.db", cfg.Database.Path)
	require.Equal(t, 4, cfg.Scrape.Pages)
	require.Equal(t, 2*time.Second, cfg.Scrape.ParsePageDelay())
	require.Equal(t, 5, cfg.Fetch.MaxAttempts)
	require.True(t, cfg.Feed.Enabled)
	require.Equal(t, "https://hnrss.org/frontpage", cfg.Feed.URL, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HNSCRAPE_DB_PATH", "/tmp/env.db")
	t.Setenv("HNSCRAPE_CSV_PATH", "/tmp/env.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.db", cfg.Database.Path)
	require.Equal(t, "/tmp/env.csv", cfg.Export.CSVPath)
}

func TestDurationFallbacks(t *testing.T) {
	cfg := Config{}

	require.Equal(t, 700*time.Millisecond, cfg.Scrape.ParsePageDelay())
	require.Equal(t, 15*time.Second, cfg.Fetch.ParseTimeout())
	require.Equal(t, time.Second, cfg.Fetch.ParseInitialBackoff())
	require.Equal(t, 30*time.Second, cfg.Fetch.ParseMaxBackoff())
	require.Equal(t, 30*time.Minute, cfg.Schedule.ParseInterval())
}
