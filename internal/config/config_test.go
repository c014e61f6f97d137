package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psibatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithFileOverrides(t *testing.T) {
	path := writeConfig(t, `
sitemap:
  url: https://example.com/sitemap.xml
audit:
  strategies: ["desktop"]
  batch_size: 25
  max_urls: 100
  url_filter: /blog/
  request_delay: 750ms
http:
  timeout: 45s
retry:
  max_retries: 4
  delay: 10s
state:
  path: /tmp/psibatch/state.json
report:
  dir: /tmp/psibatch/reports
  formats: ["json"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/sitemap.xml", cfg.Sitemap.URL)
	assert.Equal(t, []string{"desktop"}, cfg.Audit.Strategies)
	assert.Equal(t, 25, cfg.Audit.BatchSize)
	assert.Equal(t, 100, cfg.Audit.MaxURLs)
	assert.Equal(t, "/blog/", cfg.Audit.URLFilter)
	assert.Equal(t, 750*time.Millisecond, cfg.Audit.RequestDelay)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Retry.Delay)
	assert.Equal(t, "/tmp/psibatch/state.json", cfg.State.Path)
	assert.Equal(t, []string{"json"}, cfg.Report.Formats)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
sitemap:
  url: https://example.com/sitemap.xml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"mobile", "desktop"}, cfg.Audit.Strategies)
	assert.Equal(t, []string{"performance", "accessibility", "best-practices", "seo"}, cfg.Audit.Categories)
	assert.Equal(t, time.Second, cfg.Audit.RequestDelay)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.True(t, cfg.Audit.Deduplicate)
	assert.True(t, cfg.Audit.Normalize)
	assert.True(t, cfg.Audit.SkipProcessed)
	assert.Zero(t, cfg.Audit.BatchSize, "unset batch size means the whole candidate list")
	assert.Equal(t, "data/state.json", cfg.State.Path)
	assert.Equal(t, []string{"json", "csv", "html"}, cfg.Report.Formats)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PSIBATCH_AUDIT_LOCALE", "de")
	path := writeConfig(t, `
sitemap:
  url: https://example.com/sitemap.xml
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Audit.Locale)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Sitemap: SitemapConfig{URL: "https://example.com/sitemap.xml"},
		Audit:   AuditConfig{Strategies: []string{"mobile"}},
		HTTP:    HTTPConfig{Timeout: time.Second},
		State:   StateConfig{Path: "state.json"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing sitemap", func(c *Config) { c.Sitemap.URL = "" }, "sitemap.url"},
		{"no strategies", func(c *Config) { c.Audit.Strategies = nil }, "strategies"},
		{"unknown strategy", func(c *Config) { c.Audit.Strategies = []string{"tablet"} }, "unknown strategy"},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout"},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "max_retries"},
		{"negative batch", func(c *Config) { c.Audit.BatchSize = -2 }, "batch_size"},
		{"missing state path", func(c *Config) { c.State.Path = "" }, "state.path"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
