// Package config loads and validates auditor configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper. It is
// constructed once at process start and passed into every component
// that needs it; nothing reads ambient process-wide state.
type Config struct {
	Sitemap SitemapConfig `mapstructure:"sitemap"`
	API     APIConfig     `mapstructure:"api"`
	Audit   AuditConfig   `mapstructure:"audit"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Retry   RetryConfig   `mapstructure:"retry"`
	State   StateConfig   `mapstructure:"state"`
	Report  ReportConfig  `mapstructure:"report"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SitemapConfig locates the URL feed.
type SitemapConfig struct {
	URL       string `mapstructure:"url"`
	UserAgent string `mapstructure:"user_agent"`
}

// APIConfig holds scoring API access parameters.
type APIConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Key      string `mapstructure:"key"`
}

// AuditConfig governs batch selection and check execution.
type AuditConfig struct {
	Strategies    []string      `mapstructure:"strategies"`
	Categories    []string      `mapstructure:"categories"`
	Locale        string        `mapstructure:"locale"`
	RequestDelay  time.Duration `mapstructure:"request_delay"`
	MaxURLs       int           `mapstructure:"max_urls"`
	URLFilter     string        `mapstructure:"url_filter"`
	Deduplicate   bool          `mapstructure:"deduplicate"`
	Normalize     bool          `mapstructure:"normalize"`
	BatchSize     int           `mapstructure:"batch_size"`
	SkipProcessed bool          `mapstructure:"skip_processed"`
}

// HTTPConfig bounds each remote call.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryConfig controls the per-check retry loop.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Delay      time.Duration `mapstructure:"delay"`
}

// StateConfig locates the resumability file.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// ReportConfig selects output formats and their destination.
type ReportConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig optionally serves Prometheus metrics during a run.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PSIBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("psibatch")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.psibatch")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sitemap.user_agent", "psibatch/1.0 (+https://github.com/psibatch/psibatch)")
	v.SetDefault("audit.strategies", []string{"mobile", "desktop"})
	v.SetDefault("audit.categories", []string{"performance", "accessibility", "best-practices", "seo"})
	v.SetDefault("audit.locale", "en")
	v.SetDefault("audit.request_delay", "1s")
	v.SetDefault("audit.deduplicate", true)
	v.SetDefault("audit.normalize", true)
	v.SetDefault("audit.skip_processed", true)
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.delay", "5s")
	v.SetDefault("state.path", "data/state.json")
	v.SetDefault("report.dir", "data/reports")
	v.SetDefault("report.formats", []string{"json", "csv", "html"})
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Sitemap.URL == "" {
		return fmt.Errorf("sitemap.url must be set")
	}
	if len(c.Audit.Strategies) == 0 {
		return fmt.Errorf("audit.strategies must not be empty")
	}
	for _, s := range c.Audit.Strategies {
		if s != "mobile" && s != "desktop" {
			return fmt.Errorf("audit.strategies: unknown strategy %q", s)
		}
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0")
	}
	if c.Audit.BatchSize < 0 {
		return fmt.Errorf("audit.batch_size must be >= 0")
	}
	if c.Audit.MaxURLs < 0 {
		return fmt.Errorf("audit.max_urls must be >= 0")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must be set")
	}
	return nil
}
