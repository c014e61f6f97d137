// Package sitemap fetches URL sets from XML sitemaps using gocolly.
package sitemap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher retrieves every page URL reachable from a sitemap or sitemap
// index. A fetch failure is all-or-nothing for the run; the caller
// treats it as fatal.
type Fetcher struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{cfg: cfg, logger: logger}
}

// Fetch returns the URLs listed in the sitemap at sitemapURL, in
// document order. Nested <sitemapindex> documents are followed.
func (f *Fetcher) Fetch(ctx context.Context, sitemapURL string) ([]string, error) {
	collector := colly.NewCollector(colly.Async(false))
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.cfg.Timeout)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}

	var (
		urls     []string
		fetchErr error
	)

	collector.OnXML("//urlset/url/loc", func(e *colly.XMLElement) {
		loc := strings.TrimSpace(e.Text)
		if loc != "" {
			urls = append(urls, loc)
		}
	})

	collector.OnXML("//sitemapindex/sitemap/loc", func(e *colly.XMLElement) {
		child := strings.TrimSpace(e.Text)
		if child == "" {
			return
		}
		f.logger.Debug("following nested sitemap", zap.String("url", child))
		if err := e.Request.Visit(child); err != nil && fetchErr == nil {
			fetchErr = fmt.Errorf("visit nested sitemap %s: %w", child, err)
		}
	})

	collector.OnError(func(resp *colly.Response, err error) {
		if fetchErr == nil {
			fetchErr = fmt.Errorf("fetch %s: %w", resp.Request.URL, err)
		}
	})

	if err := f.visit(ctx, collector, sitemapURL); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	f.logger.Info("sitemap fetched",
		zap.String("url", sitemapURL),
		zap.Int("urls", len(urls)),
	)
	return urls, nil
}

func (f *Fetcher) visit(ctx context.Context, collector *colly.Collector, sitemapURL string) error {
	done := make(chan error, 1)
	go func() {
		err := collector.Visit(sitemapURL)
		collector.Wait()
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sitemap fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit sitemap %s: %w", sitemapURL, err)
		}
		return nil
	}
}
