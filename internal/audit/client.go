package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the PageSpeed Insights v5 runPagespeed endpoint.
const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Checker performs one terminal check for a (URL, strategy) pair.
// Implementations classify every raw outcome into a Result and never
// return an error past this boundary.
type Checker interface {
	Check(ctx context.Context, target string, strategy Strategy) Result
}

// ClientConfig controls the scoring API client.
type ClientConfig struct {
	Endpoint   string
	APIKey     string
	Categories []string
	Locale     string
	Timeout    time.Duration
}

// Client calls the remote scoring API over HTTP.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	clock  Clock
	logger *zap.Logger
}

// NewClient builds a Client. The request timeout bounds each attempt.
func NewClient(cfg ClientConfig, clock Clock, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		clock:  clock,
		logger: logger,
	}
}

// Check runs a single attempt against the scoring API. The original
// target string is always sent on the wire; normalization is an
// identity concern only.
func (c *Client) Check(ctx context.Context, target string, strategy Strategy) Result {
	now := c.clock.Now()

	req, err := c.buildRequest(ctx, target, strategy)
	if err != nil {
		return NewFailure(target, strategy, fmt.Sprintf("invalid request: %v", err), now)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("scoring request failed",
			zap.String("url", target),
			zap.String("strategy", string(strategy)),
			zap.Error(err),
		)
		return NewFailure(target, strategy, fmt.Sprintf("request failed: %v", err), now)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return NewFailure(target, strategy, classifyHTTPStatus(resp), now)
	}

	report, ok := c.decodeReport(resp.Body)
	if !ok {
		return NewFailure(target, strategy, "invalid response", now)
	}
	return NewSuccess(target, strategy, report, now)
}

func (c *Client) buildRequest(ctx context.Context, target string, strategy Strategy) (*http.Request, error) {
	q := url.Values{}
	q.Set("url", target)
	q.Set("strategy", string(strategy))
	for _, cat := range c.cfg.Categories {
		q.Add("category", cat)
	}
	if c.cfg.Locale != "" {
		q.Set("locale", c.cfg.Locale)
	}
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// psiResponse mirrors the slice of the API response the pipeline reads.
type psiResponse struct {
	LighthouseResult *struct {
		Categories map[string]psiCategory `json:"categories"`
		Audits     map[string]psiAudit    `json:"audits"`
	} `json:"lighthouseResult"`
}

type psiCategory struct {
	Score *float64 `json:"score"`
}

type psiAudit struct {
	DisplayValue string `json:"displayValue"`
}

func (c *Client) decodeReport(body io.Reader) (ScoreReport, bool) {
	var payload psiResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		c.logger.Debug("scoring response decode failed", zap.Error(err))
		return ScoreReport{}, false
	}
	lr := payload.LighthouseResult
	if lr == nil || lr.Categories == nil {
		return ScoreReport{}, false
	}

	report := ScoreReport{
		Scores: CategoryScores{
			Performance:   categoryScore(lr.Categories, "performance"),
			Accessibility: categoryScore(lr.Categories, "accessibility"),
			BestPractices: categoryScore(lr.Categories, "best-practices"),
			SEO:           categoryScore(lr.Categories, "seo"),
		},
		Metrics: make(map[string]string, len(TimingAudits)),
	}
	for _, id := range TimingAudits {
		display := MetricNotAvailable
		if audit, ok := lr.Audits[id]; ok && audit.DisplayValue != "" {
			display = audit.DisplayValue
		}
		report.Metrics[id] = display
	}
	return report, true
}

func categoryScore(categories map[string]psiCategory, id string) int {
	cat, ok := categories[id]
	if !ok || cat.Score == nil {
		return 0
	}
	return int(math.Round(*cat.Score * 100))
}

// classifyHTTPStatus maps a non-200 response to a failure reason.
func classifyHTTPStatus(resp *http.Response) string {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusBadRequest:
		if msg := apiErrorMessage(resp.Body); msg != "" {
			return msg
		}
		return "bad request"
	case http.StatusForbidden:
		return "invalid key or forbidden"
	case http.StatusInternalServerError:
		return "upstream internal error"
	default:
		return fmt.Sprintf("API error (%d)", resp.StatusCode)
	}
}

func apiErrorMessage(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error.Message
}
