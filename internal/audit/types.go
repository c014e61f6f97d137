// Package audit defines core types shared across the check pipeline.
package audit

import (
	"time"
)

// Strategy is the device profile a URL is checked under.
type Strategy string

// Strategies understood by the PageSpeed Insights API.
const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// Status distinguishes the two Result shapes.
type Status string

// Result status values persisted in the state file.
const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// DefaultCategories are the category identifiers requested from the
// scoring API when none are configured.
var DefaultCategories = []string{"performance", "accessibility", "best-practices", "seo"}

// TimingAudits are the named lighthouse audits extracted as display strings.
var TimingAudits = []string{
	"first-contentful-paint",
	"speed-index",
	"largest-contentful-paint",
	"interactive",
	"total-blocking-time",
	"cumulative-layout-shift",
}

// MetricNotAvailable is the sentinel display value for a missing audit.
const MetricNotAvailable = "not available"

// CategoryScores holds the four 0-100 integer category ratings.
type CategoryScores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"best_practices"`
	SEO           int `json:"seo"`
}

// ScoreReport is the success side of a Result.
type ScoreReport struct {
	Scores  CategoryScores    `json:"scores"`
	Metrics map[string]string `json:"metrics"`
}

// CheckFailure is the failure side of a Result.
type CheckFailure struct {
	Reason string `json:"reason"`
}

// Result is the outcome of one (URL, strategy) check. Exactly one of
// Report or Failure is set, discriminated by Status. Use the
// constructors rather than filling the struct by hand.
type Result struct {
	URL       string        `json:"url"`
	Strategy  Strategy      `json:"strategy"`
	Status    Status        `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	Report    *ScoreReport  `json:"report,omitempty"`
	Failure   *CheckFailure `json:"failure,omitempty"`
}

// NewSuccess builds a success Result.
func NewSuccess(url string, strategy Strategy, report ScoreReport, at time.Time) Result {
	return Result{
		URL:       url,
		Strategy:  strategy,
		Status:    StatusSuccess,
		CheckedAt: at,
		Report:    &report,
	}
}

// NewFailure builds a failure Result.
func NewFailure(url string, strategy Strategy, reason string, at time.Time) Result {
	return Result{
		URL:       url,
		Strategy:  strategy,
		Status:    StatusFailure,
		CheckedAt: at,
		Failure:   &CheckFailure{Reason: reason},
	}
}

// Succeeded reports whether the Result carries a score report.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess && r.Report != nil
}

// ErrorReason returns the failure classification, or "" for a success.
func (r Result) ErrorReason() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Reason
}

// ProcessedKey is the resumability identity for a (URL, strategy) pair.
// The URL component is normalized so cosmetic variants share a key.
func ProcessedKey(url string, strategy Strategy) string {
	return NormalizeURL(url) + "|" + string(strategy)
}

// ParseStrategies converts configured strategy names, preserving order.
func ParseStrategies(names []string) []Strategy {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		out = append(out, Strategy(n))
	}
	return out
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
