// Package runner sequences the batch-resumable audit pipeline.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/psibatch/psibatch/internal/audit"
	"github.com/psibatch/psibatch/internal/logging"
	"github.com/psibatch/psibatch/internal/metrics"
	"github.com/psibatch/psibatch/internal/state"
)

// SitemapFetcher yields the raw URL feed for a run.
type SitemapFetcher interface {
	Fetch(ctx context.Context, sitemapURL string) ([]string, error)
}

// Reporter consumes the final merged result list.
type Reporter interface {
	Name() string
	Write(results []audit.Result) error
}

// SummaryPrinter renders the end-of-run console summary.
type SummaryPrinter interface {
	Print(batch []audit.Result, cumulative int)
}

// Config controls one pipeline run.
type Config struct {
	SitemapURL    string
	Strategies    []audit.Strategy
	RequestDelay  time.Duration
	BatchSize     int
	MaxURLs       int
	URLFilter     string
	Deduplicate   bool
	Normalize     bool
	SkipProcessed bool
	Retry         audit.RetryPolicy
}

// Runner executes the load -> fetch -> select -> check -> persist ->
// report sequence. Checks run strictly sequentially: URL outer loop,
// strategy inner loop, in configured order.
type Runner struct {
	cfg       Config
	fetcher   SitemapFetcher
	checker   audit.Checker
	store     *state.Store
	reporters []Reporter
	summary   SummaryPrinter
	limiter   *rate.Limiter
	clock     audit.Clock
	logger    *zap.Logger
	runID     string
}

// New constructs a Runner. The pacing limiter admits the first call
// immediately and spaces every subsequent call by the configured delay.
func New(
	cfg Config,
	fetcher SitemapFetcher,
	checker audit.Checker,
	store *state.Store,
	reporters []Reporter,
	summary SummaryPrinter,
	clock audit.Clock,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}
	return &Runner{
		cfg:       cfg,
		fetcher:   fetcher,
		checker:   checker,
		store:     store,
		reporters: reporters,
		summary:   summary,
		limiter:   rate.NewLimiter(limit, 1),
		clock:     clock,
		logger:    logger,
		runID:     uuid.NewString(),
	}
}

// RunID returns the identifier minted for this invocation.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes one batch. A sitemap fetch failure is fatal before any
// check runs; once checks have started, faults still reach the save
// and summary path so completed work is not silently discarded.
func (r *Runner) Run(ctx context.Context) error {
	logger := logging.WithRunID(r.logger, r.runID)
	st := r.store.Load()
	st.SetRunID(r.runID)

	rawURLs, err := r.fetcher.Fetch(ctx, r.cfg.SitemapURL)
	if err != nil {
		return fmt.Errorf("fetch sitemap: %w", err)
	}

	candidates, stats := audit.BuildCandidates(rawURLs, audit.CandidateOptions{
		Deduplicate: r.cfg.Deduplicate,
		Normalize:   r.cfg.Normalize,
		Filter:      r.cfg.URLFilter,
	})
	statsFields := []zap.Field{
		zap.Int("input", stats.Input),
		zap.Int("duplicates_removed", stats.Duplicates),
	}
	if r.cfg.URLFilter != "" {
		statsFields = append(statsFields,
			zap.Int("filter_input", stats.Input-stats.Duplicates),
			zap.Int("filtered_in", stats.FilteredIn),
		)
	}
	statsFields = append(statsFields, zap.Int("candidates", stats.Output))
	logger.Info("candidate set built", statsFields...)
	metrics.SetCandidateCount(stats.Output)

	if r.cfg.SkipProcessed {
		candidates = r.filterProcessed(st, candidates)
	}

	batch, remaining := audit.SelectBatch(candidates, r.cfg.BatchSize, r.cfg.MaxURLs)
	logger.Info("batch selected",
		zap.Int("batch", len(batch)),
		zap.Int("deferred", remaining),
	)
	metrics.SetBatchSize(len(batch))

	batchResults := r.execute(ctx, st, batch, logger)

	if err := r.store.Save(st); err != nil {
		// Soft failure: the in-memory results still feed the reports.
		logger.Warn("state save failed", zap.Error(err))
	}

	var reportErr error
	for _, rep := range r.reporters {
		if err := rep.Write(st.Results()); err != nil {
			logger.Error("report write failed", zap.String("format", rep.Name()), zap.Error(err))
			if reportErr == nil {
				reportErr = fmt.Errorf("write %s report: %w", rep.Name(), err)
			}
		}
	}

	if r.summary != nil {
		r.summary.Print(batchResults, len(st.Results()))
	}

	if reportErr != nil {
		return reportErr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return nil
}

// filterProcessed drops URLs whose every configured strategy already
// has a terminal result.
func (r *Runner) filterProcessed(st *state.RunState, candidates []string) []string {
	kept := make([]string, 0, len(candidates))
	for _, url := range candidates {
		pending := false
		for _, strategy := range r.cfg.Strategies {
			if !st.IsProcessed(url, strategy) {
				pending = true
				break
			}
		}
		if pending {
			kept = append(kept, url)
		}
	}
	if skipped := len(candidates) - len(kept); skipped > 0 {
		r.logger.Info("already-processed urls skipped", zap.Int("skipped", skipped))
	}
	return kept
}

// execute runs the batch sequentially with pacing between consecutive
// remote calls. Each terminal check marks its key and appends its
// result immediately, so an interrupt loses at most the in-flight call.
func (r *Runner) execute(ctx context.Context, st *state.RunState, batch []string, logger *zap.Logger) []audit.Result {
	var completed []audit.Result
	for _, url := range batch {
		for _, strategy := range r.cfg.Strategies {
			if r.cfg.SkipProcessed && st.IsProcessed(url, strategy) {
				continue
			}
			if err := r.limiter.Wait(ctx); err != nil {
				logger.Warn("batch interrupted", zap.Error(err))
				return completed
			}

			start := r.clock.Now()
			result, outcome := audit.CheckWithRetry(ctx, r.checker, url, strategy, r.cfg.Retry)
			elapsed := r.clock.Now().Sub(start)

			// A failure produced by the interrupt itself is not terminal;
			// leave the pair unprocessed so the next run retries it.
			if ctx.Err() != nil && !result.Succeeded() {
				logger.Warn("check interrupted",
					zap.String("url", url),
					zap.String("strategy", string(strategy)),
				)
				return completed
			}

			st.MarkProcessed(url, strategy)
			st.AppendResult(result)
			completed = append(completed, result)

			r.observe(result, outcome, elapsed, logger)
		}
	}
	return completed
}

func (r *Runner) observe(result audit.Result, outcome audit.Outcome, elapsed time.Duration, logger *zap.Logger) {
	metrics.ObserveCheck(string(result.Strategy), string(result.Status), elapsed)
	if outcome == audit.OutcomeExhaustedRetries {
		metrics.AddRetries(r.cfg.Retry.MaxRetries)
	}

	fields := []zap.Field{
		zap.String("url", result.URL),
		zap.String("strategy", string(result.Strategy)),
		zap.Duration("elapsed", elapsed),
	}
	if result.Succeeded() {
		logger.Info("check succeeded",
			append(fields,
				zap.Int("performance", result.Report.Scores.Performance),
				zap.Int("accessibility", result.Report.Scores.Accessibility),
				zap.Int("best_practices", result.Report.Scores.BestPractices),
				zap.Int("seo", result.Report.Scores.SEO),
			)...)
		return
	}
	logger.Warn("check failed",
		append(fields,
			zap.String("reason", result.ErrorReason()),
			zap.String("outcome", string(outcome)),
		)...)
}
