package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psibatch/psibatch/internal/audit"
	"github.com/psibatch/psibatch/internal/clock/system"
	"github.com/psibatch/psibatch/internal/config"
	"github.com/psibatch/psibatch/internal/metrics"
	"github.com/psibatch/psibatch/internal/report"
	"github.com/psibatch/psibatch/internal/runner"
	"github.com/psibatch/psibatch/internal/sitemap"
	"github.com/psibatch/psibatch/internal/state"
)

// newRunCmd creates the 'run' subcommand, which executes one resumable
// batch over the configured sitemap.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs one audit batch over the sitemap",
		Long: `Fetches the sitemap, selects the next batch of unprocessed URLs and
checks each one against the PageSpeed Insights API for every configured
strategy. Progress is persisted to the state file so the next invocation
resumes where this one left off.`,

		RunE: runBatchCommand,
	}
	return cmd
}

func runBatchCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	cfg := rt.Cfg
	logger := rt.Logger

	metrics.Init()
	stopMetrics := startMetricsServer(cfg.Metrics.Listen, logger)
	defer stopMetrics()

	eng := buildRunner(cfg, logger)

	logger.Info("run starting",
		zap.String("run_id", eng.RunID()),
		zap.String("sitemap", cfg.Sitemap.URL),
		zap.Strings("strategies", cfg.Audit.Strategies),
	)

	if err := eng.Run(cmd.Context()); err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	logger.Info("run finished", zap.String("run_id", eng.RunID()))
	return nil
}

func buildRunner(cfg config.Config, logger *zap.Logger) *runner.Runner {
	clk := system.New()
	strategies := audit.ParseStrategies(cfg.Audit.Strategies)

	fetcher := sitemap.New(sitemap.Config{
		UserAgent: cfg.Sitemap.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
	}, logger.Named("sitemap"))

	checker := audit.NewClient(audit.ClientConfig{
		Endpoint:   cfg.API.Endpoint,
		APIKey:     cfg.API.Key,
		Categories: cfg.Audit.Categories,
		Locale:     cfg.Audit.Locale,
		Timeout:    cfg.HTTP.Timeout,
	}, clk, logger.Named("client"))

	store := state.NewStore(cfg.State.Path, clk, logger.Named("state"))

	return runner.New(
		runner.Config{
			SitemapURL:    cfg.Sitemap.URL,
			Strategies:    strategies,
			RequestDelay:  cfg.Audit.RequestDelay,
			BatchSize:     cfg.Audit.BatchSize,
			MaxURLs:       cfg.Audit.MaxURLs,
			URLFilter:     cfg.Audit.URLFilter,
			Deduplicate:   cfg.Audit.Deduplicate,
			Normalize:     cfg.Audit.Normalize,
			SkipProcessed: cfg.Audit.SkipProcessed,
			Retry: audit.RetryPolicy{
				MaxRetries: cfg.Retry.MaxRetries,
				Delay:      cfg.Retry.Delay,
			},
		},
		fetcher,
		checker,
		store,
		buildReporters(cfg, strategies, clk),
		report.NewSummary(os.Stdout, strategies, cfg.Audit.Locale),
		clk,
		logger.Named("runner"),
	)
}

func buildReporters(cfg config.Config, strategies []audit.Strategy, clk audit.Clock) []runner.Reporter {
	var reporters []runner.Reporter
	for _, format := range cfg.Report.Formats {
		switch format {
		case "json":
			reporters = append(reporters, report.NewJSONWriter(filepath.Join(cfg.Report.Dir, "results.json")))
		case "csv":
			reporters = append(reporters, report.NewCSVWriter(filepath.Join(cfg.Report.Dir, "results.csv")))
		case "html":
			reporters = append(reporters, report.NewHTMLWriter(
				filepath.Join(cfg.Report.Dir, "report.html"), strategies, cfg.Audit.Locale, clk))
		}
	}
	return reporters
}

// startMetricsServer serves /metrics and /healthz for the duration of
// the run when a listen address is configured.
func startMetricsServer(listen string, logger *zap.Logger) func() {
	if listen == "" {
		return func() {}
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server started", zap.String("listen", listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server error", zap.Error(err))
		}
	}()
	return func() {
		_ = srv.Close()
	}
}
