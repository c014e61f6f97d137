// Package cmd defines and implements the CLI commands for the psibatch executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psibatch/psibatch/internal/config"
	"github.com/psibatch/psibatch/internal/logging"
)

var cfgFile string

// runtimeKeyType is the key for storing the Runtime in the context.
type runtimeKeyType string

const runtimeKey runtimeKeyType = "runtime"

// Runtime carries the services every subcommand needs.
type Runtime struct {
	Cfg    config.Config
	Logger *zap.Logger
}

// newRuntime is the runtime factory. It's a variable so tests can
// replace it with a stub.
var newRuntime = func(_ context.Context) (*Runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return &Runtime{Cfg: cfg, Logger: logger}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "psibatch",
		Short: "Batch PageSpeed Insights auditor for sitemap URLs.",
		Long: `psibatch bulk-queries the PageSpeed Insights API for every URL in a
site's sitemap, across multiple device strategies, persisting results
incrementally so large sites can be processed over repeated, resumable
runs.`,

		// Build the runtime after flags are parsed but before the
		// subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey, rt))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*Runtime); ok && rt != nil {
				_ = rt.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./psibatch.yaml)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

func resolveRuntime(ctx context.Context) (*Runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*Runtime)
	if !ok || rt == nil {
		return nil, errors.New("application services not initialized")
	}
	return rt, nil
}

// Execute is the main entry point. Fatal errors exit non-zero.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
