// Package cmd defines and implements the CLI commands for the audiocrawler
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/app"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/config"
)

var cfgFile string

// appKeyType keys the App in the command context.
type appKeyType struct{}

var appKey appKeyType

// newApp is the application factory. It is a variable so tests can swap in
// a fake container.
var newApp = func(ctx context.Context, cfg config.Config) (*app.App, error) {
	return app.New(ctx, cfg)
}

// newRootCmd builds the root command. Configuration loads and the service
// container starts in PersistentPreRunE so every subcommand sees a fully
// wired App in its context.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audiocrawler",
		Short: "Crawls audiobook pages into the catalog database",
		Long: `audiocrawler is the ingestion tool for the audiobook catalog.
It renders listing and detail pages in a headless browser, extracts book
metadata and chapter audio URLs, and persists them to Postgres.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newEnqueueCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context so an
// in-flight crawl stops at the next book boundary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "audiocrawler: %v\n", err)
		os.Exit(1)
	}
}
