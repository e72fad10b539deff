package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/queue"
)

// newCrawlCmd groups the crawl entry points: a whole genre, a single book,
// or draining the persistent job queue.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a crawl",
	}
	cmd.AddCommand(newCrawlGenreCmd())
	cmd.AddCommand(newCrawlBookCmd())
	cmd.AddCommand(newCrawlQueueCmd())
	return cmd
}

func newCrawlGenreCmd() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "genre <slug>",
		Short: "Crawl every book listed under a genre",
		Long: `Walks the paginated listing for the given genre slug, then crawls
each book detail page found. Per-book failures are logged and the batch
continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			maxPages := pages
			if maxPages <= 0 {
				maxPages = a.Config.Crawler.MaxPagesDefault
			}

			summary, err := a.Pipeline.CrawlGenre(cmd.Context(), args[0], maxPages)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "genre %s: %d found, %d imported or skipped, %d failed\n",
				args[0], summary.Found, summary.Succeeded, summary.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 0, "listing pages to walk (default from config)")
	return cmd
}

func newCrawlBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book <url>",
		Short: "Crawl a single book detail page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Pipeline.CrawlBook(cmd.Context(), args[0])
		},
	}
}

func newCrawlQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Drain the pending crawl queue",
		Long: `Claims pending jobs oldest first and crawls each one. A failed crawl
marks its job failed and the drain continues; the command stops when no
pending jobs remain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			proc := queue.NewProcessor(a.Queue, a.Pipeline, a.Logger)
			counts, err := proc.Drain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue drained: %d completed, %d failed\n",
				counts.Completed, counts.Failed)
			return nil
		},
	}
}

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <url>",
		Short: "Queue a book URL for a later crawl",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			id, err := a.Queue.Enqueue(cmd.Context(), args[0])
			if errors.Is(err, queue.ErrAlreadyQueued) {
				a.Logger.Info("url already queued", zap.String("url", args[0]), zap.Int64("job_id", id))
				fmt.Fprintf(cmd.OutOrStdout(), "already queued as job %d\n", id)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued as job %d\n", id)
			return nil
		},
	}
}
