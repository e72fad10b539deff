package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/metrics"
)

// BookCrawler runs the full fetch→extract→import pipeline for one URL.
type BookCrawler interface {
	CrawlBook(ctx context.Context, url string) error
}

// JobSource is the store surface the processor drains.
type JobSource interface {
	NextPending(ctx context.Context) (*Job, error)
	MarkProcessing(ctx context.Context, job *Job) error
	MarkCompleted(ctx context.Context, job *Job) error
	MarkFailed(ctx context.Context, job *Job, errMsg string) error
}

// Counts summarizes one drain pass.
type Counts struct {
	Completed int
	Failed    int
}

// Processor drains the crawl queue one job at a time. The single-worker
// model is deliberate: the page fetcher holds one shared browser session, so
// jobs must not run concurrently.
type Processor struct {
	jobs    JobSource
	crawler BookCrawler
	logger  *zap.Logger
}

func NewProcessor(jobs JobSource, crawler BookCrawler, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{jobs: jobs, crawler: crawler, logger: logger}
}

// Drain claims pending jobs oldest-first and runs each through the pipeline
// until none remain, then returns. A job failure is recorded on the job and
// never aborts the drain; only store or context errors stop the loop early.
func (p *Processor) Drain(ctx context.Context) (Counts, error) {
	var counts Counts
	for {
		if err := ctx.Err(); err != nil {
			return counts, fmt.Errorf("drain interrupted: %w", err)
		}

		job, err := p.jobs.NextPending(ctx)
		if err != nil {
			return counts, err
		}
		if job == nil {
			p.logger.Info("queue drained",
				zap.Int("completed", counts.Completed),
				zap.Int("failed", counts.Failed),
			)
			return counts, nil
		}

		if err := p.jobs.MarkProcessing(ctx, job); err != nil {
			return counts, err
		}
		p.logger.Info("processing job", zap.Int64("job_id", job.ID), zap.String("url", job.URL))

		if crawlErr := p.crawler.CrawlBook(ctx, job.URL); crawlErr != nil {
			if err := p.jobs.MarkFailed(ctx, job, crawlErr.Error()); err != nil {
				return counts, err
			}
			metrics.Jobs.WithLabelValues(string(StatusFailed)).Inc()
			counts.Failed++
			p.logger.Warn("job failed",
				zap.Int64("job_id", job.ID),
				zap.String("url", job.URL),
				zap.Error(crawlErr),
			)
			continue
		}

		if err := p.jobs.MarkCompleted(ctx, job); err != nil {
			return counts, err
		}
		metrics.Jobs.WithLabelValues(string(StatusCompleted)).Inc()
		counts.Completed++
	}
}
