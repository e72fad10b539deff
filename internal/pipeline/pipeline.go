// Package pipeline wires fetching, extraction and persistence into the
// per-book crawl flow shared by the CLI and the queue processor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/catalog"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/extract"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/fetcher"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/metrics"
)

// Importer persists one extracted book.
type Importer interface {
	ImportBook(ctx context.Context, book catalog.ExtractedBook) (int64, error)
}

// LinkCollector gathers book detail URLs from a genre listing.
type LinkCollector interface {
	GenreLinks(ctx context.Context, genreURL string, maxPages int) ([]string, error)
}

// GenreSummary reports one genre crawl batch.
type GenreSummary struct {
	Found     int
	Succeeded int
	Failed    int
}

// Pipeline runs the crawl flow. All operations are strictly sequential; the
// fetcher owns a single browser session.
type Pipeline struct {
	fetcher  fetcher.Fetcher
	importer Importer
	links    LinkCollector
	baseURL  string
	logger   *zap.Logger
}

func New(f fetcher.Fetcher, importer Importer, links LinkCollector, baseURL string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:  f,
		importer: importer,
		links:    links,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With(zap.String("run_id", uuid.NewString())),
	}
}

// CrawlBook fetches, extracts and imports a single book. A slug collision
// with the existing catalog is an informational skip, not an error; every
// real failure bubbles up to the caller.
func (p *Pipeline) CrawlBook(ctx context.Context, url string) error {
	p.logger.Info("crawling book", zap.String("url", url))

	html, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.Books.WithLabelValues("failed").Inc()
		return err
	}

	book, err := extract.Book(html, url)
	if err != nil {
		metrics.Books.WithLabelValues("failed").Inc()
		return err
	}

	id, err := p.importer.ImportBook(ctx, book)
	switch {
	case errors.Is(err, catalog.ErrDuplicateSkip):
		metrics.Books.WithLabelValues("skipped").Inc()
		p.logger.Info("book already in catalog, skipped",
			zap.String("url", url),
			zap.String("title", book.Title),
			zap.Int64("book_id", id),
		)
		return nil
	case err != nil:
		metrics.Books.WithLabelValues("failed").Inc()
		return fmt.Errorf("import %s: %w", url, err)
	}

	metrics.Books.WithLabelValues("imported").Inc()
	p.logger.Info("book imported",
		zap.String("url", url),
		zap.String("title", book.Title),
		zap.Int64("book_id", id),
		zap.Int("chapters", len(book.Chapters)),
	)
	return nil
}

// CrawlGenre collects the genre's book links and crawls each in turn.
// Per-book failures are counted, logged and never abort the batch; a
// partial link collection is likewise a warning, not a failure.
func (p *Pipeline) CrawlGenre(ctx context.Context, genreSlug string, maxPages int) (GenreSummary, error) {
	genreURL := p.GenreURL(genreSlug)
	p.logger.Info("crawling genre",
		zap.String("genre", genreSlug),
		zap.String("url", genreURL),
		zap.Int("max_pages", maxPages),
	)

	links, err := p.links.GenreLinks(ctx, genreURL, maxPages)
	if err != nil {
		p.logger.Warn("genre listing incomplete",
			zap.String("genre", genreSlug),
			zap.Int("collected", len(links)),
			zap.Error(err),
		)
	}

	summary := GenreSummary{Found: len(links)}
	for _, link := range links {
		if ctx.Err() != nil {
			return summary, fmt.Errorf("genre crawl interrupted: %w", ctx.Err())
		}
		if err := p.CrawlBook(ctx, link); err != nil {
			summary.Failed++
			p.logger.Error("book crawl failed", zap.String("url", link), zap.Error(err))
			continue
		}
		summary.Succeeded++
	}

	p.logger.Info("genre crawl complete",
		zap.String("genre", genreSlug),
		zap.Int("found", summary.Found),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// GenreURL builds the listing URL for a genre slug.
func (p *Pipeline) GenreURL(genreSlug string) string {
	return fmt.Sprintf("%s/the-loai/tl-%s/", p.baseURL, genreSlug)
}
