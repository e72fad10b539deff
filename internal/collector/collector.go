// Package collector walks genre listing pages and gathers book detail URLs.
package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/fetcher"
)

// Collector paginates a genre listing and collects book links.
type Collector struct {
	fetcher fetcher.Fetcher
	logger  *zap.Logger
}

func New(f fetcher.Fetcher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{fetcher: f, logger: logger}
}

// GenreLinks fetches pages 1..maxPages of a genre listing and returns the
// book detail URLs in first-seen order, deduplicated by exact string.
//
// The listing exposes no total count, so the first page that yields zero
// links terminates the walk. A fetch failure aborts the remaining pages and
// returns what was collected so far together with the error; callers treat
// that as a partial result, not a hard failure.
func (c *Collector) GenreLinks(ctx context.Context, genreURL string, maxPages int) ([]string, error) {
	var links []string
	seen := make(map[string]struct{})

	for page := 1; page <= maxPages; page++ {
		pageURL := genreURL
		if page > 1 {
			pageURL = fmt.Sprintf("%spage/%d/", withTrailingSlash(genreURL), page)
		}

		html, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return links, fmt.Errorf("genre page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return links, fmt.Errorf("parse genre page %d: %w", page, err)
		}

		found := 0
		listingLinks(doc).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok || href == "" {
				return
			}
			found++
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			links = append(links, href)
		})

		c.logger.Info("genre page collected",
			zap.String("url", pageURL),
			zap.Int("page", page),
			zap.Int("links", found),
		)
		if found == 0 {
			break
		}
	}
	return links, nil
}

// listingLinks tries the theme's primary loop-title markup first, then the
// older variant.
func listingLinks(doc *goquery.Document) *goquery.Selection {
	sel := doc.Find("h3[class*='entry-title'] a")
	if sel.Length() == 0 {
		sel = doc.Find("h2[class*='mh-loop-title'] a")
	}
	return sel
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
