// Package extract parses rendered book pages into structured records.
//
// The source markup varies between themes, so every field is located by an
// ordered list of named strategies tried in sequence. Absence of an optional
// field is a normal fallback, never an error.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/catalog"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/slug"
)

const (
	// titleFallback is used when no heading matches on the page.
	titleFallback = "Unknown"

	// maxDescriptionRunes bounds the stored description length.
	maxDescriptionRunes = 1000
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// fieldStrategy locates one optional field in a parsed document.
// It returns "" when the field is absent; the caller tries the next one.
type fieldStrategy struct {
	name string
	fn   func(doc *goquery.Document) string
}

var titleStrategies = []fieldStrategy{
	{"entry-title heading", func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("h1[class*='entry-title']").First().Text())
	}},
	{"first h1", func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("h1").First().Text())
	}},
}

var authorStrategies = []fieldStrategy{
	{"entry-meta author link", func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("span[class*='entry-meta'] a[href*='tac-gia']").First().Text())
	}},
	{"any author link", func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("a[href*='tac-gia']").First().Text())
	}},
}

var thumbnailStrategies = []fieldStrategy{
	{"content image", func(doc *goquery.Document) string {
		src, _ := doc.Find("div[class*='entry-content'] img").First().Attr("src")
		return src
	}},
	{"article image", func(doc *goquery.Document) string {
		src, _ := doc.Find("article img").First().Attr("src")
		return src
	}},
}

// Book parses the rendered HTML of a detail page into an ExtractedBook.
// It fails only when the markup cannot be parsed at all; missing fields
// fall back per strategy.
func Book(html, sourceURL string) (catalog.ExtractedBook, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return catalog.ExtractedBook{}, fmt.Errorf("parse page %s: %w", sourceURL, err)
	}

	book := catalog.ExtractedBook{
		SourceURL:    sourceURL,
		Title:        firstField(doc, titleStrategies, titleFallback),
		AuthorName:   firstField(doc, authorStrategies, ""),
		ThumbnailURL: firstField(doc, thumbnailStrategies, ""),
		Description:  description(doc),
		Genres:       genres(doc),
	}
	book.Slug = slug.Make(book.Title)

	book.Chapters = scriptChapters(doc, linkChapters(doc))
	return book, nil
}

func firstField(doc *goquery.Document, strategies []fieldStrategy, fallback string) string {
	for _, s := range strategies {
		if v := s.fn(doc); v != "" {
			return v
		}
	}
	return fallback
}

func description(doc *goquery.Document) string {
	body := doc.Find("div[class*='entry-content']").First()
	if body.Length() == 0 {
		return ""
	}
	text := strings.TrimSpace(whitespaceRun.ReplaceAllString(body.Text(), " "))
	runes := []rune(text)
	if len(runes) > maxDescriptionRunes {
		return string(runes[:maxDescriptionRunes]) + "..."
	}
	return text
}

// genres collects every genre link, case-sensitively unique in first-seen
// order. One-character entries are theme noise and discarded.
func genres(doc *goquery.Document) []string {
	var names []string
	seen := make(map[string]struct{})
	doc.Find("a[href*='the-loai']").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if utf8.RuneCountInString(name) < 2 {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}
