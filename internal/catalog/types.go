// Package catalog holds the audiobook domain model and the Postgres-backed
// writer that persists crawl results.
package catalog

import "time"

// ExtractedBook is the transient result of parsing one book detail page.
// It has not been persisted yet; ImportBook turns it into catalog rows.
type ExtractedBook struct {
	Title        string
	AuthorName   string
	Slug         string
	ThumbnailURL string
	Description  string
	SourceURL    string
	Genres       []string
	Chapters     []ExtractedChapter
}

// ExtractedChapter is one audio track recovered from a book page.
// Chapters without a resolvable audio URL are never constructed.
type ExtractedChapter struct {
	Title        string
	ChapterIndex int
	AudioURL     string
}

// Book is a persisted catalog entry.
type Book struct {
	ID            int64
	AuthorID      *int64
	Title         string
	Slug          string
	Description   string
	ThumbnailURL  string
	SourceURL     string
	TotalChapters int
	ViewCount     int
	IsPublished   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Author is a persisted author row, keyed by slug.
type Author struct {
	ID   int64
	Name string
	Slug string
}

// Genre is a persisted genre row, keyed by slug.
type Genre struct {
	ID   int64
	Name string
	Slug string
}

// Chapter is a persisted audio track belonging to a book. DurationSeconds
// starts at zero and is filled in later by the playback frontend.
type Chapter struct {
	ID              int64
	BookID          int64
	Title           string
	ChapterIndex    int
	AudioURL        string
	DurationSeconds int
	CreatedAt       time.Time
}
