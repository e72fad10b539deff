package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/slug"
)

var (
	// ErrDuplicateSkip reports that a book with the same slug is already in
	// the catalog. The import is a deliberate no-op; crawling never refreshes
	// existing entries.
	ErrDuplicateSkip = errors.New("book already in catalog")

	// ErrMissingTitle aborts an import before any write happens.
	ErrMissingTitle = errors.New("book title is missing")
)

// maxDurationSeconds caps reported chapter durations at 24 hours.
const maxDurationSeconds = 86400

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store writes crawl results into the catalog tables. It owns every row the
// crawler produces; the admin API mutates the same book rows out-of-band, so
// the store never updates a book it did not just create.
type Store struct {
	db     DB
	logger *zap.Logger
}

// NewStore wraps an existing connection pool. The pool is shared with the
// queue store and owned by the process, not by this store.
func NewStore(db DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// ImportBook persists one extracted book and returns its catalog ID.
//
// Author resolution and the duplicate check run first; the book row, its
// genre links, its chapters and the final chapter count are then written in
// a single transaction, so a failed import never leaves a book with zero
// chapters behind. A slug collision returns the existing ID together with
// ErrDuplicateSkip.
func (s *Store) ImportBook(ctx context.Context, book ExtractedBook) (int64, error) {
	if strings.TrimSpace(book.Title) == "" {
		return 0, ErrMissingTitle
	}
	bookSlug := book.Slug
	if bookSlug == "" {
		bookSlug = slug.Make(book.Title)
	}
	if bookSlug == "" {
		return 0, fmt.Errorf("%w: title %q yields an empty slug", ErrMissingTitle, book.Title)
	}

	var authorID *int64
	if book.AuthorName != "" {
		id, err := s.getOrCreateAuthor(ctx, book.AuthorName)
		if err != nil {
			return 0, fmt.Errorf("resolve author: %w", err)
		}
		authorID = &id
	}

	var existingID int64
	err := s.db.QueryRow(ctx, `SELECT id FROM books WHERE slug = $1`, bookSlug).Scan(&existingID)
	switch {
	case err == nil:
		s.logger.Info("book already present, skipping",
			zap.String("slug", bookSlug),
			zap.Int64("book_id", existingID),
		)
		return existingID, ErrDuplicateSkip
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, fmt.Errorf("check existing slug: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var bookID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO books (author_id, title, slug, description, thumbnail_url, source_url, total_chapters, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, 0, TRUE)
		RETURNING id`,
		authorID, book.Title, bookSlug, book.Description, book.ThumbnailURL, book.SourceURL,
	).Scan(&bookID)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	for _, name := range book.Genres {
		genreID, gerr := getOrCreateGenre(ctx, tx, name)
		if gerr != nil {
			return 0, fmt.Errorf("resolve genre %q: %w", name, gerr)
		}
		if _, gerr = tx.Exec(ctx, `
			INSERT INTO book_genres (book_id, genre_id)
			VALUES ($1, $2)
			ON CONFLICT (book_id, genre_id) DO NOTHING`,
			bookID, genreID,
		); gerr != nil {
			return 0, fmt.Errorf("link genre %q: %w", name, gerr)
		}
	}

	for _, ch := range book.Chapters {
		// The update branch never touches duration_seconds: durations are
		// reported later by the player and must survive re-imports.
		if _, cerr := tx.Exec(ctx, `
			INSERT INTO chapters (book_id, title, chapter_index, audio_url, duration_seconds)
			VALUES ($1, $2, $3, $4, 0)
			ON CONFLICT (book_id, chapter_index)
			DO UPDATE SET audio_url = EXCLUDED.audio_url, title = EXCLUDED.title`,
			bookID, ch.Title, ch.ChapterIndex, ch.AudioURL,
		); cerr != nil {
			return 0, fmt.Errorf("upsert chapter %d: %w", ch.ChapterIndex, cerr)
		}
	}

	if _, err = tx.Exec(ctx, `
		UPDATE books SET total_chapters = $1, updated_at = NOW() WHERE id = $2`,
		len(book.Chapters), bookID,
	); err != nil {
		return 0, fmt.Errorf("finalize chapter count: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("book imported",
		zap.Int64("book_id", bookID),
		zap.String("slug", bookSlug),
		zap.Int("chapters", len(book.Chapters)),
		zap.Int("genres", len(book.Genres)),
	)
	return bookID, nil
}

// SetChapterDuration records the playback duration reported by the frontend
// once audio metadata is known. It only fills durations that are still zero
// and reports whether a row actually changed.
func (s *Store) SetChapterDuration(ctx context.Context, chapterID int64, seconds int) (bool, error) {
	if seconds <= 0 || seconds > maxDurationSeconds {
		return false, fmt.Errorf("duration %ds out of range", seconds)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE chapters SET duration_seconds = $1 WHERE id = $2 AND duration_seconds = 0`,
		seconds, chapterID,
	)
	if err != nil {
		return false, fmt.Errorf("set chapter duration: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) getOrCreateAuthor(ctx context.Context, name string) (int64, error) {
	authorSlug := slug.Make(name)

	var id int64
	err := s.db.QueryRow(ctx, `SELECT id FROM authors WHERE slug = $1`, authorSlug).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("look up author: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO authors (name, slug) VALUES ($1, $2) RETURNING id`,
		name, authorSlug,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert author: %w", err)
	}
	return id, nil
}

func getOrCreateGenre(ctx context.Context, q rowQuerier, name string) (int64, error) {
	genreSlug := slug.Make(name)

	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM genres WHERE slug = $1`, genreSlug).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("look up genre: %w", err)
	}

	err = q.QueryRow(ctx, `
		INSERT INTO genres (name, slug) VALUES ($1, $2) RETURNING id`,
		name, genreSlug,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert genre: %w", err)
	}
	return id, nil
}
