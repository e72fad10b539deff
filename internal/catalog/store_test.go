package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock, zap.NewNop())
}

func TestImportBookInsertsEverything(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	book := ExtractedBook{
		Title:        "Đấu Phá Thương Khung",
		AuthorName:   "Thiên Tằm Thổ Đậu",
		ThumbnailURL: "https://example.com/thumb.jpg",
		Description:  "desc",
		SourceURL:    "https://example.com/dau-pha-thuong-khung/",
		Genres:       []string{"Tiên Hiệp"},
		Chapters: []ExtractedChapter{
			{Title: "Chương 1", ChapterIndex: 1, AudioURL: "https://cdn.example.com/1.mp3"},
			{Title: "Chương 2", ChapterIndex: 2, AudioURL: "https://cdn.example.com/2.mp3"},
		},
	}

	// Author does not exist yet.
	mock.ExpectQuery(`SELECT id FROM authors WHERE slug`).
		WithArgs("thien-tam-tho-dau").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO authors`).
		WithArgs("Thiên Tằm Thổ Đậu", "thien-tam-tho-dau").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	// No book with this slug.
	mock.ExpectQuery(`SELECT id FROM books WHERE slug`).
		WithArgs("dau-pha-thuong-khung").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(pgxmock.AnyArg(), book.Title, "dau-pha-thuong-khung", book.Description, book.ThumbnailURL, book.SourceURL).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	// Genre exists already; only the link is inserted.
	mock.ExpectQuery(`SELECT id FROM genres WHERE slug`).
		WithArgs("tien-hiep").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(`INSERT INTO book_genres`).
		WithArgs(int64(42), int64(9)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec(`INSERT INTO chapters`).
		WithArgs(int64(42), "Chương 1", 1, "https://cdn.example.com/1.mp3").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO chapters`).
		WithArgs(int64(42), "Chương 2", 2, "https://cdn.example.com/2.mp3").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec(`UPDATE books SET total_chapters`).
		WithArgs(2, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	id, err := store.ImportBook(context.Background(), book)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBookSkipsExistingSlug(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT id FROM books WHERE slug`).
		WithArgs("test-book").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.ImportBook(context.Background(), ExtractedBook{Title: "Test Book"})
	require.ErrorIs(t, err, ErrDuplicateSkip)
	require.Equal(t, int64(7), id)
	// No transaction was opened; existing rows are never touched.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBookRejectsMissingTitle(t *testing.T) {
	t.Parallel()

	_, store := newMockStore(t)

	_, err := store.ImportBook(context.Background(), ExtractedBook{Title: "   "})
	require.ErrorIs(t, err, ErrMissingTitle)

	_, err = store.ImportBook(context.Background(), ExtractedBook{Title: "!!!"})
	require.ErrorIs(t, err, ErrMissingTitle)
}

func TestImportBookRollsBackOnChapterFailure(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	book := ExtractedBook{
		Title: "Broken Book",
		Chapters: []ExtractedChapter{
			{Title: "Chương 1", ChapterIndex: 1, AudioURL: "https://cdn.example.com/1.mp3"},
		},
	}

	mock.ExpectQuery(`SELECT id FROM books WHERE slug`).
		WithArgs("broken-book").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(pgxmock.AnyArg(), book.Title, "broken-book", "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec(`INSERT INTO chapters`).
		WithArgs(int64(5), "Chương 1", 1, "https://cdn.example.com/1.mp3").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.ImportBook(context.Background(), book)
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert chapter 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetChapterDuration(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectExec(`UPDATE chapters SET duration_seconds`).
		WithArgs(360, int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	updated, err := store.SetChapterDuration(context.Background(), 11, 360)
	require.NoError(t, err)
	require.True(t, updated)

	// A chapter whose duration is already set reports no change.
	mock.ExpectExec(`UPDATE chapters SET duration_seconds`).
		WithArgs(360, int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	updated, err = store.SetChapterDuration(context.Background(), 11, 360)
	require.NoError(t, err)
	require.False(t, updated)

	_, err = store.SetChapterDuration(context.Background(), 11, 0)
	require.Error(t, err)
	_, err = store.SetChapterDuration(context.Background(), 11, 90000)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
