package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrAlreadyQueued reports that a URL is already waiting or in flight.
var ErrAlreadyQueued = errors.New("url already in queue")

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists crawl jobs in the crawl_queue table.
type Store struct {
	db     DB
	logger *zap.Logger
}

func NewStore(db DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Enqueue inserts a pending job for url, refusing URLs that are already
// pending or processing.
func (s *Store) Enqueue(ctx context.Context, url string) (int64, error) {
	var existing int64
	err := s.db.QueryRow(ctx, `
		SELECT id FROM crawl_queue WHERE url = $1 AND status IN ('pending', 'processing')`,
		url,
	).Scan(&existing)
	switch {
	case err == nil:
		return existing, ErrAlreadyQueued
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, fmt.Errorf("check queue: %w", err)
	}

	var id int64
	err = s.db.QueryRow(ctx, `
		INSERT INTO crawl_queue (url, status) VALUES ($1, 'pending') RETURNING id`,
		url,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue url: %w", err)
	}
	return id, nil
}

// NextPending claims nothing; it returns the oldest pending job, or nil when
// the queue is drained.
func (s *Store) NextPending(ctx context.Context) (*Job, error) {
	var (
		job    Job
		status string
		errMsg *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, url, status, error_message, created_at, processed_at
		FROM crawl_queue
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT 1`,
	).Scan(&job.ID, &job.URL, &status, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending job: %w", err)
	}
	job.Status = JobStatus(status)
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	return &job, nil
}

// MarkProcessing claims a pending job for the single worker.
func (s *Store) MarkProcessing(ctx context.Context, job *Job) error {
	return s.transition(ctx, job, StatusProcessing, "")
}

// MarkCompleted records a successful terminal state.
func (s *Store) MarkCompleted(ctx context.Context, job *Job) error {
	return s.transition(ctx, job, StatusCompleted, "")
}

// MarkFailed records a failed terminal state with the failure message
// captured verbatim.
func (s *Store) MarkFailed(ctx context.Context, job *Job, errMsg string) error {
	return s.transition(ctx, job, StatusFailed, errMsg)
}

func (s *Store) transition(ctx context.Context, job *Job, next JobStatus, errMsg string) error {
	if !job.Status.CanTransition(next) {
		return fmt.Errorf("job %d: illegal transition %s -> %s", job.ID, job.Status, next)
	}

	var (
		tag pgconn.CommandTag
		err error
	)
	if next.Terminal() {
		tag, err = s.db.Exec(ctx, `
			UPDATE crawl_queue
			SET status = $1, error_message = NULLIF($2, ''), processed_at = NOW()
			WHERE id = $3 AND status = $4`,
			string(next), errMsg, job.ID, string(job.Status),
		)
	} else {
		tag, err = s.db.Exec(ctx, `
			UPDATE crawl_queue SET status = $1 WHERE id = $2 AND status = $3`,
			string(next), job.ID, string(job.Status),
		)
	}
	if err != nil {
		return fmt.Errorf("job %d: transition to %s: %w", job.ID, next, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d: not in status %s anymore", job.ID, job.Status)
	}

	job.Status = next
	job.ErrorMessage = errMsg
	return nil
}
