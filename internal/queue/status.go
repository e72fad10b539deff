// Package queue implements the durable crawl queue and its drain loop.
package queue

import "time"

// JobStatus is the lifecycle state of a crawl job. The only legal moves are
// pending→processing and processing→{completed,failed}; terminal states
// never transition again.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Job is one unit of crawl work: a single source URL tracked through the
// crawl_queue table. Rows are inserted by external submitters (the admin
// UI); this process only consumes them.
type Job struct {
	ID           int64
	URL          string
	Status       JobStatus
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
