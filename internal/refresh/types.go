package refresh

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/hatrick/crease/internal/fantrax"
	"github.com/hatrick/crease/internal/stats"
)

// JobType enumerates the supported refresh job variants.
type JobType string

const (
	JobTypeSeason      JobType = "season"
	JobTypeSeasonRange JobType = "season_range"
	JobTypeLocalImport JobType = "local_import"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job models the database representation of a refresh job.
type Job struct {
	JobID           string
	JobType         JobType
	Seasons         pq.Int64Array
	Reports         pq.StringArray
	SourcePath      sql.NullString
	DryRun          bool
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	LastError       sql.NullString
	RetryCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// JobEvent is one stored log entry for a job.
type JobEvent struct {
	ID              int
	JobID           string
	EventType       string
	Message         string
	ProgressCurrent sql.NullInt64
	ProgressTotal   sql.NullInt64
	CreatedAt       time.Time
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type       JobType
	Seasons    []int
	Reports    []stats.ReportType
	SourcePath string
	DryRun     bool
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnSeasonStart(season int, index int, total int)
	OnFileProcessed(res fantrax.FileResult)
	OnProgress(message string, current int, total int)
	OnJobComplete()
	OnJobError(err error)
}

// Event is one progress update fanned out to websocket clients and the
// Redis stream.
type Event struct {
	JobID   string    `json:"jobId"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
	At      time.Time `json:"at"`
}

// Broadcaster pushes events to connected websocket clients.
type Broadcaster interface {
	BroadcastEvent(event Event)
}

// EventPublisher writes events onto a stream for external consumers.
type EventPublisher interface {
	PublishRefreshEvent(ctx context.Context, event Event) error
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
