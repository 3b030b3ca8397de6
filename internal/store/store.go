// Package store defines the datastore abstraction for keyword-tracker.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job run statuses.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobCrashed   = "crashed"
)

// TaskQuery defines optional filters for task listing.
type TaskQuery struct {
	Status *domain.TaskStatus
	Owner  *string
	Limit  int // default 50
	Offset int
}

// Store defines all data access operations for keyword-tracker.
type Store interface {
	// Tasks
	CreateTask(ctx context.Context, t *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, q *TaskQuery) ([]domain.Task, error)
	ListActiveTasks(ctx context.Context) ([]domain.Task, error)
	SetTaskStatus(ctx context.Context, id string, status domain.TaskStatus) error
	TouchTask(ctx context.Context, id string, checkedAt time.Time) error
	DeleteTask(ctx context.Context, id string) error

	// Metrics logs
	AppendLog(
		ctx context.Context,
		taskID string,
		recordedAt time.Time,
		keywords []domain.KeywordResult,
	) (id string, err error)
	ListLogs(ctx context.Context, taskID string, limit int) ([]domain.MetricsLog, error)
	PruneLogs(ctx context.Context, olderThan time.Duration) (int, error)

	// Scheduler
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error)
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
