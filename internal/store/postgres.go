package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

const (
	defaultPoolSize = 10
	jobRunRetention = 30 * 24 * time.Hour
)

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
// Its methods are covered by the integration suite.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if !strings.Contains(connString, "pool_max_conns") {
		cfg.MaxConns = defaultPoolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// CreateTask inserts a new task. ID and timestamps, including an initial
// last_checked_at, are assigned by the database and written back to t.
// An empty status defaults to active.
func (s *PostgresStore) CreateTask(ctx context.Context, t *domain.Task) error {
	if t.Status == "" {
		t.Status = domain.TaskActive
	}

	args := pgx.NamedArgs{
		"name":     t.Name,
		"owner":    t.Owner,
		"keywords": t.Keywords,
		"status":   string(t.Status),
	}

	if err := s.pool.QueryRow(ctx, queryInsertTask, args).Scan(
		&t.ID, &t.LastCheckedAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// GetTask returns a task by ID.
func (s *PostgresStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := scanTask(s.pool.QueryRow(ctx, queryGetTask, id), &t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return &t, nil
}

// ListTasks returns tasks matching q, newest first.
func (s *PostgresStore) ListTasks(ctx context.Context, q *TaskQuery) ([]domain.Task, error) {
	if q == nil {
		q = &TaskQuery{}
	}
	sql, args := q.ToSQL()
	return s.queryTasks(ctx, sql, args...)
}

// ListActiveTasks returns every active task, oldest first.
func (s *PostgresStore) ListActiveTasks(ctx context.Context) ([]domain.Task, error) {
	return s.queryTasks(ctx, queryListActiveTasks)
}

// SetTaskStatus pauses or resumes a task.
func (s *PostgresStore) SetTaskStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	tag, err := s.pool.Exec(ctx, querySetTaskStatus, id, string(status))
	if err != nil {
		return fmt.Errorf("setting task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// TouchTask records when a task was last processed.
func (s *PostgresStore) TouchTask(ctx context.Context, id string, checkedAt time.Time) error {
	if _, err := s.pool.Exec(ctx, queryTouchTask, id, checkedAt); err != nil {
		return fmt.Errorf("updating task last_checked_at: %w", err)
	}
	return nil
}

// DeleteTask removes a task and, by cascade, its logs.
func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryDeleteTask, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendLog writes one metrics log entry and returns its ID.
func (s *PostgresStore) AppendLog(
	ctx context.Context,
	taskID string,
	recordedAt time.Time,
	keywords []domain.KeywordResult,
) (string, error) {
	if keywords == nil {
		keywords = []domain.KeywordResult{}
	}
	payload, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("marshaling keyword results: %w", err)
	}

	var id string
	if err := s.pool.QueryRow(ctx, queryAppendLog, taskID, recordedAt, payload).Scan(&id); err != nil {
		return "", fmt.Errorf("appending metrics log: %w", err)
	}
	return id, nil
}

// ListLogs returns the most recent log entries for a task, newest first.
func (s *PostgresStore) ListLogs(ctx context.Context, taskID string, limit int) ([]domain.MetricsLog, error) {
	rows, err := s.pool.Query(ctx, queryListLogs, taskID, logLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying metrics logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.MetricsLog
	for rows.Next() {
		var (
			l       domain.MetricsLog
			payload []byte
		)
		if err := rows.Scan(&l.ID, &l.TaskID, &l.RecordedAt, &payload); err != nil {
			return nil, fmt.Errorf("scanning metrics log: %w", err)
		}
		if err := json.Unmarshal(payload, &l.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keyword results: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// PruneLogs deletes log entries recorded more than olderThan ago.
func (s *PostgresStore) PruneLogs(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, queryPruneLogs, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("pruning metrics logs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertJobRun records the start of a scheduled job and returns its UUID.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *PostgresStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText, rowsAffected)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
func (s *PostgresStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, logLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// RecoverStaleJobRuns marks any 'running' job rows older than olderThan as 'crashed',
// then deletes all rows older than 30 days. Returns the number of rows marked as crashed.
func (s *PostgresStore) RecoverStaleJobRuns(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	now := time.Now()

	tag, err := s.pool.Exec(ctx, queryMarkStaleJobRunsCrashed, now.Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("marking stale job runs crashed: %w", err)
	}
	affected := int(tag.RowsAffected())

	if _, err := s.pool.Exec(ctx, queryDeleteOldJobRuns, now.Add(-jobRunRetention)); err != nil {
		return affected, fmt.Errorf("deleting old job runs: %w", err)
	}

	return affected, nil
}

// AcquireSchedulerLock attempts to acquire a distributed lock for the given job.
// Returns true if the lock was acquired, false if another holder already owns it.
func (s *PostgresStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	var gotName string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock, jobName, holder, time.Now().Add(ttl)).Scan(&gotName)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // lock held by another; conflict not replaced
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}

	return true, nil
}

// ReleaseSchedulerLock deletes the lock row for the given job and holder.
func (s *PostgresStore) ReleaseSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
) error {
	_, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder)
	if err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryTasks(ctx context.Context, sql string, args ...any) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// scanTask reads one row in baseTasksSelect column order.
func scanTask(row pgx.Row, t *domain.Task) error {
	var status string
	if err := row.Scan(
		&t.ID, &t.Name, &t.Owner, &t.Keywords, &status,
		&t.LastCheckedAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return err
	}
	t.Status = domain.TaskStatus(status)
	return nil
}

// scanJobRuns scans rows from a job_runs query into a slice.
func scanJobRuns(rows pgx.Rows) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
