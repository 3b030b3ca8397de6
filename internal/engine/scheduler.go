package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
	"github.com/donaldgifford/keyword-tracker/internal/store"
)

// Job names recorded in job_runs and used as lock keys.
const (
	JobBatch        = "batch"
	JobLogRetention = "log_retention"
)

const (
	batchLockTTL     = 2 * time.Hour
	retentionLockTTL = 10 * time.Minute
	staleJobAge      = 2 * time.Hour
)

// Scheduler runs the batch and log retention jobs on fixed intervals. Every
// run takes a store-backed lock so only one replica executes a job at a time.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	store  store.Store
	log    *slog.Logger
	holder string

	logRetention time.Duration

	batchEntryID     cron.EntryID
	retentionEntryID cron.EntryID
}

// NewScheduler registers the batch job every batchInterval and, when
// retentionInterval is positive, a job pruning logs older than logRetention.
func NewScheduler(
	eng *Engine,
	s store.Store,
	batchInterval time.Duration,
	retentionInterval time.Duration,
	logRetention time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if batchInterval <= 0 {
		return nil, fmt.Errorf("scheduling batch job: interval must be positive, got %s", batchInterval)
	}

	cl := cronLogger{log: log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))

	sched := &Scheduler{
		cron:         c,
		engine:       eng,
		store:        s,
		log:          log,
		holder:       lockHolder(),
		logRetention: logRetention,
	}

	var err error
	sched.batchEntryID, err = c.AddFunc("@every "+batchInterval.String(), sched.runBatch)
	if err != nil {
		return nil, fmt.Errorf("scheduling batch job: %w", err)
	}

	if retentionInterval > 0 && logRetention > 0 {
		sched.retentionEntryID, err = c.AddFunc("@every "+retentionInterval.String(), sched.runRetention)
		if err != nil {
			return nil, fmt.Errorf("scheduling log retention job: %w", err)
		}
	}

	return sched, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "holder", s.holder)
	s.cron.Start()
	s.SyncNextRunTimestamps()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// SyncNextRunTimestamps exports each job's next run time as a gauge.
func (s *Scheduler) SyncNextRunTimestamps() {
	if e := s.cron.Entry(s.batchEntryID); !e.Next.IsZero() {
		metrics.SchedulerNextBatchTimestamp.Set(float64(e.Next.Unix()))
	}
	if s.retentionEntryID == 0 {
		return
	}
	if e := s.cron.Entry(s.retentionEntryID); !e.Next.IsZero() {
		metrics.SchedulerNextRetentionTimestamp.Set(float64(e.Next.Unix()))
	}
}

// RecoverStaleJobRuns marks runs left 'running' by a crashed process.
func (s *Scheduler) RecoverStaleJobRuns(ctx context.Context) {
	n, err := s.store.RecoverStaleJobRuns(ctx, staleJobAge)
	if err != nil {
		s.log.Error("recovering stale job runs", "error", err)
		return
	}
	if n > 0 {
		s.log.Warn("marked stale job runs as crashed", "count", n)
	}
}

func (s *Scheduler) runBatch() {
	defer s.SyncNextRunTimestamps()

	err := s.runJob(context.Background(), JobBatch, batchLockTTL, func(ctx context.Context) (int, error) {
		outcomes, err := s.engine.RunBatch(ctx)
		if err != nil {
			return 0, err
		}
		logged := 0
		for _, o := range outcomes {
			if o.Success {
				logged++
			}
		}
		return logged, nil
	})
	if err != nil {
		s.log.Error("scheduled batch failed", "error", err)
	}
}

func (s *Scheduler) runRetention() {
	defer s.SyncNextRunTimestamps()

	err := s.runJob(context.Background(), JobLogRetention, retentionLockTTL, func(ctx context.Context) (int, error) {
		n, err := s.store.PruneLogs(ctx, s.logRetention)
		if err != nil {
			return 0, err
		}
		metrics.LogsPrunedTotal.Add(float64(n))
		s.log.Info("pruned metrics logs", "count", n, "older_than", s.logRetention)
		return n, nil
	})
	if err != nil {
		s.log.Error("scheduled log retention failed", "error", err)
	}
}

// runJob executes fn under the job's lock and records it in job_runs. A lock
// held by another replica skips the run without error.
func (s *Scheduler) runJob(
	ctx context.Context,
	name string,
	ttl time.Duration,
	fn func(ctx context.Context) (int, error),
) error {
	acquired, err := s.store.AcquireSchedulerLock(ctx, name, s.holder, ttl)
	if err != nil {
		return fmt.Errorf("acquiring %s lock: %w", name, err)
	}
	if !acquired {
		metrics.SchedulerJobsSkippedTotal.WithLabelValues(name).Inc()
		s.log.Info("job skipped, lock held by another instance", "job", name)
		return nil
	}
	defer func() {
		if err := s.store.ReleaseSchedulerLock(context.WithoutCancel(ctx), name, s.holder); err != nil {
			s.log.Error("releasing scheduler lock", "job", name, "error", err)
		}
	}()

	runID, err := s.store.InsertJobRun(ctx, name)
	if err != nil {
		return fmt.Errorf("recording %s start: %w", name, err)
	}

	s.log.Info("job starting", "job", name, "run_id", runID)
	rows, jobErr := fn(ctx)

	status, errText := store.JobSucceeded, ""
	if jobErr != nil {
		status, errText = store.JobFailed, jobErr.Error()
	}
	if err := s.store.CompleteJobRun(context.WithoutCancel(ctx), runID, status, errText, rows); err != nil {
		s.log.Error("recording job completion", "job", name, "run_id", runID, "error", err)
	}

	return jobErr
}

func lockHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
