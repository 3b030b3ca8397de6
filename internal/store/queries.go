package store

// Task queries.
const (
	queryInsertTask = `
		INSERT INTO tasks (
			name, owner, keywords, status, last_checked_at, created_at, updated_at
		) VALUES (
			@name, @owner, @keywords, @status, now(), now(), now()
		)
		RETURNING id, last_checked_at, created_at, updated_at`

	queryGetTask = baseTasksSelect + `
		WHERE id = $1`

	queryListActiveTasks = baseTasksSelect + `
		WHERE status = 'active'
		ORDER BY created_at ASC`

	querySetTaskStatus = `
		UPDATE tasks SET
			status = $2,
			updated_at = now()
		WHERE id = $1`

	queryTouchTask = `
		UPDATE tasks SET last_checked_at = $2 WHERE id = $1`

	queryDeleteTask = `DELETE FROM tasks WHERE id = $1`
)

// Metrics log queries.
const (
	queryAppendLog = `
		INSERT INTO metrics_logs (task_id, recorded_at, keywords)
		VALUES ($1, $2, $3)
		RETURNING id`

	queryListLogs = `
		SELECT id, task_id, recorded_at, keywords
		FROM metrics_logs
		WHERE task_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	queryPruneLogs = `
		DELETE FROM metrics_logs WHERE recorded_at < $1`
)

// Scheduler queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (job_name)
		VALUES ($1)
		RETURNING id`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at  = now(),
			status        = $2,
			error_text    = $3,
			rows_affected = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		ORDER BY job_name, started_at DESC`

	queryMarkStaleJobRunsCrashed = `
		UPDATE job_runs SET
			status       = 'crashed',
			completed_at = now()
		WHERE status = 'running' AND started_at < $1`

	queryDeleteOldJobRuns = `
		DELETE FROM job_runs WHERE started_at < $1`

	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, lock_holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE
			SET locked_at   = now(),
				lock_holder = EXCLUDED.lock_holder,
				expires_at  = EXCLUDED.expires_at
			WHERE scheduler_locks.expires_at < now()
		RETURNING job_name`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks WHERE job_name = $1 AND lock_holder = $2`
)
