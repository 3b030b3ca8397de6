package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// Collection names.
const (
	collTasks   = "tasks"
	collLogs    = "metrics_logs"
	collJobRuns = "job_runs"
	collLocks   = "scheduler_locks"
)

// MongoStore implements Store on MongoDB. Documents use string UUIDs as
// _id so IDs look the same regardless of backend.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to uri and uses the named database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(database),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Migrate creates the indexes the queries rely on. Collections are created
// implicitly on first write.
func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collTasks: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		collLogs: {
			{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "recorded_at", Value: -1}}},
			{Keys: bson.D{{Key: "recorded_at", Value: 1}}},
		},
		collJobRuns: {
			{Keys: bson.D{{Key: "job_name", Value: 1}, {Key: "started_at", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", coll, err)
		}
	}
	return nil
}

// CreateTask inserts a new task, assigning its ID and timestamps.
// LastCheckedAt starts at the creation time.
func (s *MongoStore) CreateTask(ctx context.Context, t *domain.Task) error {
	now := s.now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.LastCheckedAt = &now
	if t.Status == "" {
		t.Status = domain.TaskActive
	}

	if _, err := s.db.Collection(collTasks).InsertOne(ctx, t); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// GetTask returns a task by ID.
func (s *MongoStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := s.db.Collection(collTasks).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return &t, nil
}

// ListTasks returns tasks matching q, newest first.
func (s *MongoStore) ListTasks(ctx context.Context, q *TaskQuery) ([]domain.Task, error) {
	if q == nil {
		q = &TaskQuery{}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(q.limit())).
		SetSkip(int64(max(q.Offset, 0)))

	return s.findTasks(ctx, taskFilter(q), opts)
}

// ListActiveTasks returns every active task, oldest first.
func (s *MongoStore) ListActiveTasks(ctx context.Context) ([]domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return s.findTasks(ctx, bson.D{{Key: "status", Value: string(domain.TaskActive)}}, opts)
}

// SetTaskStatus pauses or resumes a task.
func (s *MongoStore) SetTaskStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	res, err := s.db.Collection(collTasks).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status), "updated_at": s.now()}},
	)
	if err != nil {
		return fmt.Errorf("setting task status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// TouchTask records when a task was last processed.
func (s *MongoStore) TouchTask(ctx context.Context, id string, checkedAt time.Time) error {
	_, err := s.db.Collection(collTasks).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_checked_at": checkedAt}},
	)
	if err != nil {
		return fmt.Errorf("updating task last_checked_at: %w", err)
	}
	return nil
}

// DeleteTask removes a task and its logs.
func (s *MongoStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.Collection(collTasks).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	if _, err := s.db.Collection(collLogs).DeleteMany(ctx, bson.M{"task_id": id}); err != nil {
		return fmt.Errorf("deleting task logs: %w", err)
	}
	return nil
}

// AppendLog writes one metrics log entry and returns its ID.
func (s *MongoStore) AppendLog(
	ctx context.Context,
	taskID string,
	recordedAt time.Time,
	keywords []domain.KeywordResult,
) (string, error) {
	if keywords == nil {
		keywords = []domain.KeywordResult{}
	}
	entry := domain.MetricsLog{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		RecordedAt: recordedAt,
		Keywords:   keywords,
	}

	if _, err := s.db.Collection(collLogs).InsertOne(ctx, entry); err != nil {
		return "", fmt.Errorf("appending metrics log: %w", err)
	}
	return entry.ID, nil
}

// ListLogs returns the most recent log entries for a task, newest first.
func (s *MongoStore) ListLogs(ctx context.Context, taskID string, limit int) ([]domain.MetricsLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(int64(logLimit(limit)))

	cur, err := s.db.Collection(collLogs).Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying metrics logs: %w", err)
	}

	var logs []domain.MetricsLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decoding metrics logs: %w", err)
	}
	return logs, nil
}

// PruneLogs deletes log entries recorded more than olderThan ago.
func (s *MongoStore) PruneLogs(ctx context.Context, olderThan time.Duration) (int, error) {
	res, err := s.db.Collection(collLogs).DeleteMany(ctx,
		bson.M{"recorded_at": bson.M{"$lt": s.now().Add(-olderThan)}},
	)
	if err != nil {
		return 0, fmt.Errorf("pruning metrics logs: %w", err)
	}
	return int(res.DeletedCount), nil
}

// InsertJobRun records the start of a scheduled job and returns its ID.
func (s *MongoStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	run := domain.JobRun{
		ID:        uuid.NewString(),
		JobName:   jobName,
		StartedAt: s.now(),
		Status:    JobRunning,
	}
	if _, err := s.db.Collection(collJobRuns).InsertOne(ctx, run); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return run.ID, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *MongoStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.db.Collection(collJobRuns).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"completed_at":  s.now(),
			"status":        status,
			"error_text":    errText,
			"rows_affected": rowsAffected,
		}},
	)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
func (s *MongoStore) ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(logLimit(limit)))

	cur, err := s.db.Collection(collJobRuns).Find(ctx, bson.M{"job_name": jobName}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}

	var runs []domain.JobRun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decoding job runs: %w", err)
	}
	return runs, nil
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *MongoStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	cur, err := s.db.Collection(collJobRuns).Aggregate(ctx, latestJobRunsPipeline())
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}

	var runs []domain.JobRun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decoding job runs: %w", err)
	}
	return runs, nil
}

// RecoverStaleJobRuns marks running rows older than olderThan as crashed,
// then drops rows past the retention window.
func (s *MongoStore) RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	coll := s.db.Collection(collJobRuns)

	res, err := coll.UpdateMany(ctx,
		bson.M{"status": JobRunning, "started_at": bson.M{"$lt": now.Add(-olderThan)}},
		bson.M{"$set": bson.M{"status": JobCrashed, "completed_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("marking stale job runs crashed: %w", err)
	}
	affected := int(res.ModifiedCount)

	if _, err := coll.DeleteMany(ctx, bson.M{"started_at": bson.M{"$lt": now.Add(-jobRunRetention)}}); err != nil {
		return affected, fmt.Errorf("deleting old job runs: %w", err)
	}
	return affected, nil
}

// AcquireSchedulerLock takes the lock for jobName when it is absent or
// expired. An unexpired lock makes the upsert collide on _id, which reports
// the lock as held.
func (s *MongoStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	now := s.now()
	_, err := s.db.Collection(collLocks).UpdateOne(ctx,
		lockFilter(jobName, now),
		bson.M{"$set": bson.M{
			"lock_holder": holder,
			"locked_at":   now,
			"expires_at":  now.Add(ttl),
		}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}
	return true, nil
}

// ReleaseSchedulerLock deletes the lock for jobName if holder owns it.
func (s *MongoStore) ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error {
	_, err := s.db.Collection(collLocks).DeleteOne(ctx, bson.M{"_id": jobName, "lock_holder": holder})
	if err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

func (s *MongoStore) findTasks(ctx context.Context, filter any, opts *options.FindOptions) ([]domain.Task, error) {
	cur, err := s.db.Collection(collTasks).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	var tasks []domain.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	return tasks, nil
}

// taskFilter mirrors TaskQuery.ToSQL for Mongo.
func taskFilter(q *TaskQuery) bson.D {
	filter := bson.D{}
	if q.Status != nil {
		filter = append(filter, bson.E{Key: "status", Value: string(*q.Status)})
	}
	if q.Owner != nil {
		filter = append(filter, bson.E{Key: "owner", Value: *q.Owner})
	}
	return filter
}

func lockFilter(jobName string, now time.Time) bson.M {
	return bson.M{"_id": jobName, "expires_at": bson.M{"$lt": now}}
}

func latestJobRunsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "job_name", Value: 1}, {Key: "started_at", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$job_name"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "job_name", Value: 1}}}},
	}
}
