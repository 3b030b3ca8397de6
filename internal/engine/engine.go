package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/keyword-tracker/internal/catalog"
	"github.com/donaldgifford/keyword-tracker/internal/estimator"
	"github.com/donaldgifford/keyword-tracker/internal/metrics"
	"github.com/donaldgifford/keyword-tracker/internal/notify"
	"github.com/donaldgifford/keyword-tracker/internal/store"
	score "github.com/donaldgifford/keyword-tracker/pkg/scorer"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

const (
	defaultTaskConcurrency    = 4
	defaultKeywordConcurrency = 4
	defaultDiscoverLimit      = 20
	tagFanout                 = 2
)

var (
	// ErrEmptyKeyword is returned when a keyword is blank after trimming.
	ErrEmptyKeyword = errors.New("empty keyword")
	// ErrNoKeywords is returned for a task whose keyword list is empty.
	ErrNoKeywords = errors.New("task has no keywords")
)

// Sampler produces a raw estimate for one keyword. It never fails; a
// canceled context shows up as StoppedAt == estimator.StopCanceled.
type Sampler interface {
	Estimate(ctx context.Context, keyword string) estimator.Result
}

// TagSource suggests related keywords for discovery.
type TagSource interface {
	FetchTags(ctx context.Context, term string, limit int) []catalog.Tag
}

// RetryPolicy bounds EstimateWithRetry.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns 3 attempts backing off from 1s to at most 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     5 * time.Second,
	}
}

// Engine turns keywords into scored metrics and runs batches over the
// active task set.
type Engine struct {
	store    store.Store
	sampler  Sampler
	tags     TagSource
	notifier notify.Notifier
	log      *slog.Logger
	tracer   trace.Tracer

	weights            score.Weights
	retry              RetryPolicy
	taskConcurrency    int
	keywordConcurrency int
	now                func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	sampler Sampler,
	tags TagSource,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:              s,
		sampler:            sampler,
		tags:               tags,
		notifier:           n,
		log:                slog.Default(),
		tracer:             otel.Tracer("github.com/donaldgifford/keyword-tracker/internal/engine"),
		weights:            score.DefaultWeights(),
		retry:              DefaultRetryPolicy(),
		taskConcurrency:    defaultTaskConcurrency,
		keywordConcurrency: defaultKeywordConcurrency,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithWeights overrides the difficulty weights.
func WithWeights(w score.Weights) EngineOption {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithRetryPolicy overrides the EstimateWithRetry policy.
func WithRetryPolicy(p RetryPolicy) EngineOption {
	return func(e *Engine) {
		e.retry = p
	}
}

// WithTaskConcurrency sets how many tasks a batch processes at once.
func WithTaskConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.taskConcurrency = n
		}
	}
}

// WithKeywordConcurrency sets how many keywords of one task or cohort are
// estimated at once. The fetch pool still caps catalog calls globally.
func WithKeywordConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.keywordConcurrency = n
		}
	}
}

// EstimateOne estimates and scores a single keyword. Trend is never set.
func (eng *Engine) EstimateOne(ctx context.Context, keyword string) (*domain.KeywordMetrics, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	res, err := eng.measure(ctx, keyword)
	if err != nil {
		return nil, err
	}

	m := eng.score(res, nil)
	return &m, nil
}

// EstimateWithRetry wraps EstimateOne in a jittered exponential backoff.
// ErrEmptyKeyword is not retried.
func (eng *Engine) EstimateWithRetry(ctx context.Context, keyword string) (*domain.KeywordMetrics, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = eng.retry.InitialInterval
	b.MaxInterval = eng.retry.MaxInterval

	attempts := max(eng.retry.MaxAttempts, 1)

	return backoff.Retry(ctx, func() (*domain.KeywordMetrics, error) {
		m, err := eng.EstimateOne(ctx, keyword)
		if errors.Is(err, ErrEmptyKeyword) {
			return nil, backoff.Permanent(err)
		}
		return m, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.EstimationRetriesTotal.Inc()
			eng.log.Warn("estimate failed, retrying",
				"keyword", keyword,
				"error", err,
				"next_attempt_in", next,
			)
		}),
	)
}

// EstimateCohort estimates keywords concurrently and scores each against the
// cohort's mean estimated views. Keywords are trimmed and de-duplicated
// case-insensitively, keeping the first spelling. A keyword that fails is
// reported in its result and excluded from the baseline.
func (eng *Engine) EstimateCohort(ctx context.Context, keywords []string) ([]domain.KeywordResult, error) {
	kws := dedupeKeywords(keywords)
	if len(kws) == 0 {
		return nil, ErrEmptyKeyword
	}

	ctx, span := eng.tracer.Start(ctx, "engine.EstimateCohort",
		trace.WithAttributes(attribute.Int("keywords", len(kws))),
	)
	defer span.End()

	raw, errs := eng.measureAll(ctx, kws)

	var views []int64
	for i := range raw {
		if errs[i] == nil {
			views = append(views, raw[i].EstimatedViews)
		}
	}
	baseline := score.Mean(views)

	results := make([]domain.KeywordResult, len(kws))
	for i, kw := range kws {
		results[i] = eng.result(kw, raw[i], errs[i], &baseline)
	}
	return results, nil
}

// Discover expands a seed phrase into related keywords via catalog tags and
// estimates them as a cohort. A tag is kept when every seed term matches one
// of its words, either word containing the other. When no tags come back
// the result is empty; when tags come back but none match, the seed itself
// is estimated.
func (eng *Engine) Discover(ctx context.Context, seed string, limit int) ([]domain.KeywordResult, error) {
	seed = strings.TrimSpace(seed)
	terms := strings.Fields(strings.ToLower(seed))
	if len(terms) == 0 {
		return nil, ErrEmptyKeyword
	}
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}

	tags := eng.tags.FetchTags(ctx, terms[0], limit*tagFanout)
	if len(tags) == 0 {
		eng.log.Debug("no tags for seed", "seed", seed)
		return []domain.KeywordResult{}, nil
	}

	var candidates []string
	for _, tag := range tags {
		if matchesTerms(tag.Name, terms) {
			candidates = append(candidates, tag.Name)
		}
		if len(candidates) == limit {
			break
		}
	}
	if len(candidates) == 0 {
		candidates = []string{seed}
	}

	eng.log.Debug("discovery candidates", "seed", seed, "count", len(candidates))
	return eng.EstimateCohort(ctx, candidates)
}

// RunBatch processes every active task once. The active set is read once up
// front and a failure to read it is the only error returned; any other
// failure is confined to its task's outcome. Outcomes follow task order.
func (eng *Engine) RunBatch(ctx context.Context) ([]domain.TaskOutcome, error) {
	ctx, span := eng.tracer.Start(ctx, "engine.RunBatch")
	defer span.End()

	startedAt := eng.now()
	start := time.Now()
	metrics.BatchRunsTotal.Inc()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	tasks, err := eng.store.ListActiveTasks(ctx)
	if err != nil {
		metrics.BatchRunErrorsTotal.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing active tasks")
		return nil, fmt.Errorf("listing active tasks: %w", err)
	}

	eng.log.Info("batch run starting", "tasks", len(tasks))

	outcomes := make([]domain.TaskOutcome, len(tasks))

	var g errgroup.Group
	g.SetLimit(eng.taskConcurrency)
	for i := range tasks {
		g.Go(func() error {
			outcomes[i] = eng.processTask(ctx, &tasks[i])
			return nil
		})
	}
	_ = g.Wait() // processTask never fails

	summary := summarize(startedAt, time.Since(start), outcomes)
	span.SetAttributes(
		attribute.Int("tasks", summary.Tasks),
		attribute.Int("succeeded", summary.Succeeded),
	)
	eng.log.Info("batch run complete",
		"tasks", summary.Tasks,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed(),
		"keyword_errors", summary.KeywordErrors,
		"duration", summary.Duration,
	)

	if err := eng.notifier.SendRunSummary(ctx, summary); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		eng.log.Error("failed to send run summary", "error", err)
	}

	return outcomes, nil
}

// RunTask processes a single task on demand, regardless of its status.
func (eng *Engine) RunTask(ctx context.Context, taskID string) (*domain.MetricsLog, error) {
	t, err := eng.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return eng.runTask(ctx, t)
}

func (eng *Engine) processTask(ctx context.Context, t *domain.Task) (out domain.TaskOutcome) {
	out = domain.TaskOutcome{TaskID: t.ID, TaskName: t.Name}

	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Error = fmt.Sprintf("panic: %v", r)
			eng.log.Error("task panicked", "task", t.Name, "id", t.ID, "panic", r)
		}
		result := "failed"
		if out.Success {
			result = "succeeded"
		}
		metrics.BatchTasksTotal.WithLabelValues(result).Inc()
	}()

	entry, err := eng.runTask(ctx, t)
	if err != nil {
		out.Error = err.Error()
		eng.log.Error("task failed", "task", t.Name, "id", t.ID, "error", err)
		return out
	}

	out.Success = true
	out.LogID = entry.ID
	for i := range entry.Keywords {
		if entry.Keywords[i].Failed() {
			out.KeywordErrors++
		}
	}
	return out
}

func (eng *Engine) runTask(ctx context.Context, t *domain.Task) (*domain.MetricsLog, error) {
	ctx, span := eng.tracer.Start(ctx, "engine.runTask",
		trace.WithAttributes(attribute.String("task.id", t.ID)),
	)
	defer span.End()

	kws := t.KeywordList()
	if len(kws) == 0 {
		return nil, ErrNoKeywords
	}

	raw, errs := eng.measureAll(ctx, kws)

	results := make([]domain.KeywordResult, len(kws))
	for i, kw := range kws {
		results[i] = eng.result(kw, raw[i], errs[i], nil)
	}

	recordedAt := eng.now()
	id, err := eng.store.AppendLog(ctx, t.ID, recordedAt, results)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "appending metrics log")
		return nil, fmt.Errorf("appending metrics log: %w", err)
	}
	metrics.MetricsLogsWrittenTotal.Inc()

	// The log is already written; a stale last_checked_at is not a task failure.
	if err := eng.store.TouchTask(ctx, t.ID, recordedAt); err != nil {
		eng.log.Warn("failed to update task last_checked_at", "task", t.Name, "error", err)
	}

	eng.log.Info("task logged", "task", t.Name, "id", t.ID, "log_id", id, "keywords", len(results))

	return &domain.MetricsLog{
		ID:         id,
		TaskID:     t.ID,
		RecordedAt: recordedAt,
		Keywords:   results,
	}, nil
}

// measureAll estimates keywords with bounded concurrency, preserving order.
func (eng *Engine) measureAll(ctx context.Context, kws []string) ([]estimator.Result, []error) {
	raw := make([]estimator.Result, len(kws))
	errs := make([]error, len(kws))

	var g errgroup.Group
	g.SetLimit(eng.keywordConcurrency)
	for i, kw := range kws {
		g.Go(func() error {
			raw[i], errs[i] = eng.measure(ctx, kw)
			return nil
		})
	}
	_ = g.Wait()

	return raw, errs
}

// measure runs the sampler for one keyword, converting a panic or a
// canceled context into an error.
func (eng *Engine) measure(ctx context.Context, keyword string) (res estimator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("estimating %q: panic: %v", keyword, r)
		}
	}()

	res = eng.sampler.Estimate(ctx, keyword)
	if res.StoppedAt == estimator.StopCanceled {
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return res, fmt.Errorf("estimating %q: %w", keyword, cause)
	}
	return res, nil
}

func (eng *Engine) result(kw string, res estimator.Result, err error, baseline *float64) domain.KeywordResult {
	if err != nil {
		metrics.KeywordFailuresTotal.Inc()
		eng.log.Warn("keyword estimation failed", "keyword", kw, "error", err)
		return domain.KeywordResult{Keyword: kw, Error: err.Error()}
	}
	return domain.KeywordResult{Keyword: kw, Metrics: eng.score(res, baseline)}
}

func (eng *Engine) score(res estimator.Result, baseline *float64) domain.KeywordMetrics {
	m := score.ScoreWeighted(score.Input{
		EstimatedViews: res.EstimatedViews,
		TotalItemCount: res.TotalItemCount,
		Baseline:       baseline,
	}, eng.weights)
	metrics.DifficultyDistribution.Observe(float64(m.Difficulty))
	return m
}

func summarize(start time.Time, d time.Duration, outcomes []domain.TaskOutcome) *notify.RunSummary {
	s := &notify.RunSummary{
		StartedAt: start,
		Duration:  d,
		Tasks:     len(outcomes),
	}
	for _, o := range outcomes {
		s.KeywordErrors += o.KeywordErrors
		if o.Success {
			s.Succeeded++
			continue
		}
		s.Failures = append(s.Failures, o)
	}
	return s
}

func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// matchesTerms reports whether every term matches some word of name, where
// a match means either string contains the other. Terms must be lowercase.
func matchesTerms(name string, terms []string) bool {
	words := strings.Fields(strings.ToLower(name))
	for _, term := range terms {
		if !slices.ContainsFunc(words, func(w string) bool {
			return strings.Contains(w, term) || strings.Contains(term, w)
		}) {
			return false
		}
	}
	return true
}
