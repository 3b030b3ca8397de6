// Package estimator extrapolates whole-keyword view volume from a small
// per-page sample of catalog search results.
package estimator

import (
	"context"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/keyword-tracker/internal/catalog"
	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

const (
	defaultPageSize   = 50
	defaultScanCap    = 500
	defaultSampleSize = 3
)

// Stop reasons reported in Result.StoppedAt.
const (
	StopEmptyPage = "empty_page"
	StopScanCap   = "scan_cap"
	StopCanceled  = "canceled"
)

// PageFetcher is the subset of catalog.Fetcher the estimator needs. Both
// calls degrade to a neutral value instead of failing.
type PageFetcher interface {
	FetchPage(ctx context.Context, keyword string, offset, limit int) []catalog.Item
	FetchViewCount(ctx context.Context, id string) int64
}

// Estimator pages through search results for a keyword and samples a
// prefix of each page for view counts.
type Estimator struct {
	fetcher    PageFetcher
	pageSize   int
	scanCap    int
	sampleSize int
	log        *slog.Logger
	tracer     trace.Tracer
}

// Option configures the Estimator.
type Option func(*Estimator)

// WithPageSize overrides the search page size.
func WithPageSize(n int) Option {
	return func(e *Estimator) {
		e.pageSize = n
	}
}

// WithScanCap overrides the maximum number of items counted per keyword.
func WithScanCap(n int) Option {
	return func(e *Estimator) {
		e.scanCap = n
	}
}

// WithSampleSize overrides the number of items sampled per page.
func WithSampleSize(n int) Option {
	return func(e *Estimator) {
		e.sampleSize = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) {
		e.log = l
	}
}

// New creates an Estimator. Non-positive sizes fall back to the defaults.
func New(f PageFetcher, opts ...Option) *Estimator {
	e := &Estimator{
		fetcher:    f,
		pageSize:   defaultPageSize,
		scanCap:    defaultScanCap,
		sampleSize: defaultSampleSize,
		log:        slog.Default(),
		tracer:     otel.Tracer("github.com/donaldgifford/keyword-tracker/internal/estimator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pageSize <= 0 {
		e.pageSize = defaultPageSize
	}
	if e.scanCap <= 0 {
		e.scanCap = defaultScanCap
	}
	if e.sampleSize <= 0 {
		e.sampleSize = defaultSampleSize
	}
	return e
}

// Result holds the outcome of one keyword estimation.
type Result struct {
	Keyword        string `json:"keyword"`
	EstimatedViews int64  `json:"estimated_views"`
	TotalItemCount int    `json:"total_item_count"`
	SampledItems   int    `json:"sampled_items"`
	SampledViewSum int64  `json:"sampled_view_sum"`
	PagesFetched   int    `json:"pages_fetched"`
	StoppedAt      string `json:"stopped_at"`
}

// Estimate scans pages sequentially until the scan cap is reached or a page
// comes back empty, then extrapolates the sampled mean over every item
// counted. It never fails: upstream errors shrink the sample instead.
func (e *Estimator) Estimate(ctx context.Context, keyword string) Result {
	ctx, span := e.tracer.Start(ctx, "estimator.Estimate",
		trace.WithAttributes(attribute.String("keyword", keyword)),
	)
	defer span.End()

	start := time.Now()
	res := Result{Keyword: keyword}

	for cursor := 0; res.TotalItemCount < e.scanCap; cursor += e.pageSize {
		if ctx.Err() != nil {
			res.StoppedAt = StopCanceled
			break
		}

		page := e.fetcher.FetchPage(ctx, keyword, cursor, e.pageSize)
		res.PagesFetched++

		if len(page) == 0 {
			res.StoppedAt = StopEmptyPage
			if ctx.Err() != nil {
				res.StoppedAt = StopCanceled
			}
			break
		}

		// Only count up to the cap, even if the catalog over-delivers.
		counted := min(len(page), e.scanCap-res.TotalItemCount)
		res.TotalItemCount += counted

		for _, v := range e.sample(ctx, page[:min(counted, e.sampleSize)]) {
			res.SampledViewSum += v
			res.SampledItems++
		}
	}
	if res.StoppedAt == "" {
		res.StoppedAt = StopScanCap
	}

	res.EstimatedViews = extrapolate(res.SampledViewSum, res.SampledItems, res.TotalItemCount)

	metrics.EstimationDuration.Observe(time.Since(start).Seconds())
	metrics.EstimationPagesFetched.Observe(float64(res.PagesFetched))
	metrics.EstimationsTotal.WithLabelValues(res.StoppedAt).Inc()

	span.SetAttributes(
		attribute.Int64("estimated_views", res.EstimatedViews),
		attribute.Int("total_item_count", res.TotalItemCount),
		attribute.Int("pages_fetched", res.PagesFetched),
		attribute.String("stopped_at", res.StoppedAt),
	)

	e.log.Debug("keyword estimated",
		"keyword", keyword,
		"estimated_views", res.EstimatedViews,
		"total_items", res.TotalItemCount,
		"sampled", res.SampledItems,
		"pages", res.PagesFetched,
		"stopped_at", res.StoppedAt,
		"duration", time.Since(start),
	)

	return res
}

// sample fetches view counts for items concurrently. The shared fetch pool
// bounds how many actually run at once.
func (e *Estimator) sample(ctx context.Context, items []catalog.Item) []int64 {
	views := make([]int64, len(items))

	var g errgroup.Group
	for i := range items {
		g.Go(func() error {
			views[i] = e.fetcher.FetchViewCount(ctx, items[i].ID)
			return nil
		})
	}
	_ = g.Wait() // FetchViewCount never fails

	return views
}

// extrapolate scales the sampled mean to the whole counted population.
func extrapolate(sum int64, sampled, total int) int64 {
	if sampled == 0 {
		return 0
	}
	return int64(math.Round(float64(sum) / float64(sampled) * float64(total)))
}
