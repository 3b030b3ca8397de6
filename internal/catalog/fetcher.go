package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

// Fetcher defaults.
const (
	DefaultDispatchDelay = 50 * time.Millisecond
	DefaultCallTimeout   = 5 * time.Second
)

// Fetcher issues catalog calls through a shared Pool. Every failure
// (timeout, non-2xx, transport, malformed body, exhausted quota) degrades
// to the neutral value for the call. The Fetcher never retries.
type Fetcher struct {
	client        CatalogClient
	pool          *Pool
	dispatchDelay time.Duration
	timeout       time.Duration
	log           *slog.Logger
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithDispatchDelay sets the minimum wait before each page fetch.
func WithDispatchDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.dispatchDelay = d
	}
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithFetcherLogger sets a custom logger.
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = l
	}
}

// NewFetcher creates a Fetcher over client that acquires slots from pool.
func NewFetcher(client CatalogClient, pool *Pool, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:        client,
		pool:          pool,
		dispatchDelay: DefaultDispatchDelay,
		timeout:       DefaultCallTimeout,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPage returns one page of search results, or an empty page on failure.
func (f *Fetcher) FetchPage(ctx context.Context, keyword string, offset, limit int) []Item {
	var items []Item
	err := f.pool.Do(ctx, func(ctx context.Context) error {
		if err := sleep(ctx, f.dispatchDelay); err != nil {
			return err
		}
		return f.call(ctx, opSearch, func(ctx context.Context) error {
			var err error
			items, err = f.client.Search(ctx, SearchRequest{Query: keyword, Limit: limit, Offset: offset})
			return err
		})
	})
	if err != nil {
		f.degrade(opSearch, err, "keyword", keyword, "offset", offset)
		return nil
	}
	return items
}

// FetchViewCount returns the view count for one item, or 0 on failure.
func (f *Fetcher) FetchViewCount(ctx context.Context, id string) int64 {
	var views int64
	err := f.pool.Do(ctx, func(ctx context.Context) error {
		return f.call(ctx, opViewCount, func(ctx context.Context) error {
			var err error
			views, err = f.client.ViewCount(ctx, id)
			return err
		})
	})
	if err != nil {
		f.degrade(opViewCount, err, "item_id", id)
		return 0
	}
	return max(views, 0)
}

// FetchTags returns related search terms, or none on failure.
func (f *Fetcher) FetchTags(ctx context.Context, term string, limit int) []Tag {
	var tags []Tag
	err := f.pool.Do(ctx, func(ctx context.Context) error {
		return f.call(ctx, opTags, func(ctx context.Context) error {
			var err error
			tags, err = f.client.SearchTags(ctx, term, limit)
			return err
		})
	})
	if err != nil {
		f.degrade(opTags, err, "term", term)
		return nil
	}
	return tags
}

func (f *Fetcher) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	metrics.CatalogCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}

func (f *Fetcher) degrade(op string, err error, attrs ...any) {
	reason := degradeReason(err)
	metrics.CatalogErrorsTotal.WithLabelValues(op, reason).Inc()
	f.log.Debug("catalog call degraded",
		append([]any{"op", op, "reason", reason, "error", err}, attrs...)...,
	)
}

func degradeReason(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrDailyLimitReached):
		return "quota"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrMalformedBody):
		return "decode"
	default:
		return "transport"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
