package estimator_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/keyword-tracker/internal/catalog"
	"github.com/donaldgifford/keyword-tracker/internal/estimator"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCatalog serves total items for every keyword and a fixed view count
// per item id.
type fakeCatalog struct {
	total int
	views map[string]int64
	// overDeliver adds extra items beyond the requested limit.
	overDeliver int

	mu             sync.Mutex
	pageCalls      int
	viewCalls      int
	viewsPerOffset map[int]int
	lastOffset     int
}

func (f *fakeCatalog) FetchPage(_ context.Context, _ string, offset, limit int) []catalog.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++
	f.lastOffset = offset

	n := limit + f.overDeliver
	var items []catalog.Item
	for i := offset; i < f.total && len(items) < n; i++ {
		items = append(items, catalog.Item{ID: "item-" + strconv.Itoa(i)})
	}
	return items
}

func (f *fakeCatalog) FetchViewCount(_ context.Context, id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewCalls++
	if f.viewsPerOffset == nil {
		f.viewsPerOffset = map[int]int{}
	}
	f.viewsPerOffset[f.lastOffset]++
	return f.views[id]
}

func TestEstimate_WorkedExample(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{
		total: 50,
		views: map[string]int64{"item-0": 100, "item-1": 200, "item-2": 300},
	}
	e := estimator.New(fc, estimator.WithLogger(quietLogger()))

	res := e.Estimate(context.Background(), "funny cat")

	assert.Equal(t, int64(10000), res.EstimatedViews)
	assert.Equal(t, 50, res.TotalItemCount)
	assert.Equal(t, 3, res.SampledItems)
	assert.Equal(t, int64(600), res.SampledViewSum)
	assert.Equal(t, 2, res.PagesFetched, "second page comes back empty")
	assert.Equal(t, estimator.StopEmptyPage, res.StoppedAt)
}

func TestEstimate_NoResults(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{total: 0}
	e := estimator.New(fc, estimator.WithLogger(quietLogger()))

	res := e.Estimate(context.Background(), "zzzz no hits")

	assert.Zero(t, res.EstimatedViews)
	assert.Zero(t, res.TotalItemCount)
	assert.Equal(t, 1, res.PagesFetched)
	assert.Zero(t, fc.viewCalls)
	assert.Equal(t, estimator.StopEmptyPage, res.StoppedAt)
}

func TestEstimate_ScanCap(t *testing.T) {
	t.Parallel()

	views := map[string]int64{}
	for i := range 10_000 {
		views["item-"+strconv.Itoa(i)] = 10
	}
	fc := &fakeCatalog{total: 10_000, views: views}
	e := estimator.New(fc, estimator.WithLogger(quietLogger()))

	res := e.Estimate(context.Background(), "cats")

	assert.Equal(t, 500, res.TotalItemCount)
	assert.Equal(t, 10, res.PagesFetched, "500 cap / 50 per page")
	assert.Equal(t, 30, fc.viewCalls)
	assert.Equal(t, int64(5000), res.EstimatedViews)
	assert.Equal(t, estimator.StopScanCap, res.StoppedAt)
	for offset, n := range fc.viewsPerOffset {
		assert.LessOrEqual(t, n, 3, "offset %d sampled too many items", offset)
	}
}

func TestEstimate_CapNotMultipleOfPageSize(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{total: 1000, views: map[string]int64{}}
	e := estimator.New(fc,
		estimator.WithScanCap(120),
		estimator.WithPageSize(50),
		estimator.WithLogger(quietLogger()),
	)

	res := e.Estimate(context.Background(), "cats")

	assert.Equal(t, 120, res.TotalItemCount)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, estimator.StopScanCap, res.StoppedAt)
}

func TestEstimate_OverDeliveringPageIsTruncated(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{total: 1000, overDeliver: 25, views: map[string]int64{}}
	e := estimator.New(fc,
		estimator.WithScanCap(60),
		estimator.WithPageSize(50),
		estimator.WithLogger(quietLogger()),
	)

	res := e.Estimate(context.Background(), "cats")

	assert.Equal(t, 60, res.TotalItemCount)
	assert.Equal(t, 1, res.PagesFetched)
}

func TestEstimate_SmallPagesSampleWhatExists(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{
		total: 2,
		views: map[string]int64{"item-0": 40, "item-1": 60},
	}
	e := estimator.New(fc, estimator.WithSampleSize(5), estimator.WithLogger(quietLogger()))

	res := e.Estimate(context.Background(), "rare")

	assert.Equal(t, 2, res.SampledItems)
	assert.Equal(t, int64(100), res.EstimatedViews)
}

func TestEstimate_ZeroViewSamples(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{total: 30, views: map[string]int64{}}
	e := estimator.New(fc, estimator.WithLogger(quietLogger()))

	res := e.Estimate(context.Background(), "cats")

	assert.Equal(t, 30, res.TotalItemCount)
	assert.Equal(t, 3, res.SampledItems)
	assert.Zero(t, res.EstimatedViews)
}

func TestEstimate_Canceled(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{total: 500, views: map[string]int64{}}
	e := estimator.New(fc, estimator.WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Estimate(ctx, "cats")
	assert.Equal(t, estimator.StopCanceled, res.StoppedAt)
	assert.Zero(t, fc.pageCalls)
}

func TestEstimate_NonPositiveOptionsUseDefaults(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{total: 10_000, views: map[string]int64{}}
	e := estimator.New(fc,
		estimator.WithPageSize(0),
		estimator.WithScanCap(-1),
		estimator.WithSampleSize(0),
		estimator.WithLogger(quietLogger()),
	)

	res := e.Estimate(context.Background(), "cats")
	assert.Equal(t, 500, res.TotalItemCount)
	assert.Equal(t, 10, res.PagesFetched)
	assert.Equal(t, 30, res.SampledItems)
}

// TestEstimate_ThroughFetcher runs the estimator over the real HTTP client
// and a single-slot pool to check that upstream failures only shrink the
// sample and that the pool bound holds.
func TestEstimate_ThroughFetcher(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}

		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("offset") != "0" {
				_, _ = w.Write([]byte(`{"data": []}`))
				return
			}
			_, _ = w.Write([]byte(`{"data": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}]}`))
		case "/items/a/view-count":
			_, _ = w.Write([]byte(`{"viewCount": 100}`))
		case "/items/b/view-count":
			w.WriteHeader(http.StatusInternalServerError)
		case "/items/c/view-count":
			_, _ = w.Write([]byte(`{"viewCount": 200}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := catalog.NewFetcher(
		catalog.NewHTTPClient(catalog.WithBaseURL(srv.URL)),
		catalog.NewPool(1),
		catalog.WithDispatchDelay(0),
		catalog.WithFetcherLogger(quietLogger()),
	)
	e := estimator.New(f, estimator.WithLogger(quietLogger()))

	res := e.Estimate(context.Background(), "cats")

	require.Equal(t, 4, res.TotalItemCount)
	assert.Equal(t, 3, res.SampledItems, "failed view counts still count as observations")
	assert.Equal(t, int64(400), res.EstimatedViews, fmt.Sprintf("mean 100 x 4 items, got %+v", res))
	assert.Equal(t, int32(1), peak.Load())
}

func TestEstimate_UpstreamAlwaysFails(t *testing.T) {
	t.Parallel()

	var searchCalls, viewCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			searchCalls.Add(1)
		} else {
			viewCalls.Add(1)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := catalog.NewFetcher(
		catalog.NewHTTPClient(catalog.WithBaseURL(srv.URL)),
		catalog.NewPool(2),
		catalog.WithDispatchDelay(0),
		catalog.WithFetcherLogger(quietLogger()),
	)
	e := estimator.New(f, estimator.WithLogger(quietLogger()))

	var res estimator.Result
	require.NotPanics(t, func() {
		res = e.Estimate(context.Background(), "cats")
	})

	assert.Equal(t, int64(0), res.EstimatedViews)
	assert.Equal(t, 0, res.TotalItemCount)
	assert.Equal(t, estimator.StopEmptyPage, res.StoppedAt)
	assert.Equal(t, int32(1), searchCalls.Load(), "a failed page reads as empty and ends the scan")
	assert.Zero(t, viewCalls.Load())
}
