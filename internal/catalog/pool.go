package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

// DefaultPoolCapacity is the default number of concurrent catalog calls.
const DefaultPoolCapacity = 10

// Pool bounds the number of in-flight catalog calls. Construct one per
// process and share it between every Fetcher so the bound holds across all
// keywords and tasks in flight.
type Pool struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
}

// NewPool creates a Pool with the given capacity. Capacities below one are
// raised to one.
func NewPool(capacity int) *Pool {
	capacity = max(capacity, 1)
	return &Pool{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Do runs fn while holding one slot. It returns the context error if the
// slot could not be acquired.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring pool slot: %w", err)
	}
	metrics.FetchPoolWaitDuration.Observe(time.Since(start).Seconds())

	p.inFlight.Add(1)
	metrics.FetchPoolInFlight.Inc()
	defer func() {
		p.inFlight.Add(-1)
		metrics.FetchPoolInFlight.Dec()
		p.sem.Release(1)
	}()

	return fn(ctx)
}

// Capacity returns the maximum number of concurrent slots.
func (p *Pool) Capacity() int {
	return p.capacity
}

// InFlight returns the number of slots currently held.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}
