// Package notify defines the notification interface and implementations
// for batch run summaries.
package notify

import (
	"context"
	"time"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// RunSummary describes one completed batch run.
type RunSummary struct {
	StartedAt     time.Time
	Duration      time.Duration
	Tasks         int
	Succeeded     int
	KeywordErrors int
	// Failures holds the outcomes with Success=false, in task order.
	Failures []domain.TaskOutcome
}

// Failed returns the number of tasks that produced no log entry.
func (s *RunSummary) Failed() int {
	return s.Tasks - s.Succeeded
}

// Notifier defines the interface for sending batch run notifications.
type Notifier interface {
	SendRunSummary(ctx context.Context, summary *RunSummary) error
}
