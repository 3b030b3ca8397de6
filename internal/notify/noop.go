package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded summaries. It is used
// when Discord (or another notification backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards summaries with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendRunSummary logs and discards a run summary.
func (n *NoOpNotifier) SendRunSummary(_ context.Context, s *RunSummary) error {
	n.log.Debug("notification discarded (no backend configured)",
		"tasks", s.Tasks,
		"succeeded", s.Succeeded,
		"failed", s.Failed(),
		"keyword_errors", s.KeywordErrors,
	)
	return nil
}
