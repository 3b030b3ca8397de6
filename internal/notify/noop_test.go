package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpNotifier_SendRunSummary(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := n.SendRunSummary(context.Background(), testSummary(3, 2))
	require.NoError(t, err)
}

func TestRunSummary_Failed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, (&RunSummary{}).Failed())
	assert.Equal(t, 2, testSummary(5, 3).Failed())
}

// compile-time interface checks.
var (
	_ Notifier = (*NoOpNotifier)(nil)
	_ Notifier = (*DiscordNotifier)(nil)
)
