package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

func testSummary(tasks, succeeded int) *RunSummary {
	s := &RunSummary{
		StartedAt:     time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC),
		Duration:      3*time.Second + 250*time.Millisecond,
		Tasks:         tasks,
		Succeeded:     succeeded,
		KeywordErrors: 2,
	}
	for i := range tasks - succeeded {
		s.Failures = append(s.Failures, domain.TaskOutcome{
			TaskID:   fmt.Sprintf("task-%d", i),
			TaskName: fmt.Sprintf("Task %d", i),
			Error:    "appending metrics log: connection refused",
		})
	}
	return s
}

func TestDiscordNotifier_SendRunSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		summary    *RunSummary
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "all tasks logged uses green",
			summary:    testSummary(3, 3),
			statusCode: http.StatusNoContent,
			wantColor:  colorGreen,
		},
		{
			name:       "partial failure uses orange",
			summary:    testSummary(3, 1),
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name:       "total failure uses red",
			summary:    testSummary(2, 0),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "discord returns 429 rate limited",
			summary:    testSummary(1, 1),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			summary:    testSummary(1, 1),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			d.retryInterval = time.Millisecond
			err := d.SendRunSummary(context.Background(), tt.summary)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Contains(t, embed.Title, fmt.Sprintf("%d/%d", tt.summary.Succeeded, tt.summary.Tasks))
			assert.Equal(t, "2026-05-01T06:00:00Z", embed.Timestamp)

			fieldMap := make(map[string]string)
			for _, f := range embed.Fields {
				fieldMap[f.Name] = f.Value
			}
			assert.Equal(t, fmt.Sprintf("%d", tt.summary.Failed()), fieldMap["Failed"])
			assert.Equal(t, "2", fieldMap["Keyword errors"])
			assert.Equal(t, "3.25s", fieldMap["Duration"])
			for _, f := range tt.summary.Failures {
				assert.Equal(t, f.Error, fieldMap[f.TaskName])
			}
		})
	}
}

func TestBuildSummaryEmbed_TruncatesFailures(t *testing.T) {
	t.Parallel()

	s := testSummary(maxFailureFields+5, 0)
	embed := buildSummaryEmbed(s)

	assert.Len(t, embed.Fields, 4+maxFailureFields)
	assert.Contains(t, embed.Description, "and 5 more failed tasks")
}

func TestBuildSummaryEmbed_FallsBackToTaskID(t *testing.T) {
	t.Parallel()

	s := &RunSummary{
		Tasks:    1,
		Failures: []domain.TaskOutcome{{TaskID: "abc", Error: "task has no keywords"}},
	}
	embed := buildSummaryEmbed(s)

	last := embed.Fields[len(embed.Fields)-1]
	assert.Equal(t, "abc", last.Name)
	assert.Empty(t, embed.Timestamp)
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1", WithMaxAttempts(1)) // nothing listening
	err := d.SendRunSummary(context.Background(), testSummary(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	err := d.SendRunSummary(context.Background(), testSummary(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestDiscordNotifier_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDiscordNotifier(srv.URL).SendRunSummary(ctx, testSummary(1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDiscordNotifier_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		responses   []int
		retryAfter  string
		maxAttempts int
		wantCalls   int32
		wantErr     string
	}{
		{
			name:        "rate limit then success",
			responses:   []int{http.StatusTooManyRequests, http.StatusNoContent},
			retryAfter:  "0",
			maxAttempts: 3,
			wantCalls:   2,
		},
		{
			name:        "server errors exhaust attempts",
			responses:   []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway, http.StatusNoContent},
			maxAttempts: 3,
			wantCalls:   3,
			wantErr:     "discord returned 502",
		},
		{
			name:        "client error is not retried",
			responses:   []int{http.StatusNotFound, http.StatusNoContent},
			maxAttempts: 3,
			wantCalls:   1,
			wantErr:     "discord returned 404: unknown webhook",
		},
		{
			name:        "single attempt",
			responses:   []int{http.StatusServiceUnavailable, http.StatusNoContent},
			maxAttempts: 0,
			wantCalls:   1,
			wantErr:     "discord returned 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := int(calls.Add(1)) - 1
				code := tt.responses[min(n, len(tt.responses)-1)]
				if code == http.StatusTooManyRequests && tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(code)
				if code == http.StatusNotFound {
					_, _ = w.Write([]byte("unknown webhook\n"))
				}
			}))
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL, WithMaxAttempts(tt.maxAttempts))
			d.retryInterval = time.Millisecond

			err := d.SendRunSummary(context.Background(), testSummary(1, 1))
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDiscordNotifier_Username(t *testing.T) {
	t.Parallel()

	var got discordWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewDiscordNotifier(srv.URL, WithUsername("kwt")).
		SendRunSummary(context.Background(), testSummary(1, 1)))
	assert.Equal(t, "kwt", got.Username)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestSendRunSummary_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	d := NewDiscordNotifier(srv.URL)
	require.NoError(t, d.SendRunSummary(context.Background(), testSummary(1, 1)))

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}
