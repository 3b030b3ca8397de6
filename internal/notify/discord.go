package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

const (
	colorGreen  = 0x2ECC71 // every task logged
	colorOrange = 0xE67E22 // some tasks failed
	colorRed    = 0xE74C3C // no task logged

	// Discord caps embed fields at 25; keep room for the totals.
	maxFailureFields = 20

	defaultMaxAttempts = 3
)

// DiscordNotifier posts run summaries to a Discord webhook. Rate limits,
// server errors and transport failures are retried with backoff.
type DiscordNotifier struct {
	webhookURL    string
	username      string
	client        *http.Client
	maxAttempts   uint
	retryInterval time.Duration
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL:    webhookURL,
		client:        http.DefaultClient,
		maxAttempts:   defaultMaxAttempts,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithUsername overrides the webhook's display name.
func WithUsername(name string) DiscordOption {
	return func(d *DiscordNotifier) {
		d.username = name
	}
}

// WithMaxAttempts bounds delivery attempts per summary. Values below 1
// mean a single attempt.
func WithMaxAttempts(n int) DiscordOption {
	return func(d *DiscordNotifier) {
		d.maxAttempts = uint(max(n, 1))
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendRunSummary posts the run totals and up to maxFailureFields failed
// tasks as a single embed.
func (d *DiscordNotifier) SendRunSummary(ctx context.Context, s *RunSummary) error {
	body, err := json.Marshal(discordWebhookPayload{
		Username: d.username,
		Embeds:   []discordEmbed{buildSummaryEmbed(s)},
	})
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.retryInterval

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, d.post(ctx, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.maxAttempts))
	return err
}

func buildSummaryEmbed(s *RunSummary) discordEmbed {
	embed := discordEmbed{
		Title: fmt.Sprintf("Keyword batch: %d/%d tasks logged", s.Succeeded, s.Tasks),
		Color: summaryColor(s),
		Fields: []discordEmbedField{
			{Name: "Tasks", Value: fmt.Sprintf("%d", s.Tasks), Inline: true},
			{Name: "Failed", Value: fmt.Sprintf("%d", s.Failed()), Inline: true},
			{Name: "Keyword errors", Value: fmt.Sprintf("%d", s.KeywordErrors), Inline: true},
			{Name: "Duration", Value: s.Duration.Round(time.Millisecond).String(), Inline: true},
		},
	}
	if !s.StartedAt.IsZero() {
		embed.Timestamp = s.StartedAt.UTC().Format(time.RFC3339)
	}

	limit := min(len(s.Failures), maxFailureFields)
	for _, f := range s.Failures[:limit] {
		name := f.TaskName
		if name == "" {
			name = f.TaskID
		}
		embed.Fields = append(embed.Fields, discordEmbedField{Name: name, Value: f.Error})
	}

	if len(s.Failures) > maxFailureFields {
		embed.Description = fmt.Sprintf("... and %d more failed tasks", len(s.Failures)-maxFailureFields)
	}

	return embed
}

func summaryColor(s *RunSummary) int {
	switch {
	case s.Failed() == 0:
		return colorGreen
	case s.Succeeded == 0:
		return colorRed
	default:
		return colorOrange
	}
}

func (d *DiscordNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating discord request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("sending discord webhook: %w", err))
		}
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs >= 0 {
			return fmt.Errorf("discord rate limited (429): %w", backoff.RetryAfter(secs))
		}
		return errors.New("discord rate limited (429)")
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("discord returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	if resp.StatusCode >= 500 {
		return err
	}
	return backoff.Permanent(err)
}
