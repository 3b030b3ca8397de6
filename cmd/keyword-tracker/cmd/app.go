package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/keyword-tracker/internal/catalog"
	"github.com/donaldgifford/keyword-tracker/internal/config"
	"github.com/donaldgifford/keyword-tracker/internal/engine"
	"github.com/donaldgifford/keyword-tracker/internal/estimator"
	"github.com/donaldgifford/keyword-tracker/internal/notify"
	"github.com/donaldgifford/keyword-tracker/internal/store"
	"github.com/donaldgifford/keyword-tracker/pkg/logger"
	score "github.com/donaldgifford/keyword-tracker/pkg/scorer"
)

// pipeline is the catalog-to-engine chain shared by serve and the one-shot
// commands.
type pipeline struct {
	limiter *catalog.RateLimiter
	fetcher *catalog.Fetcher
	engine  *engine.Engine
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}

// openStore connects to the configured database. The returned close func
// is always non-nil.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		s, err := store.NewMongoStore(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to mongo: %w", err)
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	default:
		s, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to postgres: %w", err)
		}
		return s, s.Close, nil
	}
}

func newNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if cfg.Notifications.Discord.Enabled {
		d := cfg.Notifications.Discord
		return notify.NewDiscordNotifier(d.WebhookURL,
			notify.WithUsername(d.Username),
			notify.WithMaxAttempts(d.MaxAttempts),
		)
	}
	return notify.NewNoOpNotifier(log)
}

// newPipeline builds the fetcher, estimator and engine. s may be nil for
// commands that never touch tasks.
func newPipeline(cfg *config.Config, s store.Store, n notify.Notifier, log *slog.Logger) *pipeline {
	rl := catalog.NewRateLimiter(
		cfg.Catalog.RateLimit.PerSecond,
		cfg.Catalog.RateLimit.Burst,
		cfg.Catalog.RateLimit.DailyLimit,
	)

	client := catalog.NewHTTPClient(
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithAPIKey(cfg.Catalog.APIKey),
		catalog.WithRateLimiter(rl),
	)

	fetcher := catalog.NewFetcher(client, catalog.NewPool(cfg.Fetcher.Concurrency),
		catalog.WithDispatchDelay(cfg.Fetcher.DispatchDelay),
		catalog.WithCallTimeout(cfg.Fetcher.Timeout),
		catalog.WithFetcherLogger(log),
	)

	est := estimator.New(fetcher,
		estimator.WithPageSize(cfg.Estimator.PageSize),
		estimator.WithScanCap(cfg.Estimator.ScanCap),
		estimator.WithSampleSize(cfg.Estimator.SampleSize),
		estimator.WithLogger(log),
	)

	eng := engine.NewEngine(s, est, fetcher, n,
		engine.WithLogger(log),
		engine.WithWeights(score.Weights{
			Views: cfg.Scoring.Weights.Views,
			Items: cfg.Scoring.Weights.Items,
		}),
		engine.WithRetryPolicy(engine.RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		}),
		engine.WithTaskConcurrency(cfg.Batch.TaskConcurrency),
		engine.WithKeywordConcurrency(cfg.Batch.KeywordConcurrency),
	)

	return &pipeline{limiter: rl, fetcher: fetcher, engine: eng}
}
