package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/donaldgifford/keyword-tracker/api/openapi"
	"github.com/donaldgifford/keyword-tracker/internal/api/handlers"
	mw "github.com/donaldgifford/keyword-tracker/internal/api/middleware"
	"github.com/donaldgifford/keyword-tracker/internal/engine"
	"github.com/donaldgifford/keyword-tracker/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     Version,
	}, log)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Error("flushing telemetry", "error", err)
		}
	}()

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	p := newPipeline(cfg, s, newNotifier(cfg, log), log)

	sched, err := engine.NewScheduler(
		p.engine, s,
		cfg.Schedule.BatchInterval,
		cfg.Schedule.RetentionInterval,
		cfg.Schedule.LogRetention,
		log,
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.RecoverStaleJobRuns(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(mw.Recovery(log))
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "http.server")
	}))
	e.Use(mw.RequestLog(log))
	e.Use(mw.Metrics())

	health := handlers.NewHealthHandler(s, handlers.WithQuotaCheck(p.limiter))
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("keyword-tracker API", Version))
	openapi.RegisterRoutes(e)
	handlers.RegisterEstimateRoutes(api, handlers.NewEstimateHandler(p.engine))
	handlers.RegisterTaskRoutes(api, handlers.NewTasksHandler(s, p.engine))
	handlers.RegisterBatchRoutes(api, handlers.NewBatchHandler(p.engine))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(s))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(p.limiter))

	sched.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "driver", cfg.Database.Driver)

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutting down server", "error", err)
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop before timeout")
	}

	log.Info("server stopped")
	return nil
}
