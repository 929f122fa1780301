package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkpress-ai/inkpress/internal/adapter/ghost"
	iphttp "github.com/inkpress-ai/inkpress/internal/adapter/http"
	"github.com/inkpress-ai/inkpress/internal/adapter/litellm"
	ipnats "github.com/inkpress-ai/inkpress/internal/adapter/nats"
	otelx "github.com/inkpress-ai/inkpress/internal/adapter/otel"
	"github.com/inkpress-ai/inkpress/internal/adapter/postgres"
	"github.com/inkpress-ai/inkpress/internal/adapter/ristretto"
	"github.com/inkpress-ai/inkpress/internal/adapter/ws"
	"github.com/inkpress-ai/inkpress/internal/config"
	"github.com/inkpress-ai/inkpress/internal/domain/quality"
	"github.com/inkpress-ai/inkpress/internal/logger"
	"github.com/inkpress-ai/inkpress/internal/middleware"
	"github.com/inkpress-ai/inkpress/internal/resilience"
	"github.com/inkpress-ai/inkpress/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"workers", cfg.Pipeline.Workers,
		"default_tier", cfg.Pipeline.DefaultTier,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := otelx.Setup(ctx, cfg.Otel, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	metrics, err := otelx.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := ipnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	snapshots, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer snapshots.Close()

	// --- Collaborators ---
	llm := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llmBreaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	llm.SetBreaker(llmBreaker)

	pub, err := ghost.NewPublisher(cfg.Ghost.URL, cfg.Ghost.AdminKey)
	if err != nil {
		return fmt.Errorf("ghost: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	events := postgres.NewEventStore(pool)

	rubric := quality.NewStandardRubric(cfg.Pipeline.QualityThreshold)
	exec := service.NewExecutor(llm, rubric, &cfg.Pipeline)
	orchestrator := service.NewOrchestrator(store, events, queue, hub, exec, pub, &cfg.Pipeline, metrics)
	articles := service.NewArticleService(store, events, queue, snapshots, &cfg.Pipeline, cfg.Cache.SnapshotTTL, metrics)

	stopWorkers, err := orchestrator.Start(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	defer stopWorkers()

	// --- HTTP ---
	health := func() error {
		if !queue.IsConnected() {
			return fmt.Errorf("nats disconnected")
		}
		if st := llmBreaker.State(); st == resilience.StateOpen {
			return fmt.Errorf("llm circuit %s", st)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}
	handlers := iphttp.NewHandlers(articles, orchestrator, hub, health)

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(iphttp.CORS(cfg.Server.CORSOrigin))
	r.Use(iphttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(iphttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	if cfg.Otel.Enabled {
		r.Use(otelx.HTTPMiddleware(cfg.Logging.Service))
	}

	iphttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Stop taking queue work, let in-flight articles park, then drain.
	stopWorkers()
	return queue.Drain()
}
