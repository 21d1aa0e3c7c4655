package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/cache"
	"github.com/pulsecheck/backend/internal/config"
	"github.com/pulsecheck/backend/internal/db"
	httpapi "github.com/pulsecheck/backend/internal/http"
	"github.com/pulsecheck/backend/internal/scheduler"
	"github.com/pulsecheck/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "pulsecheck-backend").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := db.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	var c cache.Cache = cache.NopCache{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer redisCache.Close()
		c = redisCache
	} else {
		logger.Info().Msg("no redis configured, caching disabled")
	}

	var backend ai.Backend
	if cfg.GeminiAPIKey == "" {
		backend = &ai.MockBackend{}
		logger.Info().Msg("using mock inference backend")
	} else {
		backend, err = ai.NewGeminiBackend(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure inference backend")
		}
	}

	orchestrator := service.NewOrchestrator(store, c, backend, cfg.SentimentBatchSize, cfg.AnalysisPeriodDays, logger)

	if cfg.SchedulerEnabled {
		sched := scheduler.New(store, orchestrator, cfg.ScoreCalculationHour, logger)
		go sched.Start(ctx)
	}

	router := httpapi.Router(cfg, store, orchestrator, c, logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
