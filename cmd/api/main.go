package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"imgexport/internal/adapter/repo"
	"imgexport/internal/app"
	"imgexport/internal/entitlement"
	"imgexport/internal/export"
	httpapi "imgexport/internal/http"
	"imgexport/internal/http/handlers"
	"imgexport/internal/infra"
	"imgexport/internal/metrics"
	"imgexport/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireAPI(); err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	// Without a database every signed-in user resolves to the free tier.
	var (
		profiles entitlement.ProfileLoader
		pinger   handlers.Pinger
	)
	if cfg.DatabaseURL != "" {
		var pool *pgxpool.Pool
		pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		profiles = repo.NewProfileRepo(infra.NewSQLRunner(pool, logger))
		pinger = pool
	} else {
		logger.Warn().Msg("DATABASE_URL not set, membership tiers disabled")
	}

	registry := metrics.NewRegistry()
	pipeline, err := app.Build(ctx, cfg, logger, app.Extras{
		Profiles: profiles,
		Recorder: registry,
		Notifier: export.LogNotifier{Logger: logger},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build export pipeline")
	}

	handlerApp := handlers.NewApp(pipeline.Exporter, registry, pinger, logger)
	handlerApp.Links = pipeline.Sources
	router := httpapi.NewRouter(handlerApp, httpapi.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Limiter:     middleware.NewLimiter(cfg.RateLimitPerMin, time.Minute),
		Logger:      logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msgf("API listening on %s", server.Addr())
	if err := server.Run(runCtx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		return
	}
	logger.Info().Msg("server stopped")
}
