// Command server runs the sensor ingestion service: HTTP ingest and query
// API, live websocket fan-out, audit trail, and optional Postgres durability.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"soundsense/internal/audit"
	"soundsense/internal/auth"
	"soundsense/internal/mlclient"
	"soundsense/internal/platform/config"
	"soundsense/internal/platform/httpserver"
	"soundsense/internal/platform/logger"
	"soundsense/internal/platform/metrics"
	"soundsense/internal/platform/postgres"
	"soundsense/internal/platform/redis"
	"soundsense/internal/ratelimit"
	"soundsense/internal/readings"
	"soundsense/internal/stream"
	httptransport "soundsense/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Durable storage is optional. Startup proceeds in in-memory-only mode
	// when no DSN is configured or the database is unreachable.
	var (
		readingStore readings.Store
		auditStore   audit.Store = audit.NewInMemoryStore()
	)
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn("database unavailable, running in-memory only", "error", err)
	} else if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Warn("schema setup failed, running in-memory only", "error", err)
		} else {
			readingStore = readings.NewPostgres(db)
			auditStore = audit.NewPostgres(db)
			log.Info("database connected")
		}
	}

	recorder := audit.NewRecorder(auditStore, log, m)
	hub := stream.NewHub(stream.WithMetrics(m))
	svc := readings.NewService(readingStore, recorder, hub, log, m, cfg.CacheCapacity)
	tokens := auth.NewManager(cfg.JWTSigningKey)

	var ml *mlclient.Client
	if cfg.MLServiceURL != "" {
		ml = mlclient.New(cfg.MLServiceURL)
	}

	var limiterStore ratelimit.Store
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, rate limiting falls back to in-memory", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		limiterStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.New(limiterStore, cfg.IngestRateLimit, cfg.IngestRateWindow, log)

	handler := httptransport.NewHandler(svc, recorder, hub, tokens, ml, limiter, log, m, httptransport.Config{
		AuthUsername:      cfg.AuthUsername,
		AuthPassword:      cfg.AuthPassword,
		DeviceTokenSecret: cfg.DeviceTokenSecret,
	})
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
