package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/boardinghub/internal/api"
	"github.com/neexbeast/boardinghub/internal/cache"
	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/config"
	"github.com/neexbeast/boardinghub/internal/forecast"
	"github.com/neexbeast/boardinghub/internal/predictor"
	"github.com/neexbeast/boardinghub/internal/pricing"
	"github.com/neexbeast/boardinghub/internal/search"
	"github.com/neexbeast/boardinghub/internal/storage"
)

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pingers := map[string]api.Pinger{}

	// Connect to PostgreSQL when configured.
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		p, err := connectDatabase(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer p.Close()
		pool = p
		pingers["db"] = pool
	}

	// Load the catalog. A catalog that cannot be loaded is fatal.
	src, err := catalogSource(ctx, cfg, pool)
	if err != nil {
		return err
	}
	snap, err := catalog.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	log.Info("catalog loaded", "source", cfg.Catalog.Source, "listings", snap.Len())

	models := predictor.NewClient(cfg.Predictor.URL, cfg.Predictor.Timeout)
	pingers["predictor"] = models

	// Memoize filter predictions in Redis when configured.
	var filters search.FilterPredictor = models
	if cfg.Redis.URL != "" {
		redisClient, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.Timeout)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		filters = cache.NewCachedFilterPredictor(models, cache.NewFilterCache(redisClient, cfg.Redis.FilterTTL), log)
		pingers["redis"] = &redisPingerAdapter{client: redisClient}
	}

	// Wire dependencies.
	handlers := api.NewHandlers(
		search.NewCascade(snap, filters),
		pricing.NewComposer(models, models, models),
		forecast.NewForecaster(models, cfg.Forecast.AveragePrice),
		snap,
		log,
	)
	router := api.NewRouter(handlers, api.HealthHandlerFunc(pingers, snap, log), api.RouterOptions{
		Token:             cfg.Auth.Token,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	})
	if cfg.Auth.Token == "" {
		log.Warn("auth.token not set, API is unauthenticated")
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// connectDatabase opens the pool and applies pending migrations.
func connectDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := storage.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	applied, err := storage.RunMigrations(ctx, pool, cfg.Database.MigrationsDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "count", applied)

	return pool, nil
}

// catalogSource returns the configured catalog source. pool must be non-nil
// for the postgres source.
func catalogSource(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.SourceFile:
		return catalog.FileSource{Path: cfg.Catalog.Path}, nil
	case config.SourceS3:
		src, err := catalog.NewS3Source(ctx, cfg.Catalog.S3Region, cfg.Catalog.S3Bucket, cfg.Catalog.S3Key)
		if err != nil {
			return nil, fmt.Errorf("creating s3 catalog source: %w", err)
		}
		return src, nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, errors.New("postgres catalog source requires database.url")
		}
		return storage.NewListingRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// redisPingerAdapter adapts redis.Client to api.Pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
