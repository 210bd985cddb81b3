package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bikenearby/backend-go/internal/cache"
	"github.com/bikenearby/backend-go/internal/config"
	"github.com/bikenearby/backend-go/internal/handler"
	"github.com/bikenearby/backend-go/internal/images"
	"github.com/bikenearby/backend-go/internal/metrics"
	"github.com/bikenearby/backend-go/internal/models"
	"github.com/bikenearby/backend-go/internal/refresh"
	"github.com/bikenearby/backend-go/internal/server"
	"github.com/bikenearby/backend-go/internal/station"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Could not read .env file")
	}

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store := cache.NewSnapshotStore()
	cacheCfg := config.GetCacheConfig()

	finderOpts := []station.Option{
		station.WithMaxRadiusKm(cfg.MaxRadiusKm),
		station.WithExactRadius(cfg.ExactRadius),
	}
	if cacheCfg.EnableNearbyCache {
		nearbyCache, err := cache.NewNearbyCache(cacheCfg)
		if err != nil {
			return err
		}
		store.OnPublish(func(*models.Snapshot) { nearbyCache.Purge() })
		finderOpts = append(finderOpts, station.WithNearbyCache(nearbyCache))
	}
	finder := station.NewFinder(store, finderOpts...)

	catalog, err := newCatalog(ctx, cfg, cacheCfg)
	if err != nil {
		return err
	}

	refresher := refresh.NewFromConfig(cfg, store)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	go reportSnapshotAge(ctx, store)

	srv := server.New(cfg, handler.NewStationsHandler(finder, catalog), store, catalog)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCatalog(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (images.Catalog, error) {
	if !cfg.UseS3Images() {
		log.Info().Str("dir", cfg.ImageDir).Msg("Using local image catalog")
		return images.NewLocalCatalog(cfg.ImageDir), nil
	}

	s3Client, err := images.NewS3Client(ctx, cfg.AWSRegion, cfg.ImageS3Endpoint)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("bucket", cfg.ImageS3Bucket).
		Str("prefix", cfg.ImageS3Prefix).
		Msg("Using S3 image catalog")
	return images.NewS3Catalog(s3Client, cfg.ImageS3Bucket, cfg.ImageS3Prefix, cfg.ImageBaseURL, cacheCfg.GetImageListTTL()), nil
}

func reportSnapshotAge(ctx context.Context, store *cache.SnapshotStore) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if age, ok := store.Age(); ok {
				metrics.SetSnapshotAge(age)
			}
		}
	}
}
