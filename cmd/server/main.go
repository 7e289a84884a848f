package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/cache"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/config"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/logging"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/server"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/service"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	storeClient, err := buildStoreClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create store client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeClient.Close(context.Background()); err != nil {
			logger.Warn("closing store client failed", "error", err)
		}
	}()

	portfolioCache, err := buildPortfolioCache(cfg, logger)
	if err != nil {
		logger.Error("failed to create portfolio cache", "error", err)
		os.Exit(1)
	}
	if portfolioCache != nil {
		defer func() {
			if err := portfolioCache.Close(); err != nil {
				logger.Warn("closing portfolio cache failed", "error", err)
			}
		}()
	}

	reconciler := newReconciler(storeClient, portfolioCache, logger)
	apiHandlers := server.NewAPIHandlers(logger, reconciler)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Client: storeClient},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildStoreClient(ctx context.Context, cfg config.Config) (store.Client, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case "memory":
		return store.NewMemoryClient(), nil
	case "mongo", "":
		return store.NewMongoClient(ctx, store.Options{
			URI:            cfg.Store.URI,
			Database:       cfg.Store.Database,
			MaxConnections: cfg.Store.MaxConnections,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func buildPortfolioCache(cfg config.Config, logger *slog.Logger) (*cache.RedisCache, error) {
	if cfg.Cache.RedisURL == "" {
		logger.Info("portfolio cache disabled, no redis url configured")
		return nil, nil
	}
	return cache.NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.TTL, logger)
}

// newReconciler keeps the nil-cache case out of the service constructor: a
// typed nil *cache.RedisCache must not end up inside the interface value.
func newReconciler(storeClient store.Client, portfolioCache *cache.RedisCache, logger *slog.Logger) *service.Reconciler {
	if portfolioCache == nil {
		return service.NewReconciler(storeClient, nil, logger)
	}
	return service.NewReconciler(storeClient, portfolioCache, logger)
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
