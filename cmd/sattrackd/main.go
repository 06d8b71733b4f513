// Command sattrackd runs the satellite tracking HTTP service: it keeps a TLE
// dataset fresh in the background and serves pass prediction, position, and
// footprint queries.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/api"
	"github.com/shivmishra76/sat-tracker-cli/internal/cache"
	"github.com/shivmishra76/sat-tracker-cli/internal/metrics"
	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store := tle.NewStore()
	diskCache := tle.NewCache(cfg.TLE.CacheDir, cfg.TLE.MaxCacheFiles)
	fetcher := tle.NewFetcher(cfg.TLE.SourceURL)

	// Seed the store from disk so the service is ready before the first fetch.
	if data, ts, err := diskCache.LoadLatest(); err != nil {
		logger.Info("no TLE cache found, waiting for first fetch", "error", err)
	} else if entries, err := tle.Parse(bytes.NewReader(data), logger); err != nil {
		logger.Warn("failed to parse cached TLE data", "error", err)
	} else if len(entries) > 0 {
		ds := tle.NewDataset("cache", ts, entries)
		store.Set(ds)
		metrics.SetTLEDatasetCount(len(entries))
		logger.Info("loaded TLE data from cache", "count", len(entries), "cached_at", ts.Format(time.RFC3339))
	}

	predCache := cache.NewPredictionCache(cfg.Cache.ttl(), logger)

	srv := api.NewServer(api.Config{
		Addr:       cfg.Addr,
		AuthToken:  cfg.AuthToken,
		TrustProxy: cfg.TrustProxy,
		MaxPerIP:   cfg.RateLimit.MaxPerIP,
		MaxTotal:   cfg.RateLimit.MaxTotal,
	}, store, predCache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go refreshLoop(ctx, cfg, store, diskCache, fetcher, logger)

	// Publish dataset age so staleness shows up in dashboards.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetTLEDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Periodic sweep drops expired and dataset-stale prediction results.
	go func() {
		ticker := time.NewTicker(cfg.Cache.sweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if ds := store.Get(); ds != nil {
					predCache.Sweep(ds.FetchedAt)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "auth_enabled", cfg.AuthToken != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// refreshLoop fetches a fresh TLE dataset immediately when the store has
// nothing (or only stale disk data), then on the configured interval.
func refreshLoop(ctx context.Context, cfg Config, store *tle.Store, diskCache *tle.Cache, fetcher *tle.Fetcher, logger *slog.Logger) {
	refresh := func() {
		fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		data, err := fetcher.Fetch(fetchCtx)
		if err != nil {
			metrics.IncTLEFetch("error")
			logger.Warn("TLE fetch failed", "source", fetcher.SourceURL(), "error", err)
			return
		}
		metrics.IncTLEFetch("success")

		entries, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil || len(entries) == 0 {
			logger.Warn("fetched TLE data unusable", "error", err, "count", len(entries))
			return
		}

		now := time.Now().UTC()
		store.Set(tle.NewDataset(fetcher.SourceURL(), now, entries))
		metrics.SetTLEDatasetCount(len(entries))

		if err := diskCache.Write(data, now); err != nil {
			logger.Warn("writing TLE disk cache failed", "error", err)
		}
		logger.Info("TLE dataset refreshed", "count", len(entries))
	}

	// Refresh right away unless the disk seed is still within the interval.
	if ds := store.Get(); ds == nil || time.Since(ds.FetchedAt) > cfg.TLE.refreshInterval() {
		refresh()
	}

	ticker := time.NewTicker(cfg.TLE.refreshInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}
