package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/models"
	"github.com/GTDGit/tariff_api/internal/service"
)

// CacheWarmWorker periodically writes the result of every tariff key present
// in the catalog to the tariff cache, so searches hit the cache after a TTL
// expiry or a Redis restart.
type CacheWarmWorker struct {
	catalog  *catalog.Catalog
	engine   *service.TariffQueryEngine
	cache    service.TariffCache
	interval time.Duration
}

// NewCacheWarmWorker constructs a CacheWarmWorker.
func NewCacheWarmWorker(cat *catalog.Catalog, engine *service.TariffQueryEngine, cache service.TariffCache, interval time.Duration) *CacheWarmWorker {
	return &CacheWarmWorker{
		catalog:  cat,
		engine:   engine,
		cache:    cache,
		interval: interval,
	}
}

// Start begins the periodic warm loop and listens for context cancellation.
func (w *CacheWarmWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting cache warm worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Cache warm worker stopped")
			return
		}
	}
}

func (w *CacheWarmWorker) run(ctx context.Context) {
	start := time.Now()
	version := w.catalog.Version()

	warmed, failed := 0, 0
	for _, key := range w.keys() {
		if ctx.Err() != nil {
			return
		}
		records := w.engine.Query(key.Canton, key.Deductible, key.AgeBracket)
		if err := w.cache.Set(ctx, version, key, records); err != nil {
			failed++
			continue
		}
		warmed++
	}

	if failed > 0 {
		log.Warn().Int("warmed", warmed).Int("failed", failed).Msg("Tariff cache warm incomplete")
		return
	}
	log.Info().Int("keys", warmed).Dur("duration", time.Since(start)).Msg("Tariff cache warmed")
}

// keys returns the distinct filter keys of the tariff table in stored order.
func (w *CacheWarmWorker) keys() []models.TariffKey {
	seen := make(map[models.TariffKey]bool)
	var out []models.TariffKey
	for r := range w.catalog.Tariffs() {
		k := r.Key()
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
