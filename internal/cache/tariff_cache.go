package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GTDGit/tariff_api/internal/models"
)

// KV is the subset of RedisClient the tariff cache needs.
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// TariffCache stores tariff query results. Keys include the catalog version,
// so entries from other reference data never match.
type TariffCache struct {
	kv  KV
	ttl time.Duration
}

// NewTariffCache creates a new TariffCache.
func NewTariffCache(kv KV, ttl time.Duration) *TariffCache {
	return &TariffCache{kv: kv, ttl: ttl}
}

// key returns tariff:{version}:{canton}:{deductible}:{bracket}.
func (c *TariffCache) key(version string, k models.TariffKey) string {
	return fmt.Sprintf("tariff:%s:%s:%s:%s", version, k.Canton, k.Deductible, k.AgeBracket)
}

// Get returns the cached records for k. ok is false on a miss.
func (c *TariffCache) Get(ctx context.Context, version string, k models.TariffKey) ([]models.TariffRecord, bool, error) {
	data, ok, err := c.kv.Get(ctx, c.key(version, k))
	if err != nil || !ok {
		return nil, false, err
	}

	var records []models.TariffRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal tariff records: %w", err)
	}
	return records, true, nil
}

// Set stores records for k, including empty results.
func (c *TariffCache) Set(ctx context.Context, version string, k models.TariffKey, records []models.TariffRecord) error {
	if records == nil {
		records = []models.TariffRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal tariff records: %w", err)
	}
	if err := c.kv.Set(ctx, c.key(version, k), data, c.ttl); err != nil {
		return fmt.Errorf("failed to set tariff cache: %w", err)
	}
	return nil
}
