// Package snapshot stores the last successfully fetched fountain set.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/pkg/metrics"
)

// DefaultKey is the cache slot holding the snapshot.
const DefaultKey = "fountains:snapshot"

// CacheStore keeps the snapshot in a ports.CacheService without expiry.
type CacheStore struct {
	cache ports.CacheService
	key   string
	now   func() time.Time
}

// NewCacheStore creates a CacheStore writing to key (DefaultKey when empty).
func NewCacheStore(cache ports.CacheService, key string) *CacheStore {
	if key == "" {
		key = DefaultKey
	}
	return &CacheStore{cache: cache, key: key, now: time.Now}
}

// Read loads the snapshot.
func (s *CacheStore) Read(ctx context.Context) (*domain.FountainSnapshot, error) {
	data, err := s.cache.Get(ctx, s.key)
	if errors.Is(err, ports.ErrCacheMiss) {
		metrics.CacheMisses.WithLabelValues("snapshot").Inc()
		return nil, domain.ErrSnapshotMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	metrics.CacheHits.WithLabelValues("snapshot").Inc()
	return decode(data)
}

// Write replaces the snapshot. The key never expires.
func (s *CacheStore) Write(ctx context.Context, fountains []domain.Fountain) error {
	data, err := encode(fountains, s.now())
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func encode(fountains []domain.Fountain, at time.Time) ([]byte, error) {
	if fountains == nil {
		fountains = []domain.Fountain{}
	}
	data, err := json.Marshal(domain.FountainSnapshot{Fountains: fountains, SavedAt: at.UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.FountainSnapshot, error) {
	var snap domain.FountainSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
