package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/pkg/geospatial"
	"github.com/samirrijal/pulpuluck/internal/pkg/metrics"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

const (
	listCacheKey = "fountains:list"
	listCacheTTL = 300
)

// FountainService fetches the fountain set and keeps the offline snapshot.
type FountainService struct {
	provider  ports.FountainProvider
	snapshots ports.SnapshotStore
	cache     ports.CacheService
}

// NewFountainService creates a new FountainService. snapshots may be nil.
func NewFountainService(provider ports.FountainProvider, snapshots ports.SnapshotStore) *FountainService {
	return &FountainService{provider: provider, snapshots: snapshots}
}

// WithCache enables the short-lived response cache used by List.
func (s *FountainService) WithCache(cache ports.CacheService) *FountainService {
	s.cache = cache
	return s
}

// List is Fetch behind a five minute cache, for serving many clients from
// one provider query.
func (s *FountainService) List(ctx context.Context) ([]domain.Fountain, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, listCacheKey); err == nil {
			var fountains []domain.Fountain
			if err := json.Unmarshal(data, &fountains); err == nil {
				metrics.CacheHits.WithLabelValues("fountains").Inc()
				return fountains, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("fountains").Inc()
	}

	fountains, stale, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// A snapshot served while the provider is down is not cached, so the
	// next request tries the provider again.
	if s.cache != nil && !stale {
		if data, err := json.Marshal(fountains); err == nil {
			_ = s.cache.Set(ctx, listCacheKey, data, listCacheTTL)
		}
	}
	return fountains, nil
}

// Fetch queries the provider and overwrites the snapshot on success.
// When the provider fails the last snapshot is returned instead; with no
// snapshot the error wraps domain.ErrDataUnavailable.
func (s *FountainService) Fetch(ctx context.Context) ([]domain.Fountain, error) {
	fountains, _, err := s.fetch(ctx)
	return fountains, err
}

// fetch is Fetch that also reports whether the result came from the snapshot.
func (s *FountainService) fetch(ctx context.Context) ([]domain.Fountain, bool, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFetchFountains)
	defer span.End()

	fountains, err := s.fetchFresh(ctx)
	if err == nil {
		metrics.FountainFetches.WithLabelValues("fresh").Inc()
		return fountains, false, nil
	}

	slog.WarnContext(ctx, "fountain provider failed, trying snapshot", "error", err)

	if s.snapshots != nil {
		snap, rerr := s.snapshots.Read(ctx)
		if rerr == nil {
			metrics.FountainFetches.WithLabelValues("stale").Inc()
			slog.InfoContext(ctx, "serving fountain snapshot",
				"count", len(snap.Fountains),
				"saved_at", snap.SavedAt.Format(time.RFC3339),
			)
			return snap.Fountains, true, nil
		}
		if !errors.Is(rerr, domain.ErrSnapshotMissing) {
			slog.WarnContext(ctx, "snapshot read failed", "error", rerr)
		}
	}

	metrics.FountainFetches.WithLabelValues("unavailable").Inc()
	span.RecordError(err)
	return nil, false, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
}

// Refresh fetches from the provider and writes the snapshot, returning any
// provider or store error. Scheduled refreshes use it so they can retry.
func (s *FountainService) Refresh(ctx context.Context) (int, error) {
	fountains, err := s.provider.FetchFountains(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch fountains: %w", err)
	}
	if s.snapshots != nil {
		if err := s.snapshots.Write(ctx, fountains); err != nil {
			return 0, fmt.Errorf("write snapshot: %w", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, listCacheKey); err != nil {
			slog.WarnContext(ctx, "list cache invalidation failed", "error", err)
		}
	}
	return len(fountains), nil
}

func (s *FountainService) fetchFresh(ctx context.Context) ([]domain.Fountain, error) {
	start := time.Now()
	fountains, err := s.provider.FetchFountains(ctx)
	metrics.FountainFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.Write(ctx, fountains); err != nil {
			slog.WarnContext(ctx, "snapshot write failed", "error", err)
		}
	}
	return fountains, nil
}

// Within returns the candidates no farther than radiusMeters from the point,
// nearest first. Equal distances keep input order.
func Within(from domain.GeoPoint, radiusMeters float64, candidates []domain.Fountain) []domain.NearestResult {
	box := geospatial.Around(from, radiusMeters)

	var out []domain.NearestResult
	for _, f := range candidates {
		if !geospatial.Contains(box, f.Location) {
			continue
		}
		d := geospatial.Distance(from, f.Location)
		if d <= radiusMeters {
			out = append(out, domain.NearestResult{Fountain: f, DistanceMeters: d})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	return out
}
