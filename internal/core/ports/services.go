package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// FountainProvider queries an external point-of-interest source for fountains.
type FountainProvider interface {
	FetchFountains(ctx context.Context) ([]domain.Fountain, error)
}

// RouteProvider requests pedestrian routes from an external routing engine.
// Implementations return domain.ErrNoRoute when the engine has no candidate.
type RouteProvider interface {
	WalkingRoute(ctx context.Context, start, end domain.GeoPoint) (*domain.Route, error)
}

// LocationProvider resolves the user's current position.
// Failures are *domain.LocationError.
type LocationProvider interface {
	Current(ctx context.Context) (domain.GeoPoint, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishVote(ctx context.Context, event *domain.VoteEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeVotes(ctx context.Context, handler func(ctx context.Context, event *domain.VoteEvent) error) error
}

// CacheService provides key/value caching. A ttlSeconds <= 0 stores without expiry.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
