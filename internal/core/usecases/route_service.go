package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/pkg/geospatial"
	"github.com/samirrijal/pulpuluck/internal/pkg/metrics"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

// DefaultRouteTimeout bounds a single routing provider request.
const DefaultRouteTimeout = 8 * time.Second

// RouteService resolves walking routes, falling back to a straight line.
type RouteService struct {
	provider ports.RouteProvider
	timeout  time.Duration
}

// NewRouteService creates a new RouteService. A non-positive timeout uses DefaultRouteTimeout.
func NewRouteService(provider ports.RouteProvider, timeout time.Duration) *RouteService {
	if timeout <= 0 {
		timeout = DefaultRouteTimeout
	}
	return &RouteService{provider: provider, timeout: timeout}
}

// WalkingRoute always returns a route: the provider's first candidate when it
// answers in time, otherwise a synthesized two-point path.
func (s *RouteService) WalkingRoute(ctx context.Context, start, end domain.GeoPoint) domain.Route {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanWalkingRoute)
	defer span.End()

	if s.provider != nil {
		route, err := s.fromProvider(ctx, start, end)
		if err == nil {
			metrics.RouteRequests.WithLabelValues(string(domain.RouteSourceProvider)).Inc()
			return route
		}

		reason := "provider_error"
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		case errors.Is(err, domain.ErrNoRoute):
			reason = "no_route"
		}
		slog.WarnContext(ctx, "walking route unavailable, using straight line",
			"reason", reason, "error", err)
	}

	metrics.RouteRequests.WithLabelValues(string(domain.RouteSourceFallback)).Inc()
	return FallbackRoute(start, end)
}

func (s *RouteService) fromProvider(ctx context.Context, start, end domain.GeoPoint) (domain.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	route, err := s.provider.WalkingRoute(ctx, start, end)
	if err != nil {
		return domain.Route{}, err
	}
	if route == nil || len(route.Path) < 2 {
		return domain.Route{}, domain.ErrNoRoute
	}

	return domain.Route{
		Path:            route.Path,
		DistanceMeters:  math.Round(route.DistanceMeters),
		DurationSeconds: math.Round(route.DurationSeconds),
		Source:          domain.RouteSourceProvider,
	}, nil
}

// FallbackRoute is the straight path [start, end] walked at geospatial.WalkingSpeed.
func FallbackRoute(start, end domain.GeoPoint) domain.Route {
	d := geospatial.Distance(start, end)
	return domain.Route{
		Path:            []domain.RoutePoint{start, end},
		DistanceMeters:  math.Round(d),
		DurationSeconds: math.Round(geospatial.WalkingDuration(d)),
		Source:          domain.RouteSourceFallback,
	}
}
