package usecases

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

// LocateResult is the outcome of one "locate me" action.
type LocateResult struct {
	User    domain.GeoPoint       `json:"user"`
	Nearest *domain.NearestResult `json:"nearest,omitempty"`
	Route   *domain.Route         `json:"route,omitempty"`

	// Sequence numbers each Locate call; Superseded is set when a newer call
	// started before this one finished.
	Sequence   uint64 `json:"sequence"`
	Superseded bool   `json:"superseded"`
}

// Summary returns the user-facing message for the result.
func (r *LocateResult) Summary() string {
	if r.Nearest == nil {
		return "No drinking fountains known nearby"
	}
	if r.Route != nil {
		minutes := int(math.Round(r.Route.DurationSeconds / 60))
		return fmt.Sprintf("%dm away • %d min walk", int(math.Round(r.Route.DistanceMeters)), minutes)
	}
	return fmt.Sprintf("%dm away", int(math.Round(r.Nearest.DistanceMeters)))
}

// LocateService finds the user, the nearest fountain and a walking route to it.
type LocateService struct {
	location  ports.LocationProvider
	fountains *FountainService
	routes    *RouteService
	seq       atomic.Uint64
}

// NewLocateService creates a new LocateService.
func NewLocateService(location ports.LocationProvider, fountains *FountainService, routes *RouteService) *LocateService {
	return &LocateService{location: location, fountains: fountains, routes: routes}
}

// Locate runs the whole lookup. Location and data failures are returned as
// *domain.LocationError and domain.ErrDataUnavailable; routing never fails.
func (s *LocateService) Locate(ctx context.Context) (*LocateResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLocate)
	defer span.End()

	seq := s.seq.Add(1)

	user, err := s.location.Current(ctx)
	if err != nil {
		return nil, err
	}

	fountains, err := s.fountains.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	res := &LocateResult{User: user, Sequence: seq}
	res.Nearest = FindNearest(user, fountains)
	if res.Nearest != nil {
		route := s.routes.WalkingRoute(ctx, user, res.Nearest.Fountain.Location)
		res.Route = &route
	}

	res.Superseded = s.seq.Load() != seq
	return res, nil
}
