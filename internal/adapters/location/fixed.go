package location

import (
	"context"
	"fmt"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// Fixed reports a position supplied up front, e.g. from CLI flags.
type Fixed struct {
	point *domain.GeoPoint
}

// NewFixed returns a provider for p. A nil p reports position_unavailable.
func NewFixed(p *domain.GeoPoint) *Fixed {
	return &Fixed{point: p}
}

// Current returns the configured point.
func (f *Fixed) Current(ctx context.Context) (domain.GeoPoint, error) {
	if f.point == nil {
		return domain.GeoPoint{}, &domain.LocationError{Cause: domain.CausePositionUnavailable}
	}
	if !f.point.Valid() {
		return domain.GeoPoint{}, &domain.LocationError{
			Cause: domain.CausePositionUnavailable,
			Err:   fmt.Errorf("coordinates out of range: %v,%v", f.point.Lat, f.point.Lon),
		}
	}
	return *f.point, nil
}
