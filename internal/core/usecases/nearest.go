package usecases

import (
	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/pkg/geospatial"
)

// FindNearest scans candidates linearly and returns the closest one, or nil
// for an empty set. Ties go to the earliest candidate.
func FindNearest(from domain.GeoPoint, candidates []domain.Fountain) *domain.NearestResult {
	best := -1
	var bestDist float64

	for i := range candidates {
		d := geospatial.Distance(from, candidates[i].Location)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return nil
	}
	return &domain.NearestResult{Fountain: candidates[best], DistanceMeters: bestDist}
}
