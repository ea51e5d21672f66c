package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/pulpuluck/internal/core/usecases"
)

// RefreshActivities holds the activity implementations for the snapshot refresh workflow.
type RefreshActivities struct {
	Fountains *usecases.FountainService
}

// RefreshFountains queries the provider and overwrites the snapshot.
// It returns the number of fountains written.
func (a *RefreshActivities) RefreshFountains(ctx context.Context) (int, error) {
	n, err := a.Fountains.Refresh(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh fountains: %w", err)
	}
	activity.GetLogger(ctx).Info("fountain snapshot refreshed", "count", n)
	return n, nil
}
