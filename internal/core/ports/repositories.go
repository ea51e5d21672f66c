package ports

import (
	"context"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// FeedbackRepository persists fountain vote counters.
type FeedbackRepository interface {
	// Get returns the counters for a fountain, registering a zero record for unseen ids.
	Get(ctx context.Context, fountainID string) (*domain.Feedback, error)
	// Increment adds one vote and returns the updated counters.
	Increment(ctx context.Context, fountainID string, vote domain.VoteType) (*domain.Feedback, error)
	// List returns every known record in insertion order.
	List(ctx context.Context) ([]domain.Feedback, error)
}

// SnapshotStore holds the most recent successful fountain set.
type SnapshotStore interface {
	// Read returns domain.ErrSnapshotMissing when nothing was written yet.
	Read(ctx context.Context) (*domain.FountainSnapshot, error)
	// Write replaces the stored snapshot wholesale.
	Write(ctx context.Context, fountains []domain.Fountain) error
}
