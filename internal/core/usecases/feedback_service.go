package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/pkg/metrics"
)

// FeedbackService records crowd-sourced fountain status votes.
type FeedbackService struct {
	repo   ports.FeedbackRepository
	events ports.EventPublisher
}

// NewFeedbackService creates a new FeedbackService. events may be nil.
func NewFeedbackService(repo ports.FeedbackRepository, events ports.EventPublisher) *FeedbackService {
	return &FeedbackService{repo: repo, events: events}
}

// Get returns the counters for a fountain; unseen ids have all counts at zero.
func (s *FeedbackService) Get(ctx context.Context, fountainID string) (*domain.Feedback, error) {
	if strings.TrimSpace(fountainID) == "" {
		return nil, fmt.Errorf("fountain id must not be empty")
	}
	return s.repo.Get(ctx, fountainID)
}

// Vote validates voteType and increments the matching counter.
// Unknown vote types return domain.ErrInvalidVoteType without touching the store.
func (s *FeedbackService) Vote(ctx context.Context, fountainID, voteType string) (*domain.Feedback, error) {
	if strings.TrimSpace(fountainID) == "" {
		return nil, fmt.Errorf("fountain id must not be empty")
	}
	vote, err := domain.ParseVoteType(voteType)
	if err != nil {
		return nil, err
	}

	fb, err := s.repo.Increment(ctx, fountainID, vote)
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}
	metrics.FeedbackVotes.WithLabelValues(string(vote)).Inc()

	if s.events != nil {
		ev := &domain.VoteEvent{
			FountainID: fountainID,
			VoteType:   vote,
			Feedback:   *fb,
			Time:       time.Now().UTC(),
		}
		if err := s.events.PublishVote(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish vote event failed", "fountain_id", fountainID, "error", err)
		}
	}

	return fb, nil
}

// List returns all feedback records.
func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	return s.repo.List(ctx)
}
