package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// FeedbackRepo implements ports.FeedbackRepository with pgx.
type FeedbackRepo struct {
	db *DB
}

// NewFeedbackRepo creates a new FeedbackRepo.
func NewFeedbackRepo(db *DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// voteColumns maps vote types to counter columns. Only these names are ever
// interpolated into SQL.
var voteColumns = map[domain.VoteType]string{
	domain.VoteRunning:      "running",
	domain.VoteOutOfService: "out_of_service",
	domain.VoteAbandoned:    "abandoned",
}

// Get returns the counters for a fountain, inserting a zero row for unseen ids.
func (r *FeedbackRepo) Get(ctx context.Context, fountainID string) (*domain.Feedback, error) {
	row := r.db.Pool.QueryRow(ctx, `
		INSERT INTO fountain_feedback (fountain_id)
		VALUES ($1)
		ON CONFLICT (fountain_id) DO UPDATE SET fountain_id = EXCLUDED.fountain_id
		RETURNING fountain_id, running, out_of_service, abandoned
	`, fountainID)
	return scanFeedback(row)
}

// Increment atomically adds one vote.
func (r *FeedbackRepo) Increment(ctx context.Context, fountainID string, vote domain.VoteType) (*domain.Feedback, error) {
	col, ok := voteColumns[vote]
	if !ok {
		return nil, domain.ErrInvalidVoteType
	}
	query := fmt.Sprintf(`
		INSERT INTO fountain_feedback (fountain_id, %[1]s)
		VALUES ($1, 1)
		ON CONFLICT (fountain_id) DO UPDATE
		SET %[1]s = fountain_feedback.%[1]s + 1, updated_at = now()
		RETURNING fountain_id, running, out_of_service, abandoned
	`, col)
	return scanFeedback(r.db.Pool.QueryRow(ctx, query, fountainID))
}

// List returns every record in insertion order.
func (r *FeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT fountain_id, running, out_of_service, abandoned
		FROM fountain_feedback
		ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *fb)
	}
	return out, rows.Err()
}

func scanFeedback(row pgx.Row) (*domain.Feedback, error) {
	var fb domain.Feedback
	if err := row.Scan(&fb.FountainID, &fb.Running, &fb.OutOfService, &fb.Abandoned); err != nil {
		return nil, err
	}
	return &fb, nil
}
