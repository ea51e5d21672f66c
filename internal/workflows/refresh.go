package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Registered names, shared by the worker and the schedule.
const (
	RefreshWorkflowName  = "RefreshFountainsWorkflow"
	RefreshActivityName  = "RefreshFountains"
	RefreshScheduleID    = "fountain-snapshot-refresh"
	RefreshWorkflowIDFmt = "fountain-refresh-%s"
)

// RefreshInput tunes one refresh run. Zero values use the defaults.
type RefreshInput struct {
	MaxAttempts int32
}

// RefreshResult reports what a refresh run wrote.
type RefreshResult struct {
	Count       int       `json:"count"`
	CompletedAt time.Time `json:"completed_at"`
}

// RefreshFountainsWorkflow refreshes the fountain snapshot. Overpass rejects
// bursts with 429, so retries back off exponentially up to five minutes.
func RefreshFountainsWorkflow(ctx workflow.Context, input RefreshInput) (*RefreshResult, error) {
	logger := workflow.GetLogger(ctx)

	attempts := input.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    15 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    attempts,
		},
	})

	var count int
	if err := workflow.ExecuteActivity(ctx, RefreshActivityName).Get(ctx, &count); err != nil {
		logger.Warn("snapshot refresh failed, previous snapshot kept", "error", err)
		return nil, err
	}

	logger.Info("snapshot refresh complete", "count", count)
	return &RefreshResult{Count: count, CompletedAt: workflow.Now(ctx)}, nil
}
