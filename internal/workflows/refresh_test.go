package workflows

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
)

type stubProvider struct {
	calls     atomic.Int32
	failFirst int32
	fountains []domain.Fountain
}

func (p *stubProvider) FetchFountains(ctx context.Context) ([]domain.Fountain, error) {
	if p.calls.Add(1) <= p.failFirst {
		return nil, errors.New("overpass: HTTP 429")
	}
	return p.fountains, nil
}

type stubSnapshots struct {
	written []domain.Fountain
}

func (s *stubSnapshots) Read(ctx context.Context) (*domain.FountainSnapshot, error) {
	if s.written == nil {
		return nil, domain.ErrSnapshotMissing
	}
	return &domain.FountainSnapshot{Fountains: s.written}, nil
}

func (s *stubSnapshots) Write(ctx context.Context, fountains []domain.Fountain) error {
	s.written = fountains
	return nil
}

func newEnv(t *testing.T, provider *stubProvider, snaps *stubSnapshots) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(RefreshFountainsWorkflow)
	env.RegisterActivity(&RefreshActivities{
		Fountains: usecases.NewFountainService(provider, snaps),
	})
	return env
}

func TestRefreshWorkflow_WritesSnapshot(t *testing.T) {
	provider := &stubProvider{fountains: []domain.Fountain{
		{ID: "1", Location: domain.GeoPoint{Lat: 40.18, Lon: 44.51}, Name: "Drinking Water"},
		{ID: "2", Location: domain.GeoPoint{Lat: 40.19, Lon: 44.52}, Name: "Drinking Water"},
	}}
	snaps := &stubSnapshots{}
	env := newEnv(t, provider, snaps)

	env.ExecuteWorkflow(RefreshFountainsWorkflow, RefreshInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result RefreshResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 2, result.Count)
	assert.Len(t, snaps.written, 2)
}

func TestRefreshWorkflow_RetriesProviderFailure(t *testing.T) {
	provider := &stubProvider{failFirst: 2, fountains: []domain.Fountain{{ID: "1"}}}
	snaps := &stubSnapshots{}
	env := newEnv(t, provider, snaps)

	env.ExecuteWorkflow(RefreshFountainsWorkflow, RefreshInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, int32(3), provider.calls.Load())
	assert.Len(t, snaps.written, 1)
}

func TestRefreshWorkflow_GivesUpAndKeepsSnapshot(t *testing.T) {
	provider := &stubProvider{failFirst: 100}
	previous := []domain.Fountain{{ID: "old"}}
	snaps := &stubSnapshots{written: previous}
	env := newEnv(t, provider, snaps)

	env.ExecuteWorkflow(RefreshFountainsWorkflow, RefreshInput{MaxAttempts: 2})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.Equal(t, int32(2), provider.calls.Load())
	assert.Equal(t, previous, snaps.written)
}

func TestRefreshWorkflow_MockedActivity(t *testing.T) {
	env := newEnv(t, &stubProvider{}, &stubSnapshots{})
	env.OnActivity(RefreshActivityName, mock.Anything).Return(42, nil)

	env.ExecuteWorkflow(RefreshFountainsWorkflow, RefreshInput{})

	require.NoError(t, env.GetWorkflowError())
	var result RefreshResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 42, result.Count)
}
