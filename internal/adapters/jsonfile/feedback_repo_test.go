package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

func TestFeedbackRepo_IncrementPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fountain-feedback.json")
	ctx := context.Background()

	repo := NewFeedbackRepo(path)
	_, err := repo.Increment(ctx, "f1", domain.VoteRunning)
	require.NoError(t, err)
	fb, err := repo.Increment(ctx, "f1", domain.VoteRunning)
	require.NoError(t, err)
	assert.Equal(t, domain.Feedback{FountainID: "f1", Running: 2}, *fb)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk []domain.Feedback
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, []domain.Feedback{{FountainID: "f1", Running: 2}}, onDisk)

	reopened := NewFeedbackRepo(path)
	got, err := reopened.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Running)
}

func TestFeedbackRepo_GetRegistersZeroRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	repo := NewFeedbackRepo(path)

	fb, err := repo.Get(context.Background(), "node/9")
	require.NoError(t, err)
	assert.Equal(t, domain.Feedback{FountainID: "node/9"}, *fb)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Feedback{{FountainID: "node/9"}}, list)
	assert.FileExists(t, path)
}

func TestFeedbackRepo_ReturnsCopies(t *testing.T) {
	repo := NewFeedbackRepo(filepath.Join(t.TempDir(), "feedback.json"))
	ctx := context.Background()

	fb, err := repo.Increment(ctx, "f1", domain.VoteAbandoned)
	require.NoError(t, err)
	fb.Abandoned = 100

	got, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Abandoned)
}

func TestFeedbackRepo_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewFeedbackRepo(path)
	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	fb, err := repo.Increment(context.Background(), "f1", domain.VoteOutOfService)
	require.NoError(t, err)
	assert.Equal(t, 1, fb.OutOfService)
}

func TestFeedbackRepo_LoadKeepsFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	seed := `[{"fountainId":"b","running":1,"outOfService":0,"abandoned":0},
	          {"fountainId":"a","running":0,"outOfService":2,"abandoned":0}]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	repo := NewFeedbackRepo(path)
	_, err := repo.Increment(context.Background(), "c", domain.VoteRunning)
	require.NoError(t, err)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].FountainID)
	assert.Equal(t, "a", list[1].FountainID)
	assert.Equal(t, "c", list[2].FountainID)
}

func TestFeedbackRepo_ConcurrentVotes(t *testing.T) {
	repo := NewFeedbackRepo(filepath.Join(t.TempDir(), "feedback.json"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Increment(ctx, "f1", domain.VoteRunning)
		}()
	}
	wg.Wait()

	fb, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 20, fb.Running)
}

func TestFeedbackRepo_FailedSaveLeavesCountsUnchanged(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ctx := context.Background()

	repo := NewFeedbackRepo(filepath.Join(dir, "fountain-feedback.json"))
	_, err := repo.Increment(ctx, "f1", domain.VoteRunning)
	require.NoError(t, err)

	// a plain file where the directory should be makes every save fail
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	_, err = repo.Increment(ctx, "f1", domain.VoteRunning)
	assert.Error(t, err)
	_, err = repo.Increment(ctx, "f2", domain.VoteOutOfService)
	assert.Error(t, err)
	_, err = repo.Get(ctx, "f3")
	assert.Error(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Feedback{{FountainID: "f1", Running: 1}}, list)
}
