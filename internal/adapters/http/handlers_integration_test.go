//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	handler "github.com/samirrijal/pulpuluck/internal/adapters/http"
	"github.com/samirrijal/pulpuluck/internal/adapters/postgres"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
	"github.com/samirrijal/pulpuluck/internal/pkg/config"
)

// setupTestDB connects to the test database and applies the feedback schema.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Setenv("PULPULUCK_FEEDBACK_BACKEND", config.BackendPostgres)
	cfg, err := config.Load("pulpuluck-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 5)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	schema, err := os.ReadFile("../../../migrations/001_fountain_feedback.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	return db
}

// setupTestDeps wires the feedback service to the real repository, no broker.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	return &handler.Dependencies{
		Fountains: usecases.NewFountainService(&mockFountainProvider{}, nil),
		Routes:    usecases.NewRouteService(&mockRouteProvider{}, 0),
		Feedback:  usecases.NewFeedbackService(postgres.NewFeedbackRepo(db), nil),
		DB:        db,
	}
}

// uniqueID keeps runs independent without truncating the table.
func uniqueID(prefix string) string {
	return prefix + "-" + time.Now().Format("20060102150405.000000000")
}

func TestVote_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	id := uniqueID("it-vote")

	for i := 0; i < 2; i++ {
		if status, body := vote(t, app, "/v1/feedback/"+id+"/vote", `{"voteType":"running"}`); status != 200 {
			t.Fatalf("vote %d: expected 200, got %d: %s", i, status, body)
		}
	}
	vote(t, app, "/v1/feedback/"+id+"/vote", `{"voteType":"abandoned"}`)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/feedback/"+id, nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fb domain.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := domain.Feedback{FountainID: id, Running: 2, Abandoned: 1}
	if fb != want {
		t.Errorf("got %+v, want %+v", fb, want)
	}
}

func TestGetFeedback_Integration_RegistersZeroRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	id := uniqueID("it-zero")

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/feedback/"+id, nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var fb domain.Feedback
	json.NewDecoder(resp.Body).Decode(&fb)
	if fb != (domain.Feedback{FountainID: id}) {
		t.Errorf("expected zero record, got %+v", fb)
	}

	var count int
	if err := db.Pool.QueryRow(context.Background(),
		`SELECT count(*) FROM fountain_feedback WHERE fountain_id = $1`, id).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected the id to be registered once, got %d rows", count)
	}
}

func TestListFeedback_Integration_InsertionOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	first, second := uniqueID("it-order-a"), uniqueID("it-order-b")
	vote(t, app, "/v1/feedback/"+second+"/vote", `{"voteType":"running"}`)
	vote(t, app, "/v1/feedback/"+first+"/vote", `{"voteType":"running"}`)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feedback", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var list []domain.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	var seen []string
	for _, fb := range list {
		if fb.FountainID == first || fb.FountainID == second {
			seen = append(seen, fb.FountainID)
		}
	}
	if len(seen) != 2 || seen[0] != second || seen[1] != first {
		t.Errorf("expected %s before %s, got %v", second, first, seen)
	}
}

func TestReady_Integration_Database(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
