// Package jsonfile persists feedback counters in a flat JSON document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// FeedbackRepo implements ports.FeedbackRepository. The whole file is
// rewritten on every change.
type FeedbackRepo struct {
	path string

	mu      sync.Mutex
	loaded  bool
	records map[string]*domain.Feedback
	order   []string
}

// NewFeedbackRepo creates a repository backed by path. The file is read on first use.
func NewFeedbackRepo(path string) *FeedbackRepo {
	return &FeedbackRepo{path: path, records: map[string]*domain.Feedback{}}
}

// Get returns the counters for id, registering a zero record for unseen ids.
func (r *FeedbackRepo) Get(ctx context.Context, id string) (*domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	if fb, ok := r.records[id]; ok {
		out := *fb
		return &out, nil
	}

	fb := domain.Feedback{FountainID: id}
	if err := r.save(r.listWith(fb)); err != nil {
		return nil, err
	}
	r.commit(fb)
	return &fb, nil
}

// Increment adds one vote to id. The in-memory record changes only after
// the file was written.
func (r *FeedbackRepo) Increment(ctx context.Context, id string, vote domain.VoteType) (*domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	next := domain.Feedback{FountainID: id}
	if fb, ok := r.records[id]; ok {
		next = *fb
	}
	next.Add(vote)

	if err := r.save(r.listWith(next)); err != nil {
		return nil, err
	}
	r.commit(next)
	out := next
	return &out, nil
}

// List returns every record in insertion order.
func (r *FeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	out := make([]domain.Feedback, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.records[id])
	}
	return out, nil
}

// listWith returns the stored records in order with fb replacing or
// appended after them.
func (r *FeedbackRepo) listWith(fb domain.Feedback) []domain.Feedback {
	list := make([]domain.Feedback, 0, len(r.order)+1)
	for _, id := range r.order {
		if id == fb.FountainID {
			list = append(list, fb)
			continue
		}
		list = append(list, *r.records[id])
	}
	if _, ok := r.records[fb.FountainID]; !ok {
		list = append(list, fb)
	}
	return list
}

func (r *FeedbackRepo) commit(fb domain.Feedback) {
	if _, ok := r.records[fb.FountainID]; !ok {
		r.order = append(r.order, fb.FountainID)
	}
	rec := fb
	r.records[fb.FountainID] = &rec
}

// load reads the file once. A missing or corrupt file starts an empty store.
func (r *FeedbackRepo) load() {
	if r.loaded {
		return
	}
	r.loaded = true

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("feedback file unreadable, starting empty", "path", r.path, "error", err)
		}
		return
	}

	var list []domain.Feedback
	if err := json.Unmarshal(data, &list); err != nil {
		slog.Warn("feedback file corrupt, starting empty", "path", r.path, "error", err)
		return
	}
	for _, fb := range list {
		if _, dup := r.records[fb.FountainID]; dup {
			continue
		}
		rec := fb
		r.records[fb.FountainID] = &rec
		r.order = append(r.order, fb.FountainID)
	}
}

func (r *FeedbackRepo) save(list []domain.Feedback) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feedback dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write feedback: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write feedback: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace feedback file: %w", err)
	}
	return nil
}
