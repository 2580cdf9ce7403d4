package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Mvlo566/POKETL/internal/crawler"
	"github.com/Mvlo566/POKETL/internal/model"
	"github.com/Mvlo566/POKETL/internal/store"
)

// memoryStore is an in-memory DocumentStore.
type memoryStore struct {
	docs map[string]*model.Tournament
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string]*model.Tournament)}
}

func (m *memoryStore) Exists(id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.docs[id]
	return ok, nil
}

func (m *memoryStore) Create(t *model.Tournament) (store.Written, error) {
	if _, ok := m.docs[t.ID]; ok {
		return store.Written{}, store.ErrExists
	}
	m.docs[t.ID] = t
	return store.Written{Path: t.ID + ".json"}, nil
}

// TestExistenceStep tests the existence check.
func TestExistenceStep(t *testing.T) {
	t.Parallel()

	s := newMemoryStore()
	s.docs["cup1"] = &model.Tournament{ID: "cup1"}
	step := NewExistenceStep(s, slog.Default())

	job := newJob("cup1")
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.Done || job.Outcome != model.OutcomeSkippedExisting {
		t.Errorf("expected skipped job, got %+v", job)
	}

	job = newJob("cup2")
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Done {
		t.Error("absent document should not finish the job")
	}

	s.err = errors.New("disk on fire")
	if err := step.Do(context.Background(), newJob("cup3")); err == nil {
		t.Error("expected store error")
	}
}

// TestStandingsStep tests fetching and the empty-standings skip.
func TestStandingsStep(t *testing.T) {
	t.Parallel()

	site := newFakeSite(t)
	site.populate()
	f := newTestFetcher(t, site.server.URL)
	step := NewStandingsStep(f, crawler.NewStandingsExtractor(f), slog.Default())

	job := newJob("cup1")
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(job.Players) != 2 || job.Done {
		t.Errorf("expected 2 players and an open job, got %d players, done=%v", len(job.Players), job.Done)
	}

	job = newJob("cup3")
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.Done || job.Outcome != model.OutcomeSkippedEmpty {
		t.Errorf("expected skipped empty job, got %+v", job)
	}

	if err := step.Do(context.Background(), newJob("unknown")); err == nil {
		t.Error("expected error for missing standings page")
	}
}

// TestAssembleAndPersistSteps tests document assembly and writing.
func TestAssembleAndPersistSteps(t *testing.T) {
	t.Parallel()

	s := newMemoryStore()
	assemble := NewAssembleStep(slog.Default())
	persist := NewPersistStep(s, slog.Default())

	job := newJob("cup1")
	if err := persist.Do(context.Background(), job); err == nil {
		t.Error("expected error persisting an unassembled job")
	}

	p, _ := model.NewPlayer("ash", "Ash", 1, nil, nil)
	m, _ := model.NewMatch(model.MatchResult{PlayerID: "ash", Score: 2}, model.MatchResult{PlayerID: "gary", Score: 0})
	job.Players = []model.Player{p}
	job.Matches = []model.Match{m}

	if err := assemble.Do(context.Background(), job); err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if job.Tournament == nil || job.Tournament.ID != "cup1" {
		t.Fatalf("unexpected tournament %+v", job.Tournament)
	}

	if err := persist.Do(context.Background(), job); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if job.Outcome != model.OutcomeWritten || job.Written.Path != "cup1.json" {
		t.Errorf("unexpected job state %+v", job)
	}

	again := newJob("cup1")
	again.Tournament = job.Tournament
	if err := persist.Do(context.Background(), again); !errors.Is(err, store.ErrExists) {
		t.Errorf("expected store.ErrExists, got %v", err)
	}
}
