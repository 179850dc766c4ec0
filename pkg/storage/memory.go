package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps runs in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

func (s *MemoryStore) SaveRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, preset string, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		if preset != "" && r.Preset != preset {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out[:min(len(out), listLimit(limit))], nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func sortNewestFirst(runs []*Run) {
	slices.SortStableFunc(runs, func(a, b *Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*MemoryStore)(nil)
