package memory

import (
	"context"
	"sync"

	"github.com/resultatbasen/ingest/internal/usecase"
)

type CheckpointStore struct {
	mu   sync.RWMutex
	rows map[string]usecase.Checkpoint
}

func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{rows: make(map[string]usecase.Checkpoint)}
}

func (s *CheckpointStore) Load(_ context.Context, stream string) (usecase.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.rows[stream]
	return cp, ok, nil
}

func (s *CheckpointStore) Save(_ context.Context, stream string, cp usecase.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[stream] = cp
	return nil
}

func (s *CheckpointStore) List(_ context.Context) (map[string]usecase.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]usecase.Checkpoint, len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out, nil
}
