package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/resultatbasen/ingest/internal/domain/season"
)

type SeasonRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]season.Season
	byKey  map[string]int64
}

func NewSeasonRepository(seed []season.Season) *SeasonRepository {
	r := &SeasonRepository{
		rows:  make(map[int64]season.Season),
		byKey: make(map[string]int64),
	}
	for _, item := range seed {
		r.nextID++
		item.ID = r.nextID
		r.rows[item.ID] = item
		r.byKey[season.Key(item.Year, item.Indoor)] = item.ID
	}
	return r
}

func (r *SeasonRepository) ListAll(_ context.Context) ([]season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]season.Season, 0, len(r.rows))
	for _, item := range r.rows {
		out = append(out, item)
	}
	return out, nil
}

func (r *SeasonRepository) Get(_ context.Context, year int, indoor bool) (season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[season.Key(year, indoor)]
	if !ok {
		return season.Season{}, fmt.Errorf("season year=%d indoor=%t not found", year, indoor)
	}
	return r.rows[id], nil
}

func (r *SeasonRepository) Create(_ context.Context, s season.Season) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := season.Key(s.Year, s.Indoor)
	if _, exists := r.byKey[key]; exists {
		return 0, nil
	}

	r.nextID++
	s.ID = r.nextID
	r.rows[s.ID] = s
	r.byKey[key] = s.ID
	return s.ID, nil
}
