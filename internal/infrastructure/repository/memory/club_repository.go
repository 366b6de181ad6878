package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/resultatbasen/ingest/internal/domain/club"
)

type ClubRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]club.Club
	byName map[string]int64
}

func NewClubRepository(seed []club.Club) *ClubRepository {
	r := &ClubRepository{
		rows:   make(map[int64]club.Club),
		byName: make(map[string]int64),
	}
	for _, item := range seed {
		r.nextID++
		item.ID = r.nextID
		r.rows[item.ID] = item
		r.byName[item.Name] = item.ID
	}
	return r
}

func (r *ClubRepository) ListAll(_ context.Context) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Club, 0, len(r.rows))
	for _, item := range r.rows {
		out = append(out, item)
	}
	return out, nil
}

func (r *ClubRepository) GetByName(_ context.Context, name string) (club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return club.Club{}, fmt.Errorf("club name=%q not found", name)
	}
	return r.rows[id], nil
}

func (r *ClubRepository) Create(_ context.Context, c club.Club) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[c.Name]; exists {
		return 0, nil
	}

	r.nextID++
	c.ID = r.nextID
	r.rows[c.ID] = c
	r.byName[c.Name] = c.ID
	return c.ID, nil
}
