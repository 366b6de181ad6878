package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/resultatbasen/ingest/internal/domain/meet"
)

type MeetRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]meet.Meet
	byKey  map[string]int64
}

func NewMeetRepository(seed []meet.Meet) *MeetRepository {
	r := &MeetRepository{
		rows:  make(map[int64]meet.Meet),
		byKey: make(map[string]int64),
	}
	for _, item := range seed {
		r.nextID++
		item.ID = r.nextID
		r.rows[item.ID] = item
		r.byKey[meet.Key(item.Name, item.StartDate)] = item.ID
	}
	return r
}

func (r *MeetRepository) ListAll(_ context.Context) ([]meet.Meet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]meet.Meet, 0, len(r.rows))
	for _, item := range r.rows {
		out = append(out, item)
	}
	return out, nil
}

func (r *MeetRepository) GetByKey(_ context.Context, nameKey string, date time.Time) (meet.Meet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[nameKey+"|"+date.Format("2006-01-02")]
	if !ok {
		return meet.Meet{}, fmt.Errorf("meet name_key=%q not found", nameKey)
	}
	return r.rows[id], nil
}

func (r *MeetRepository) Create(_ context.Context, m meet.Meet) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := meet.Key(m.Name, m.StartDate)
	if _, exists := r.byKey[key]; exists {
		return 0, nil
	}

	r.nextID++
	m.ID = r.nextID
	r.rows[m.ID] = m
	r.byKey[key] = m.ID
	return m.ID, nil
}
