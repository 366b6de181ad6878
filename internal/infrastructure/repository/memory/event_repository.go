package memory

import (
	"context"
	"sync"

	"github.com/resultatbasen/ingest/internal/domain/event"
)

type EventRepository struct {
	mu   sync.RWMutex
	rows []event.Event
}

func NewEventRepository(seed []event.Event) *EventRepository {
	rows := make([]event.Event, len(seed))
	copy(rows, seed)
	for i := range rows {
		if rows[i].ID == 0 {
			rows[i].ID = int64(i + 1)
		}
	}
	return &EventRepository{rows: rows}
}

func (r *EventRepository) ListAll(_ context.Context) ([]event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]event.Event, 0, len(r.rows))
	out = append(out, r.rows...)
	return out, nil
}
