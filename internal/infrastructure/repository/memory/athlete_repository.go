package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
)

type AthleteRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]athlete.Athlete
	byExt  map[string]int64
}

func NewAthleteRepository(seed []athlete.Athlete) *AthleteRepository {
	r := &AthleteRepository{
		rows:  make(map[int64]athlete.Athlete),
		byExt: make(map[string]int64),
	}
	for _, item := range seed {
		r.nextID++
		item.ID = r.nextID
		r.rows[item.ID] = item
		if item.ExternalID != "" {
			r.byExt[item.ExternalID] = item.ID
		}
	}
	return r
}

func (r *AthleteRepository) ListAll(_ context.Context) ([]athlete.Athlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]athlete.Athlete, 0, len(r.rows))
	for _, item := range r.rows {
		out = append(out, item)
	}
	return out, nil
}

func (r *AthleteRepository) GetByExternalID(_ context.Context, externalID string) (athlete.Athlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExt[externalID]
	if !ok {
		return athlete.Athlete{}, fmt.Errorf("athlete external_id=%s not found", externalID)
	}
	return r.rows[id], nil
}

func (r *AthleteRepository) Create(_ context.Context, a athlete.Athlete) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	externalID := strings.TrimSpace(a.ExternalID)
	if _, exists := r.byExt[externalID]; exists {
		return 0, nil
	}

	r.nextID++
	a.ID = r.nextID
	r.rows[a.ID] = a
	if externalID != "" {
		r.byExt[externalID] = a.ID
	}
	return a.ID, nil
}

func (r *AthleteRepository) BackfillBirthYear(_ context.Context, id int64, year int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.rows[id]
	if !ok || item.BirthYear != nil {
		return nil
	}
	item.BirthYear = &year
	r.rows[id] = item
	return nil
}

func (r *AthleteRepository) ListMissingGender(_ context.Context, limit int) ([]athlete.Athlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]athlete.Athlete, 0)
	for id := int64(1); id <= r.nextID; id++ {
		item, ok := r.rows[id]
		if !ok || item.Gender != athlete.GenderUnknown {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *AthleteRepository) UpdateGender(_ context.Context, id int64, gender string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("athlete id=%d not found", id)
	}
	item.Gender = gender
	r.rows[id] = item
	return nil
}
