package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/resultatbasen/ingest/internal/domain/result"
)

// ResultRepository mirrors the store's natural-key constraint so
// idempotence tests run against the same conflict semantics.
type ResultRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]result.Result
	byKey  map[string]int64

	// FailBatches makes the next InsertBatch calls fail, for
	// exercising the binary-split fallback.
	FailBatches int
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		rows:  make(map[int64]result.Result),
		byKey: make(map[string]int64),
	}
}

func (r *ResultRepository) InsertBatch(_ context.Context, items []result.Result) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailBatches > 0 {
		r.FailBatches--
		return 0, fmt.Errorf("simulated batch failure")
	}

	inserted := 0
	for _, item := range items {
		if r.insertLocked(item) {
			inserted++
		}
	}
	return inserted, nil
}

func (r *ResultRepository) Insert(_ context.Context, item result.Result) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(item), nil
}

func (r *ResultRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.rows)), nil
}

func (r *ResultRepository) ListCorruptIDs(_ context.Context, limit int) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int64
	for id, item := range r.rows {
		if item.Status != result.StatusOK {
			continue
		}
		if item.Value <= 0 || item.Display == "" {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *ResultRepository) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		item, ok := r.rows[id]
		if !ok {
			continue
		}
		delete(r.rows, id)
		delete(r.byKey, resultKey(item))
		deleted++
	}
	return deleted, nil
}

// ListAll is test-only visibility into stored rows.
func (r *ResultRepository) ListAll() []result.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]result.Result, 0, len(r.rows))
	for _, item := range r.rows {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ResultRepository) insertLocked(item result.Result) bool {
	key := resultKey(item)
	if _, exists := r.byKey[key]; exists {
		return false
	}

	r.nextID++
	item.ID = r.nextID
	r.rows[item.ID] = item
	r.byKey[key] = item.ID
	return true
}

func resultKey(item result.Result) string {
	meetID := "-"
	if item.MeetID != nil {
		meetID = strconv.FormatInt(*item.MeetID, 10)
	}
	return fmt.Sprintf("%d|%d|%s|%s|%d", item.AthleteID, item.EventID, meetID, item.Round, item.Heat)
}
