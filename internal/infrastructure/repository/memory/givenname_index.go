package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
)

type GivenNameIndex struct {
	mu   sync.RWMutex
	rows map[string]string
}

func NewGivenNameIndex(seed map[string]string) *GivenNameIndex {
	rows := make(map[string]string, len(seed))
	for name, gender := range seed {
		rows[strings.ToLower(strings.TrimSpace(name))] = gender
	}
	return &GivenNameIndex{rows: rows}
}

func (g *GivenNameIndex) GenderByGivenName(_ context.Context, name string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gender, ok := g.rows[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return athlete.GenderUnknown, nil
	}
	return gender, nil
}
