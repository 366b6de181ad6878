package club

import (
	"context"
	"strings"
)

// Club is identified by its display name and never updated after
// creation.
type Club struct {
	ID   int64
	Name string
}

// NormalizeName collapses whitespace so that lookups are insensitive
// to source formatting.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

type Repository interface {
	ListAll(ctx context.Context) ([]Club, error)
	GetByName(ctx context.Context, name string) (Club, error)
	Create(ctx context.Context, c Club) (int64, error)
}
