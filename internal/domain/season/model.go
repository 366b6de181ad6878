package season

import (
	"context"
	"fmt"
)

// Season is a (year, indoor) pair.
type Season struct {
	ID     int64
	Year   int
	Indoor bool
}

// Key is the cache key for a season's natural key.
func Key(year int, indoor bool) string {
	return fmt.Sprintf("%d:%t", year, indoor)
}

type Repository interface {
	ListAll(ctx context.Context) ([]Season, error)
	Get(ctx context.Context, year int, indoor bool) (Season, error)
	Create(ctx context.Context, s Season) (int64, error)
}
