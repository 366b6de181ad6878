package meet

import (
	"context"
	"time"
)

type Repository interface {
	ListAll(ctx context.Context) ([]Meet, error)
	GetByKey(ctx context.Context, nameKey string, date time.Time) (Meet, error)
	Create(ctx context.Context, m Meet) (int64, error)
}
