package result

import "context"

// Repository is the only writer of result rows.
type Repository interface {
	// InsertBatch writes the batch under the natural-key constraint,
	// skipping rows whose key already exists, and returns the number
	// of rows actually inserted.
	InsertBatch(ctx context.Context, items []Result) (int, error)
	// Insert writes a single row; ok is false when the natural key was
	// already present.
	Insert(ctx context.Context, item Result) (bool, error)
	Count(ctx context.Context) (int64, error)
	// ListCorruptIDs returns ids of rows that predate the ingestion
	// rules: an OK status with a non-positive canonical value or an
	// empty display string.
	ListCorruptIDs(ctx context.Context, limit int) ([]int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}
