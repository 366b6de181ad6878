package event

import "context"

// Repository exposes the seeded event taxonomy. Events are reference
// data; the pipeline never creates them.
type Repository interface {
	ListAll(ctx context.Context) ([]Event, error)
}
