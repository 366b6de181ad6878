package athlete

import "context"

// Repository persists athletes keyed by their source-site identifier.
type Repository interface {
	ListAll(ctx context.Context) ([]Athlete, error)
	GetByExternalID(ctx context.Context, externalID string) (Athlete, error)
	// Create inserts the athlete unless the external id already exists.
	// On conflict it returns 0 with no error; the caller re-queries and
	// adopts the winning row.
	Create(ctx context.Context, a Athlete) (int64, error)
	// BackfillBirthYear fills in a missing birth year and is a no-op
	// when one is already recorded.
	BackfillBirthYear(ctx context.Context, id int64, year int) error
	ListMissingGender(ctx context.Context, limit int) ([]Athlete, error)
	UpdateGender(ctx context.Context, id int64, gender string) error
}

// GivenNameIndex maps first names to the gender most frequently
// registered for them. Best effort; unknown names return
// GenderUnknown with no error.
type GivenNameIndex interface {
	GenderByGivenName(ctx context.Context, name string) (string, error)
}
