package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

// GivenNameRepository reads the seeded given-name frequency table used
// by gender enrichment.
type GivenNameRepository struct {
	db *sqlx.DB
}

func NewGivenNameRepository(db *sqlx.DB) *GivenNameRepository {
	return &GivenNameRepository{db: db}
}

func (r *GivenNameRepository) GenderByGivenName(ctx context.Context, name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return athlete.GenderUnknown, nil
	}

	query, args, err := qb.Select("gender").From("given_names").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return athlete.GenderUnknown, fmt.Errorf("build select given name query: %w", err)
	}

	var gender string
	if err := r.db.GetContext(ctx, &gender, query, args...); err != nil {
		if isNotFound(err) {
			return athlete.GenderUnknown, nil
		}
		return athlete.GenderUnknown, fmt.Errorf("select given name: %w", err)
	}
	return gender, nil
}
