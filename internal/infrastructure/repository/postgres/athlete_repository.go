package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

type AthleteRepository struct {
	db *sqlx.DB
}

var athleteSelectColumns = []string{
	"id",
	"external_id",
	"first_name",
	"last_name",
	"birth_year",
	"birth_date",
	"gender",
	"nationality",
	"created_at",
	"updated_at",
}

func NewAthleteRepository(db *sqlx.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

func (r *AthleteRepository) ListAll(ctx context.Context) ([]athlete.Athlete, error) {
	query, args, err := qb.Select(athleteSelectColumns...).From("athletes").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select athletes query: %w", err)
	}

	var rows []athleteTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select athletes: %w", err)
	}

	out := make([]athlete.Athlete, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAthleteRow(row))
	}
	return out, nil
}

func (r *AthleteRepository) GetByExternalID(ctx context.Context, externalID string) (athlete.Athlete, error) {
	query, args, err := qb.Select(athleteSelectColumns...).From("athletes").
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return athlete.Athlete{}, fmt.Errorf("build select athlete query: %w", err)
	}

	var row athleteTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return athlete.Athlete{}, fmt.Errorf("athlete external_id=%s not found", externalID)
		}
		return athlete.Athlete{}, fmt.Errorf("select athlete: %w", err)
	}
	return mapAthleteRow(row), nil
}

func (r *AthleteRepository) Create(ctx context.Context, a athlete.Athlete) (int64, error) {
	model := athleteInsertModel{
		ExternalID:  a.ExternalID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		BirthYear:   intPtrToNullInt64(a.BirthYear),
		BirthDate:   a.BirthDate,
		Gender:      optionalString(a.Gender),
		Nationality: optionalString(a.Nationality),
	}
	query, args, err := qb.InsertModel("athletes", model, `ON CONFLICT (external_id) DO NOTHING
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("build insert athlete query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			// Natural key already present.
			return 0, nil
		}
		return 0, fmt.Errorf("insert athlete: %w", err)
	}
	return id, nil
}

func (r *AthleteRepository) BackfillBirthYear(ctx context.Context, id int64, year int) error {
	query, args, err := qb.Update("athletes").
		Set("birth_year", year).
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("id", id),
			qb.IsNull("birth_year"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build backfill birth year query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("backfill birth year: %w", err)
	}
	return nil
}

func (r *AthleteRepository) ListMissingGender(ctx context.Context, limit int) ([]athlete.Athlete, error) {
	query, args, err := qb.Select(athleteSelectColumns...).From("athletes").
		Where(qb.IsNull("gender")).
		OrderBy("id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select athletes missing gender query: %w", err)
	}

	var rows []athleteTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select athletes missing gender: %w", err)
	}

	out := make([]athlete.Athlete, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAthleteRow(row))
	}
	return out, nil
}

func (r *AthleteRepository) UpdateGender(ctx context.Context, id int64, gender string) error {
	query, args, err := qb.Update("athletes").
		Set("gender", gender).
		SetExpr("updated_at", "now()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update gender query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update gender: %w", err)
	}
	return nil
}

func mapAthleteRow(row athleteTableModel) athlete.Athlete {
	return athlete.Athlete{
		ID:          row.ID,
		ExternalID:  row.ExternalID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		BirthYear:   nullInt64ToIntPtr(row.BirthYear),
		BirthDate:   row.BirthDate,
		Gender:      row.Gender.String,
		Nationality: row.Nationality.String,
	}
}
