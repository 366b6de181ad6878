package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/resultatbasen/ingest/internal/domain/season"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

type seasonTableModel struct {
	ID     int64 `db:"id"`
	Year   int   `db:"year"`
	Indoor bool  `db:"indoor"`
}

type seasonInsertModel struct {
	Year   int  `db:"year"`
	Indoor bool `db:"indoor"`
}

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) ListAll(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select("id", "year", "indoor").From("seasons").
		OrderBy("year", "indoor").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, season.Season{ID: row.ID, Year: row.Year, Indoor: row.Indoor})
	}
	return out, nil
}

func (r *SeasonRepository) Get(ctx context.Context, year int, indoor bool) (season.Season, error) {
	query, args, err := qb.Select("id", "year", "indoor").From("seasons").
		Where(
			qb.Eq("year", year),
			qb.Eq("indoor", indoor),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, fmt.Errorf("build select season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, fmt.Errorf("season year=%d indoor=%t not found", year, indoor)
		}
		return season.Season{}, fmt.Errorf("select season: %w", err)
	}
	return season.Season{ID: row.ID, Year: row.Year, Indoor: row.Indoor}, nil
}

func (r *SeasonRepository) Create(ctx context.Context, s season.Season) (int64, error) {
	model := seasonInsertModel{Year: s.Year, Indoor: s.Indoor}
	query, args, err := qb.InsertModel("seasons", model, `ON CONFLICT (year, indoor) DO NOTHING
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("build insert season query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("insert season: %w", err)
	}
	return id, nil
}
