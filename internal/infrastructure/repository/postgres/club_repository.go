package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resultatbasen/ingest/internal/domain/club"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

type clubTableModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type clubInsertModel struct {
	Name string `db:"name"`
}

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) ListAll(ctx context.Context) ([]club.Club, error) {
	query, args, err := qb.Select("id", "name", "created_at").From("clubs").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select clubs: %w", err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, club.Club{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *ClubRepository) GetByName(ctx context.Context, name string) (club.Club, error) {
	query, args, err := qb.Select("id", "name", "created_at").From("clubs").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return club.Club{}, fmt.Errorf("build select club query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, fmt.Errorf("club name=%q not found", name)
		}
		return club.Club{}, fmt.Errorf("select club: %w", err)
	}
	return club.Club{ID: row.ID, Name: row.Name}, nil
}

func (r *ClubRepository) Create(ctx context.Context, c club.Club) (int64, error) {
	query, args, err := qb.InsertModel("clubs", clubInsertModel{Name: c.Name}, `ON CONFLICT (name) DO NOTHING
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("build insert club query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("insert club: %w", err)
	}
	return id, nil
}
