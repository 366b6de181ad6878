package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resultatbasen/ingest/internal/domain/meet"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

type meetTableModel struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	NameKey   string         `db:"name_key"`
	City      sql.NullString `db:"city"`
	StartDate time.Time      `db:"start_date"`
	Indoor    bool           `db:"indoor"`
	CreatedAt time.Time      `db:"created_at"`
}

type meetInsertModel struct {
	Name      string         `db:"name"`
	NameKey   string         `db:"name_key"`
	City      sql.NullString `db:"city"`
	StartDate time.Time      `db:"start_date"`
	Indoor    bool           `db:"indoor"`
}

var meetSelectColumns = []string{
	"id", "name", "name_key", "city", "start_date", "indoor", "created_at",
}

type MeetRepository struct {
	db *sqlx.DB
}

func NewMeetRepository(db *sqlx.DB) *MeetRepository {
	return &MeetRepository{db: db}
}

func (r *MeetRepository) ListAll(ctx context.Context) ([]meet.Meet, error) {
	query, args, err := qb.Select(meetSelectColumns...).From("meets").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select meets query: %w", err)
	}

	var rows []meetTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select meets: %w", err)
	}

	out := make([]meet.Meet, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMeetRow(row))
	}
	return out, nil
}

func (r *MeetRepository) GetByKey(ctx context.Context, nameKey string, date time.Time) (meet.Meet, error) {
	query, args, err := qb.Select(meetSelectColumns...).From("meets").
		Where(
			qb.Eq("name_key", nameKey),
			qb.Eq("start_date", date),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return meet.Meet{}, fmt.Errorf("build select meet query: %w", err)
	}

	var row meetTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return meet.Meet{}, fmt.Errorf("meet name_key=%q date=%s not found", nameKey, date.Format("2006-01-02"))
		}
		return meet.Meet{}, fmt.Errorf("select meet: %w", err)
	}
	return mapMeetRow(row), nil
}

func (r *MeetRepository) Create(ctx context.Context, m meet.Meet) (int64, error) {
	model := meetInsertModel{
		Name:      m.Name,
		NameKey:   meet.NameKey(m.Name),
		City:      optionalString(m.City),
		StartDate: m.StartDate,
		Indoor:    m.Indoor,
	}
	query, args, err := qb.InsertModel("meets", model, `ON CONFLICT (name_key, start_date) DO NOTHING
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("build insert meet query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("insert meet: %w", err)
	}
	return id, nil
}

func mapMeetRow(row meetTableModel) meet.Meet {
	return meet.Meet{
		ID:        row.ID,
		Name:      row.Name,
		City:      row.City.String,
		StartDate: row.StartDate,
		Indoor:    row.Indoor,
	}
}
