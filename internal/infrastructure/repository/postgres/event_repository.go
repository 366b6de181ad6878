package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/resultatbasen/ingest/internal/domain/event"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

type eventTableModel struct {
	ID           int64  `db:"id"`
	Code         string `db:"code"`
	Name         string `db:"name"`
	Kind         string `db:"kind"`
	Class        string `db:"class"`
	Category     string `db:"category"`
	Indoor       bool   `db:"indoor"`
	Outdoor      bool   `db:"outdoor"`
	WindMeasured bool   `db:"wind_measured"`
}

// EventRepository reads the seeded event taxonomy. Events are
// reference data maintained in migrations, never written here.
type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) ListAll(ctx context.Context) ([]event.Event, error) {
	query, args, err := qb.Select(
		"id", "code", "name", "kind", "class", "category", "indoor", "outdoor", "wind_measured",
	).From("events").
		OrderBy("code").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select events query: %w", err)
	}

	var rows []eventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}

	out := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, event.Event{
			ID:           row.ID,
			Code:         row.Code,
			Name:         row.Name,
			Kind:         event.Kind(row.Kind),
			Class:        event.Class(row.Class),
			Category:     row.Category,
			Indoor:       row.Indoor,
			Outdoor:      row.Outdoor,
			WindMeasured: row.WindMeasured,
		})
	}
	return out, nil
}
