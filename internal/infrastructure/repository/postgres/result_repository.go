package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/resultatbasen/ingest/internal/domain/result"
	qb "github.com/resultatbasen/ingest/internal/platform/querybuilder"
)

var resultInsertColumns = []string{
	"athlete_id",
	"event_id",
	"meet_id",
	"season_id",
	"club_id",
	"display",
	"value",
	"wind",
	"placement",
	"round",
	"heat",
	"status",
	"verified",
}

// The results table carries UNIQUE NULLS NOT DISTINCT on this tuple,
// so a row without a meet still collapses onto one logical slot.
const resultConflictSuffix = `ON CONFLICT (athlete_id, event_id, meet_id, round, heat) DO NOTHING`

type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) InsertBatch(ctx context.Context, items []result.Result) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	builder := qb.InsertInto("results").Columns(resultInsertColumns...)
	for _, item := range items {
		builder.Values(resultInsertValues(item)...)
	}
	query, args, err := builder.Suffix(resultConflictSuffix).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert results query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert results batch: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count inserted results: %w", err)
	}
	return int(inserted), nil
}

func (r *ResultRepository) Insert(ctx context.Context, item result.Result) (bool, error) {
	query, args, err := qb.InsertInto("results").
		Columns(resultInsertColumns...).
		Values(resultInsertValues(item)...).
		Suffix(resultConflictSuffix).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert result query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count inserted result: %w", err)
	}
	return inserted > 0, nil
}

func (r *ResultRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("COUNT(*)").From("results").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count results query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}

func (r *ResultRepository) ListCorruptIDs(ctx context.Context, limit int) ([]int64, error) {
	query, args, err := qb.Select("id").From("results").
		Where(
			qb.EqLiteral("status", result.StatusOK),
			qb.Expr("(value <= 0 OR display = '')"),
		).
		OrderBy("id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select corrupt results query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select corrupt results: %w", err)
	}
	return ids, nil
}

func (r *ResultRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted results: %w", err)
	}
	return deleted, nil
}

func resultInsertValues(item result.Result) []any {
	return []any{
		item.AthleteID,
		item.EventID,
		int64PtrToNull(item.MeetID),
		int64PtrToNull(item.SeasonID),
		int64PtrToNull(item.ClubID),
		item.Display,
		item.Value,
		floatPtrToNull(item.Wind),
		intPtrToNullInt64(item.Placement),
		item.Round,
		item.Heat,
		item.Status,
		item.Verified,
	}
}
