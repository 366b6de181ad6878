package querybuilder

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id", "external_id").
		From("athletes").
		Where(Eq("external_id", "4711"), IsNull("gender")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "SELECT id, external_id FROM athletes WHERE external_id = $1 AND gender IS NULL ORDER BY id LIMIT 10", query)
	require.Equal(t, []any{"4711"}, args)
}

func TestSelectBuilder_RequiresTable(t *testing.T) {
	t.Parallel()

	_, _, err := Select("id").ToSQL()
	require.Error(t, err)
}

func TestSelectBuilder_ExprAndLiteral(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").
		From("results").
		Where(
			EqLiteral("status", "OK"),
			Expr("(value <= ? OR display = ?)", 0, ""),
		).
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM results WHERE status = 'OK' AND (value <= $1 OR display = $2)", query)
	require.Equal(t, []any{0, ""}, args)
}

func TestInsertBuilder_MultiRowWithSuffix(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("results").
		Columns("athlete_id", "event_id", "display").
		Values(int64(1), int64(2), "10.47").
		Values(int64(1), int64(3), "2:03.1").
		Suffix("ON CONFLICT DO NOTHING").
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO results (athlete_id, event_id, display) VALUES ($1, $2, $3), ($4, $5, $6) ON CONFLICT DO NOTHING", query)
	require.Len(t, args, 6)
}

func TestInsertBuilder_RowArityMismatch(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("results").
		Columns("athlete_id", "event_id").
		Values(int64(1)).
		ToSQL()
	require.Error(t, err)
}

func TestUpdateBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Update("athletes").
		Set("birth_year", 1995).
		SetExpr("updated_at", "now()").
		Where(Eq("id", int64(7)), IsNull("birth_year")).
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "UPDATE athletes SET birth_year = $1, updated_at = now() WHERE id = $2 AND birth_year IS NULL", query)
	require.Equal(t, []any{1995, int64(7)}, args)
}

func TestInsertModel(t *testing.T) {
	t.Parallel()

	type row struct {
		ExternalID string         `db:"external_id"`
		FirstName  string         `db:"first_name"`
		Gender     sql.NullString `db:"gender"`
		Skipped    string         `db:"-"`
		Untagged   string
	}

	query, args, err := InsertModel("athletes", row{ExternalID: "4711", FirstName: "Kari"}, "RETURNING id")
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO athletes (external_id, first_name, gender) VALUES ($1, $2, $3) RETURNING id", query)
	require.Len(t, args, 3)
	require.Equal(t, "4711", args[0])

	_, _, err = InsertModel("athletes", struct{ X string }{}, "")
	require.Error(t, err)

	_, _, err = InsertModel("athletes", (*row)(nil), "")
	require.Error(t, err)
}
