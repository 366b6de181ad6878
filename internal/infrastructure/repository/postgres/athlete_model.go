package postgres

import (
	"database/sql"
	"time"
)

type athleteTableModel struct {
	ID          int64          `db:"id"`
	ExternalID  string         `db:"external_id"`
	FirstName   string         `db:"first_name"`
	LastName    string         `db:"last_name"`
	BirthYear   sql.NullInt64  `db:"birth_year"`
	BirthDate   *time.Time     `db:"birth_date"`
	Gender      sql.NullString `db:"gender"`
	Nationality sql.NullString `db:"nationality"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type athleteInsertModel struct {
	ExternalID  string         `db:"external_id"`
	FirstName   string         `db:"first_name"`
	LastName    string         `db:"last_name"`
	BirthYear   sql.NullInt64  `db:"birth_year"`
	BirthDate   *time.Time     `db:"birth_date"`
	Gender      sql.NullString `db:"gender"`
	Nationality sql.NullString `db:"nationality"`
}
