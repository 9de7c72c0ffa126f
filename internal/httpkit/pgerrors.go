package httpkit

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUndefinedTable reports a missing table (42P01), e.g. a health check
// running before the schema was created.
func IsUndefinedTable(err error) bool {
	return pgCode(err) == "42P01"
}

// IsUniqueViolation reports a unique constraint violation (23505).
func IsUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// IsNoRows reports a single-row query that matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
