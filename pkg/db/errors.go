package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-key violation. A non-empty
// constraint must also match: by name for the postgres drivers, by substring
// of the message for sqlite.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}

	if code, name, ok := pgErrorParts(err); ok {
		return code == pgUniqueViolation && (constraint == "" || name == constraint)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "duplicate key value"):
		return constraint == "" || strings.Contains(msg, constraint)
	default:
		return false
	}
}

func pgErrorParts(err error) (code, constraint string, ok bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}
