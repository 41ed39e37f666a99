package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation = "23505"
	pgErrCodeInvalidUUID     = "22P02"
)

// uniqueViolationConstraint names the violated unique constraint so callers
// can tell a replayed hold apart from a timeline collision.
func uniqueViolationConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeInvalidUUID
}
