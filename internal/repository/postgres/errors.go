package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Classification helpers for driver errors. Repositories use these to decide
// which domain sentinel to wrap, so SQLSTATE codes never leak past this
// package.

// IsPgDuplicateError reports whether err is a unique-constraint violation
// (SQLSTATE 23505), e.g. a replayed site slug or a version-log row inserted
// twice at the same (site, folder, filename, version).
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError reports whether a single-row query matched nothing.
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError reports whether err is a foreign-key violation
// (SQLSTATE 23503), e.g. a message or version row pointing at a deleted site.
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
