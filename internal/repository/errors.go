package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgStringTooLong       = "22001"
)

// isUniqueViolation reports a duplicate key on either backend.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		code := sqErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// isConstraintViolation reports check, not-null, foreign-key and length
// failures, which all mean the row itself is unacceptable.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation, pgNotNullViolation, pgForeignKeyViolation, pgStringTooLong:
			return true
		}
		return false
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		// Primary result code lives in the low byte.
		return sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && !isUniqueViolation(err)
	}
	return false
}
