package storage

import (
	"errors"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicateUser is returned when a user with the same external id exists.
	ErrDuplicateUser = errors.New("storage: user already registered")
	// ErrUnknownTeacher is returned when a course references a missing or non-teacher user.
	ErrUnknownTeacher = errors.New("storage: teacher not found")
	// ErrDuplicateEnrollment is returned when the (user, course) pair is already enrolled.
	ErrDuplicateEnrollment = errors.New("storage: already enrolled")
)

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
)

// classify maps driver errors to the constraint that was violated.
func classify(err error) constraintKind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return constraintUnique
		case "23503":
			return constraintForeignKey
		}
		return constraintNone
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return constraintUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return constraintForeignKey
		}
	}
	return constraintNone
}
