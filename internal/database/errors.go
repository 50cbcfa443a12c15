package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup or a guarded update matches no row.
	ErrNotFound = errors.New("not found")
	// ErrUniqueViolation is returned when an insert collides with a unique constraint.
	ErrUniqueViolation = errors.New("unique violation")
)

const uniqueViolationCode = pq.ErrorCode("23505")

// translateError maps driver errors onto the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return ErrUniqueViolation
	}

	return err
}
