package database

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by repositories. Callers distinguish them with
// errors.Is; anything else is a storage fault and must be propagated.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a uniqueness violation, e.g. adding a word
	// that is already on the user's study list
	ErrDuplicate = errors.New("record already exists")
)

// isUniqueViolation reports whether a driver error is a unique-constraint
// violation, for either supported backend
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
