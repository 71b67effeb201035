// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let the service layer tell a missing
// row apart from an infrastructure failure without depending on
// database/sql directly.
package repository

import "errors"

// ErrUserNotFound is returned when no user matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

// ErrGameNotFound is returned when a game does not exist or is soft-deleted,
// and when a soft delete affects no row.
var ErrGameNotFound = errors.New("game not found")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
