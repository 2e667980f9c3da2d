package book

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned when a write collides with the unique ISBN index.
	ErrDuplicateISBN = errors.New("duplicate isbn")
	// ErrValueTooLong is returned when a text value exceeds its column width.
	ErrValueTooLong = errors.New("value too long")
	// ErrConnection is returned when no connection to the database could be established.
	ErrConnection = errors.New("database connection failed")
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateStringTooLong   = "22001"
	// class 08 covers connection exceptions raised by the server
	sqlStateConnectionClass = "08"
)

// mapError translates driver errors into the package sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicateISBN, pgErr.ConstraintName)
		case sqlStateStringTooLong:
			return fmt.Errorf("%w: %s", ErrValueTooLong, pgErr.Message)
		}
		if strings.HasPrefix(pgErr.Code, sqlStateConnectionClass) {
			return fmt.Errorf("%w: %w", ErrConnection, err)
		}
	}
	return err
}
