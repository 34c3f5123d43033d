package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleTicket is returned by TicketRepository.Update when the stored
	// version no longer matches the version the caller read.
	ErrStaleTicket = errors.New("ticket was modified concurrently")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("record already exists")
)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

// validID reports whether id can name a row. Ids are UUID columns, so any
// other string cannot match and is reported as ErrNotFound without a query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgInvalidTextRepresentation:
			return ErrNotFound
		}
	}
	return err
}
