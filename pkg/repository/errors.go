package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode  = "23505"
	pgSerializationCode = "40001"
)

// ErrSerialization indicates the database aborted a serializable transaction
// because it conflicted with a concurrent transaction. The operation is safe
// to retry with the same inputs.
var ErrSerialization = errors.New("transaction serialization conflict")

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr, PostgreSQL unique violation (23505)
// to duplicateErr, and serialization failure (40001) to ErrSerialization.
// Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDuplicateKeyCode:
			return duplicateErr
		case pgSerializationCode:
			return ErrSerialization
		}
	}

	return err
}
