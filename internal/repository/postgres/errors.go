package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"qms/internal/domain"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = foreign_key_violation
		return pgErr.Code == "23503"
	}
	return false
}

// IsPgInvalidTextError checks for 22P02, raised when a malformed uuid is compared
func IsPgInvalidTextError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02"
	}
	return false
}

// MapError translates a pgx error into the domain taxonomy. Missing rows
// and malformed ids become NotFound, unique violations Conflict, and
// anything else a StorageError.
func MapError(op, resource, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsPgNoRowsError(err), IsPgInvalidTextError(err):
		return domain.NotFoundf("%s %s", resource, id)
	case IsPgDuplicateError(err):
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%s already exists", resource),
			ResourceType: resource,
			ResourceID:   id,
		}
	case IsPgForeignKeyError(err):
		return domain.Validationf("%s %s references a missing row", resource, id)
	default:
		return domain.NewStorageError(op, err)
	}
}

// MapQueryError translates errors from list and search queries, which have
// no single resource id: a malformed filter value is Validation, anything
// else a StorageError.
func MapQueryError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsPgInvalidTextError(err):
		return domain.Validationf("%s: malformed filter value", op)
	default:
		return domain.NewStorageError(op, err)
	}
}
