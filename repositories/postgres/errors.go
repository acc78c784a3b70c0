package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hostelcare/complaint-api/repositories"
	"github.com/lib/pq"
)

// PostgreSQL error codes mapped to repository errors
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translateError maps driver errors onto the repository error set.
// op is prepended to the message for context.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, &repositories.ConstraintError{
				Constraint: pqErr.Constraint,
				Err:        pqErr,
			})
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOneRow converts a zero-row write result into ErrNotFound
func expectOneRow(op string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return nil
}
