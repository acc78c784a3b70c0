package services

import (
	"errors"

	"github.com/hostelcare/complaint-api/repositories"
)

// mapRepositoryError converts a repository error into a domain error.
// notFound is returned for repositories.ErrNotFound.
func mapRepositoryError(err error, notFound *DomainError) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound.Wrap(err)
	case errors.Is(err, repositories.ErrConstraintViolation):
		switch repositories.ConstraintName(err) {
		case repositories.ConstraintUsersEmail:
			return ErrDuplicateEmail.Wrap(err)
		case repositories.ConstraintUsersSubject:
			return ErrDuplicateSubject.Wrap(err)
		default:
			return ErrConstraint.Wrap(err)
		}
	default:
		return ErrDatabaseError.Wrap(err)
	}
}
