package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrConstraintViolation is returned when a write breaks a uniqueness or
	// foreign key constraint
	ErrConstraintViolation = errors.New("constraint violation")
)

// ConstraintError describes which constraint a write violated
type ConstraintError struct {
	Constraint string
	Err        error
}

// Error implements the error interface
func (e *ConstraintError) Error() string {
	return "constraint violation: " + e.Constraint
}

// Unwrap lets errors.Is match ErrConstraintViolation
func (e *ConstraintError) Unwrap() error {
	return ErrConstraintViolation
}

// Constraint names declared by the schema
const (
	ConstraintUsersEmail   = "users_email_key"
	ConstraintUsersSubject = "users_subject_key"
)

// ConstraintName extracts the violated constraint name from err, if any
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// UserRepository is the user directory
type UserRepository interface {
	// Create inserts a new user. Duplicate subject or email yields ErrConstraintViolation.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetBySubject retrieves a user by identity subject
	GetBySubject(ctx context.Context, subject string) (*models.User, error)

	// GetByEmail retrieves a user by email (case-insensitive)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves all users, newest first
	List(ctx context.Context) ([]*models.User, error)

	// ListByRole retrieves users with the given role
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)

	// ListByParent retrieves the students linked to a parent
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*models.User, error)

	// Update saves every mutable column of an existing user
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// ComplaintRepository handles complaint data operations
type ComplaintRepository interface {
	// Create inserts a new complaint
	Create(ctx context.Context, complaint *models.Complaint) error

	// GetByID retrieves a complaint by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)

	// List retrieves complaints matching filter, newest first
	List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)

	// Update saves every mutable column of an existing complaint
	Update(ctx context.Context, complaint *models.Complaint) error

	// Delete removes a complaint
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats aggregates complaint counts
	Stats(ctx context.Context) (*models.ComplaintStats, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users      UserRepository
	Complaints ComplaintRepository
}
