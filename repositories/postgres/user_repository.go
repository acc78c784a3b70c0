package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"go.uber.org/zap"
)

const userColumns = "id, subject, email, name, role, active, mobile, room, block, " +
	"student_id, parent_id, relationship, password_hash, created_at, updated_at"

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var parentID uuid.NullUUID
	err := row.Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Active,
		&user.Mobile,
		&user.Room,
		&user.Block,
		&user.StudentID,
		&parentID,
		&user.Relationship,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := parentID.UUID
		user.ParentID = &id
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Subject,
		user.Email,
		user.Name,
		user.Role,
		user.Active,
		user.Mobile,
		user.Room,
		user.Block,
		user.StudentID,
		user.ParentID,
		user.Relationship,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to create user", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("email", user.Email))
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, op, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, translateError(op, err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, fmt.Sprintf("user %s", id), "id = $1", id)
}

// GetBySubject retrieves a user by identity subject
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	return r.getOne(ctx, "user by subject", "subject = $1", subject)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "user by email", "email = $1", models.NormalizeEmail(email))
}

func (r *UserRepository) list(ctx context.Context, where string, args ...interface{}) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, "")
}

// ListByRole retrieves users with the given role
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return r.list(ctx, "role = $1", role)
}

// ListByParent retrieves the students linked to a parent
func (r *UserRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*models.User, error) {
	return r.list(ctx, "parent_id = $1", parentID)
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET subject = $2,
		    email = $3,
		    name = $4,
		    role = $5,
		    active = $6,
		    mobile = $7,
		    room = $8,
		    block = $9,
		    student_id = $10,
		    parent_id = $11,
		    relationship = $12,
		    password_hash = $13,
		    updated_at = $14
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Subject,
		user.Email,
		user.Name,
		user.Role,
		user.Active,
		user.Mobile,
		user.Room,
		user.Block,
		user.StudentID,
		user.ParentID,
		user.Relationship,
		user.PasswordHash,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to update user", err)
	}
	if err := expectOneRow(fmt.Sprintf("user %s", user.ID), result); err != nil {
		return err
	}

	r.logger.Debug("user updated", zap.String("id", user.ID.String()))
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError("failed to delete user", err)
	}
	if err := expectOneRow(fmt.Sprintf("user %s", id), result); err != nil {
		return err
	}

	r.logger.Debug("user deleted", zap.String("id", id.String()))
	return nil
}
