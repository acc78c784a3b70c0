package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"go.uber.org/zap"
)

// UserUpdate is a partial user update. Nil fields are left unchanged.
type UserUpdate struct {
	Name         *string
	Mobile       *string
	Room         *string
	Block        *string
	StudentID    *string
	ParentID     *uuid.UUID
	Relationship *string
	Role         *string
	Active       *bool
}

// UserService manages the user directory
type UserService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Get returns a user visible to actor: admins see everyone, others only themselves
func (s *UserService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	return user, nil
}

// Update merges the non-nil fields of upd into the user. Role and active
// may only be changed by an admin.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, upd UserUpdate) (*models.User, error) {
	if !actor.IsAdmin() {
		if actor.ID != id {
			return nil, ErrForbidden
		}
		if upd.Role != nil || upd.Active != nil {
			return nil, ErrForbidden.WithDetail("reason", "role and active can only be changed by an admin")
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}

	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Mobile != nil {
		user.Mobile = *upd.Mobile
	}
	if upd.Room != nil {
		user.Room = *upd.Room
	}
	if upd.Block != nil {
		user.Block = *upd.Block
	}
	if upd.StudentID != nil {
		user.StudentID = *upd.StudentID
	}
	if upd.Relationship != nil {
		rel, err := models.ParseRelationship(*upd.Relationship)
		if err != nil {
			return nil, NewValidationError("invalid relationship", map[string]string{"relationship": err.Error()})
		}
		user.Relationship = rel
	}
	if upd.Role != nil {
		role, err := models.ParseRole(*upd.Role)
		if err != nil {
			return nil, ErrInvalidRole.WithDetail("role", *upd.Role)
		}
		user.Role = role
	}
	if upd.Active != nil {
		user.Active = *upd.Active
	}
	if upd.ParentID != nil {
		if user.Role != models.RoleStudent {
			return nil, ErrInvalidParentLink.WithDetail("parentId", "only students can be linked to a parent")
		}
		if err := checkParentLink(ctx, s.users, *upd.ParentID); err != nil {
			return nil, err
		}
		user.ParentID = upd.ParentID
	}
	if user.Role != models.RoleStudent {
		user.ParentID = nil
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	return user, nil
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	return users, nil
}

// ListByRole returns users holding role, parsed case-insensitively
func (s *UserService) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, ErrInvalidRole.WithDetail("role", role)
	}
	users, err := s.users.ListByRole(ctx, r)
	if err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	return users, nil
}

// Children returns the students linked to a parent. Visible to admins and the parent.
func (s *UserService) Children(ctx context.Context, actor *models.User, parentID uuid.UUID) ([]*models.User, error) {
	if !actor.IsAdmin() && actor.ID != parentID {
		return nil, ErrForbidden
	}
	if _, err := s.users.GetByID(ctx, parentID); err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	children, err := s.users.ListByParent(ctx, parentID)
	if err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	return children, nil
}

// SetActive flips the active flag
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	if user.Active == active {
		return user, nil
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	s.logger.Info("user active flag changed",
		zap.String("user_id", id.String()),
		zap.Bool("active", active))
	return user, nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, ErrUserNotFound)
	}
	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}
