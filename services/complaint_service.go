package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/internal/observability"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"go.uber.org/zap"
)

const maxListLimit = 200

// CreateComplaintInput carries a new complaint. Status is never accepted from clients.
type CreateComplaintInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// ComplaintUpdate is a partial complaint update. Nil fields are left unchanged.
type ComplaintUpdate struct {
	Title         *string
	Description   *string
	Category      *string
	Priority      *string
	Status        *string
	AdminResponse *string
}

// ComplaintQuery holds the raw listing filters from a request
type ComplaintQuery struct {
	Status          string
	Category        string
	Priority        string
	Block           string
	Search          string
	AssignedAdminID *uuid.UUID
	Limit           int
	Offset          int
}

// ComplaintService handles complaint filing and triage
type ComplaintService struct {
	complaints repositories.ComplaintRepository
	users      repositories.UserRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewComplaintService creates a new ComplaintService
func NewComplaintService(
	complaints repositories.ComplaintRepository,
	users repositories.UserRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		users:      users,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create files a complaint on behalf of a student. The new complaint is always PENDING.
func (s *ComplaintService) Create(ctx context.Context, actor *models.User, in CreateComplaintInput) (*models.Complaint, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrForbidden.WithDetail("reason", "only students can file complaints")
	}

	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, NewValidationError("invalid category", map[string]string{"category": err.Error()})
	}
	priority := models.PriorityMedium
	if in.Priority != "" {
		if priority, err = models.ParsePriority(in.Priority); err != nil {
			return nil, NewValidationError("invalid priority", map[string]string{"priority": err.Error()})
		}
	}

	complaint := models.NewComplaint(actor, strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), category, priority)
	if err := s.complaints.Create(ctx, complaint); err != nil {
		s.logger.Error("failed to create complaint",
			zap.String("student_id", actor.ID.String()),
			zap.Error(err))
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}

	s.metrics.ComplaintCreated(string(category), string(priority))
	s.logger.Info("complaint filed",
		zap.String("complaint_id", complaint.ID.String()),
		zap.String("student_id", actor.ID.String()),
		zap.String("category", string(category)))

	return complaint, nil
}

// Get returns a complaint visible to actor
func (s *ComplaintService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}
	if err := s.checkStudentAccess(ctx, actor, complaint.StudentID); err != nil {
		return nil, err
	}
	return complaint, nil
}

// Update merges the non-nil fields of upd. Admins may change any field; the
// filing student may edit the text, category and priority while the complaint is PENDING.
func (s *ComplaintService) Update(ctx context.Context, actor *models.User, id uuid.UUID, upd ComplaintUpdate) (*models.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}

	switch {
	case actor.IsAdmin():
	case complaint.IsOwnedBy(actor):
		if upd.Status != nil || upd.AdminResponse != nil {
			return nil, ErrForbidden.WithDetail("reason", "status and adminResponse can only be changed by an admin")
		}
		if complaint.Status != models.StatusPending {
			return nil, ErrComplaintNotEditable
		}
	default:
		return nil, ErrForbidden
	}

	if upd.Title != nil {
		complaint.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		complaint.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Category != nil {
		category, err := models.ParseCategory(*upd.Category)
		if err != nil {
			return nil, NewValidationError("invalid category", map[string]string{"category": err.Error()})
		}
		complaint.Category = category
	}
	if upd.Priority != nil {
		priority, err := models.ParsePriority(*upd.Priority)
		if err != nil {
			return nil, NewValidationError("invalid priority", map[string]string{"priority": err.Error()})
		}
		complaint.Priority = priority
	}
	if upd.AdminResponse != nil {
		response := *upd.AdminResponse
		complaint.AdminResponse = &response
	}

	from := complaint.Status
	if upd.Status != nil {
		if err := s.applyStatus(complaint, *upd.Status); err != nil {
			return nil, err
		}
	}

	complaint.UpdatedAt = s.now()
	if err := s.complaints.Update(ctx, complaint); err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}
	if from != complaint.Status {
		s.metrics.StatusChanged(string(from), string(complaint.Status))
	}
	return complaint, nil
}

// UpdateStatus moves a complaint through triage. The acting admin is assigned
// when no admin is assigned yet. Repeating the current status with no new
// response is a no-op.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string, adminResponse *string) (*models.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}

	from := complaint.Status
	if err := s.applyStatus(complaint, status); err != nil {
		return nil, err
	}

	changed := from != complaint.Status
	if adminResponse != nil && (complaint.AdminResponse == nil || *complaint.AdminResponse != *adminResponse) {
		response := *adminResponse
		complaint.AdminResponse = &response
		changed = true
	}
	if complaint.AssignedAdminID == nil {
		adminID := actor.ID
		complaint.AssignedAdminID = &adminID
		changed = true
	}
	if !changed {
		return complaint, nil
	}

	complaint.UpdatedAt = s.now()
	if err := s.complaints.Update(ctx, complaint); err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}

	if from != complaint.Status {
		s.metrics.StatusChanged(string(from), string(complaint.Status))
		s.logger.Info("complaint status changed",
			zap.String("complaint_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(complaint.Status)),
			zap.String("admin_id", actor.ID.String()))
	}
	return complaint, nil
}

func (s *ComplaintService) applyStatus(complaint *models.Complaint, raw string) error {
	next, err := models.ParseStatus(raw)
	if err != nil {
		return ErrInvalidStatus.WithDetail("status", raw)
	}
	if !complaint.SetStatus(next, s.now()) {
		return ErrInvalidTransition.
			WithDetail("from", string(complaint.Status)).
			WithDetail("to", string(next))
	}
	return nil
}

// List returns complaints matching q
func (s *ComplaintService) List(ctx context.Context, q ComplaintQuery) ([]*models.Complaint, error) {
	filter := models.ComplaintFilter{
		Block:           strings.TrimSpace(q.Block),
		Search:          strings.TrimSpace(q.Search),
		AssignedAdminID: q.AssignedAdminID,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, NewValidationError("invalid paging", map[string]string{"limit": "limit and offset must not be negative"})
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if q.Status != "" {
		status, err := models.ParseStatus(q.Status)
		if err != nil {
			return nil, ErrInvalidStatus.WithDetail("status", q.Status)
		}
		filter.Status = &status
	}
	if q.Category != "" {
		category, err := models.ParseCategory(q.Category)
		if err != nil {
			return nil, NewValidationError("invalid category", map[string]string{"category": err.Error()})
		}
		filter.Category = &category
	}
	if q.Priority != "" {
		priority, err := models.ParsePriority(q.Priority)
		if err != nil {
			return nil, NewValidationError("invalid priority", map[string]string{"priority": err.Error()})
		}
		filter.Priority = &priority
	}

	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}
	return complaints, nil
}

// ListForStudent returns a student's complaints to admins, the student, or their parent
func (s *ComplaintService) ListForStudent(ctx context.Context, actor *models.User, studentID uuid.UUID) ([]*models.Complaint, error) {
	if err := s.checkStudentAccess(ctx, actor, studentID); err != nil {
		return nil, err
	}
	return s.listByStudent(ctx, studentID)
}

// ListMine returns the complaints relevant to actor: a student's own, a
// parent's children's, or those assigned to an admin
func (s *ComplaintService) ListMine(ctx context.Context, actor *models.User) ([]*models.Complaint, error) {
	switch actor.Role {
	case models.RoleStudent:
		return s.listByStudent(ctx, actor.ID)
	case models.RoleParent:
		children, err := s.users.ListByParent(ctx, actor.ID)
		if err != nil {
			return nil, mapRepositoryError(err, ErrUserNotFound)
		}
		out := make([]*models.Complaint, 0)
		for _, child := range children {
			complaints, err := s.listByStudent(ctx, child.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, complaints...)
		}
		return out, nil
	default:
		adminID := actor.ID
		return s.List(ctx, ComplaintQuery{AssignedAdminID: &adminID})
	}
}

func (s *ComplaintService) listByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Complaint, error) {
	complaints, err := s.complaints.List(ctx, models.ComplaintFilter{StudentID: &studentID})
	if err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}
	return complaints, nil
}

// Delete removes a complaint
func (s *ComplaintService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.complaints.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, ErrComplaintNotFound)
	}
	s.logger.Info("complaint deleted", zap.String("complaint_id", id.String()))
	return nil
}

// Stats aggregates complaint counts
func (s *ComplaintService) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	stats, err := s.complaints.Stats(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrComplaintNotFound)
	}
	return stats, nil
}

// checkStudentAccess allows admins, the student, and the student's linked parent
func (s *ComplaintService) checkStudentAccess(ctx context.Context, actor *models.User, studentID uuid.UUID) error {
	if actor.IsAdmin() || actor.ID == studentID {
		return nil
	}
	if actor.Role != models.RoleParent {
		return ErrForbidden
	}
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrForbidden
		}
		return mapRepositoryError(err, ErrUserNotFound)
	}
	if !actor.IsParentOf(student) {
		return ErrForbidden
	}
	return nil
}
