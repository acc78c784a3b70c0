package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/services"
	"github.com/hostelcare/complaint-api/utils"
	"go.uber.org/zap"
)

// UpdateUserRequest represents a partial profile update
type UpdateUserRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Mobile       *string    `json:"mobile,omitempty" validate:"omitempty,max=20"`
	Room         *string    `json:"room,omitempty" validate:"omitempty,max=20"`
	Block        *string    `json:"block,omitempty" validate:"omitempty,max=20"`
	StudentID    *string    `json:"studentId,omitempty" validate:"omitempty,max=50"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
	Relationship *string    `json:"relationship,omitempty"`
	Role         *string    `json:"role,omitempty"`
	Active       *bool      `json:"active,omitempty"`
}

// UserService defines the directory operations used by UserHandler
type UserService interface {
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, upd services.UserUpdate) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	Children(ctx context.Context, actor *models.User, parentID uuid.UUID) ([]*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserHandler handles user directory HTTP requests
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGet handles GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleUpdate handles PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var req UpdateUserRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.Update(r.Context(), actor, id, services.UserUpdate{
		Name:         req.Name,
		Mobile:       req.Mobile,
		Room:         req.Room,
		Block:        req.Block,
		StudentID:    req.StudentID,
		ParentID:     req.ParentID,
		Relationship: req.Relationship,
		Role:         req.Role,
		Active:       req.Active,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleList handles GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, users)
}

// HandleListByRole handles GET /api/users/role/{role}
func (h *UserHandler) HandleListByRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListByRole(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, users)
}

// HandleChildren handles GET /api/users/{id}/children
func (h *UserHandler) HandleChildren(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	children, err := h.service.Children(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, children)
}

// HandleActivate handles PUT /api/users/{id}/activate
func (h *UserHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// HandleDeactivate handles PUT /api/users/{id}/deactivate
func (h *UserHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// HandleDelete handles DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.SetActive(r.Context(), id, active)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}
