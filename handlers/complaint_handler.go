package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/middleware"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/services"
	"github.com/hostelcare/complaint-api/utils"
	"go.uber.org/zap"
)

// CreateComplaintRequest represents a request to file a complaint
type CreateComplaintRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Category    string `json:"category" validate:"required"`
	Priority    string `json:"priority"`
}

// UpdateComplaintRequest represents a partial complaint update
type UpdateComplaintRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category      *string `json:"category,omitempty"`
	Priority      *string `json:"priority,omitempty"`
	Status        *string `json:"status,omitempty"`
	AdminResponse *string `json:"adminResponse,omitempty" validate:"omitempty,max=2000"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status        string  `json:"status" validate:"required"`
	AdminResponse *string `json:"adminResponse,omitempty" validate:"omitempty,max=2000"`
}

// ComplaintService defines the complaint operations used by ComplaintHandler
type ComplaintService interface {
	Create(ctx context.Context, actor *models.User, in services.CreateComplaintInput) (*models.Complaint, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Complaint, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, upd services.ComplaintUpdate) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string, adminResponse *string) (*models.Complaint, error)
	List(ctx context.Context, q services.ComplaintQuery) ([]*models.Complaint, error)
	ListForStudent(ctx context.Context, actor *models.User, studentID uuid.UUID) ([]*models.Complaint, error)
	ListMine(ctx context.Context, actor *models.User) ([]*models.Complaint, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.ComplaintStats, error)
}

// ComplaintHandler handles complaint HTTP requests
type ComplaintHandler struct {
	service ComplaintService
	logger  *zap.Logger
}

// NewComplaintHandler creates a new ComplaintHandler
func NewComplaintHandler(service ComplaintService, logger *zap.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreate handles POST /api/complaints
func (h *ComplaintHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateComplaintRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	complaint, err := h.service.Create(r.Context(), actor, services.CreateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, complaint)
}

// HandleGet handles GET /api/complaints/{id}
func (h *ComplaintHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	complaint, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, complaint)
}

// HandleUpdate handles PUT /api/complaints/{id}
func (h *ComplaintHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var req UpdateComplaintRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	complaint, err := h.service.Update(r.Context(), actor, id, services.ComplaintUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		Status:        req.Status,
		AdminResponse: req.AdminResponse,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, complaint)
}

// HandleUpdateStatus handles PUT /api/complaints/{id}/status
func (h *ComplaintHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	complaint, err := h.service.UpdateStatus(r.Context(), actor, id, req.Status, req.AdminResponse)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("complaint status updated",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("complaint_id", id.String()),
		zap.String("status", string(complaint.Status)))

	_ = utils.WriteOK(w, complaint)
}

// HandleDelete handles DELETE /api/complaints/{id}
func (h *ComplaintHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

// HandleList handles GET /api/complaints
// Optional query filters: status, category, priority, block, search, limit, offset.
func (h *ComplaintHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseComplaintQuery(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	h.list(w, r, q)
}

// HandleListByStatus handles GET /api/complaints/status/{status}
func (h *ComplaintHandler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, services.ComplaintQuery{Status: chi.URLParam(r, "status")})
}

// HandleListByCategory handles GET /api/complaints/category/{category}
func (h *ComplaintHandler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, services.ComplaintQuery{Category: chi.URLParam(r, "category")})
}

// HandleListByAdmin handles GET /api/complaints/admin/{adminId}
func (h *ComplaintHandler) HandleListByAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, err := utils.ParseUUID(chi.URLParam(r, "adminId"), "adminId")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	h.list(w, r, services.ComplaintQuery{AssignedAdminID: &adminID})
}

// HandleListByStudent handles GET /api/complaints/student/{studentId}
func (h *ComplaintHandler) HandleListByStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	studentID, err := utils.ParseUUID(chi.URLParam(r, "studentId"), "studentId")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	complaints, err := h.service.ListForStudent(r.Context(), actor, studentID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, complaints)
}

// HandleListMine handles GET /api/complaints/my
func (h *ComplaintHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}

	complaints, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, complaints)
}

// HandleStats handles GET /api/complaints/stats
func (h *ComplaintHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, stats)
}

func (h *ComplaintHandler) list(w http.ResponseWriter, r *http.Request, q services.ComplaintQuery) {
	complaints, err := h.service.List(r.Context(), q)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, complaints)
}

func parseComplaintQuery(r *http.Request) (services.ComplaintQuery, error) {
	values := r.URL.Query()
	q := services.ComplaintQuery{
		Status:   values.Get("status"),
		Category: values.Get("category"),
		Priority: values.Get("priority"),
		Block:    values.Get("block"),
		Search:   values.Get("search"),
	}

	var err error
	if q.Limit, err = parseIntParam(values.Get("limit"), "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = parseIntParam(values.Get("offset"), "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func parseIntParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &utils.ValidationError{
			Message: "invalid " + name,
			Fields:  map[string]string{name: name + " must be an integer"},
		}
	}
	return n, nil
}

// requireUser returns the authenticated user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	principal := middleware.PrincipalFrom(r.Context())
	if principal == nil || principal.User == nil {
		_ = utils.WriteUnauthorized(w, "")
		return nil, false
	}
	return principal.User, true
}
