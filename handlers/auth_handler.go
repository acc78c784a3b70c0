package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/middleware"
	"github.com/hostelcare/complaint-api/services"
	"github.com/hostelcare/complaint-api/utils"
	"go.uber.org/zap"
)

// RegisterRequest represents a self-registration request
type RegisterRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=100"`
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required_without=IDToken,max=72"`
	Mobile       string     `json:"mobile" validate:"omitempty,max=20"`
	Role         string     `json:"role"`
	StudentID    string     `json:"studentId" validate:"omitempty,max=50"`
	Room         string     `json:"room" validate:"omitempty,max=20"`
	Block        string     `json:"block" validate:"omitempty,max=20"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
	Relationship string     `json:"relationship"`
	IDToken      string     `json:"idToken"`
}

// LoginRequest represents an email and password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenLoginRequest carries an identity provider ID token
type TokenLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthService defines the authentication operations used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	LoginWithToken(ctx context.Context, idToken string) (*services.AuthResult, error)
}

// AuthHandler handles registration and login requests
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Mobile:       req.Mobile,
		Role:         req.Role,
		StudentID:    req.StudentID,
		Room:         req.Room,
		Block:        req.Block,
		ParentID:     req.ParentID,
		Relationship: req.Relationship,
		IDToken:      req.IDToken,
	})
	if err != nil {
		h.logger.Debug("registration rejected",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleLoginWithToken handles POST /api/auth/login-with-token
func (h *AuthHandler) HandleLoginWithToken(w http.ResponseWriter, r *http.Request) {
	var req TokenLoginRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.LoginWithToken(r.Context(), req.Token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	_ = utils.WriteOK(w, principal.User)
}
