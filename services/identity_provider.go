package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// IdentityProvider creates accounts at the external identity provider
type IdentityProvider interface {
	// SignUp creates an email/password account and returns the provider's user id
	SignUp(ctx context.Context, email, password, displayName string) (string, error)
}

// IdentityToolkitClient talks to the Firebase Identity Toolkit REST API
type IdentityToolkitClient struct {
	client *resty.Client
	apiKey string
	logger *zap.Logger
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signUpResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type identityErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewIdentityToolkitClient creates a client for baseURL, e.g. https://identitytoolkit.googleapis.com/v1
func NewIdentityToolkitClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *IdentityToolkitClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	return &IdentityToolkitClient{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}
}

// SignUp implements IdentityProvider
func (c *IdentityToolkitClient) SignUp(ctx context.Context, email, password, displayName string) (string, error) {
	var out signUpResponse
	var apiErr identityErrorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(signUpRequest{
			Email:             email,
			Password:          password,
			DisplayName:       displayName,
			ReturnSecureToken: false,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/accounts:signUp")
	if err != nil {
		c.logger.Error("identity toolkit request failed", zap.Error(err))
		return "", ErrProviderUnavailable.Wrap(err)
	}

	if resp.IsError() {
		code := apiErr.Error.Message
		c.logger.Warn("identity toolkit rejected sign up",
			zap.Int("status", resp.StatusCode()),
			zap.String("code", code))

		switch {
		case strings.HasPrefix(code, "EMAIL_EXISTS"):
			return "", ErrDuplicateEmail
		case strings.HasPrefix(code, "WEAK_PASSWORD"):
			return "", NewValidationError("Password is too weak", map[string]string{"password": code})
		case strings.HasPrefix(code, "INVALID_EMAIL"):
			return "", NewValidationError("Invalid email", map[string]string{"email": code})
		case resp.StatusCode() >= http.StatusInternalServerError:
			return "", ErrProviderUnavailable.WithDetail("status", resp.StatusCode())
		default:
			return "", ErrProviderRejected.WithDetail("code", code)
		}
	}

	if out.LocalID == "" {
		return "", ErrProviderRejected.Wrap(errors.New("sign up response has no localId"))
	}
	return out.LocalID, nil
}
