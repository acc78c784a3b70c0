package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hostelcare/complaint-api/auth"
	"github.com/hostelcare/complaint-api/internal/observability"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"github.com/hostelcare/complaint-api/utils"
	"go.uber.org/zap"
)

// UserLookup resolves a verified subject to a directory user
type UserLookup interface {
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
}

// AuthMiddleware authenticates requests and enforces role requirements
type AuthMiddleware struct {
	verifier    auth.TokenVerifier
	users       UserLookup
	publicPaths []string
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier auth.TokenVerifier, users UserLookup, publicPaths []string, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:    verifier,
		users:       users,
		publicPaths: publicPaths,
		metrics:     metrics,
		logger:      logger,
	}
}

// Authenticate verifies the bearer token, if any, and attaches the principal.
// Public paths and requests without a token pass through with no principal.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if m.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		requestID := GetRequestIDFromContext(ctx)

		claims, err := m.verifier.ValidateToken(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrVerifierUnavailable) {
				m.logger.Error("token verification unavailable",
					zap.String("request_id", requestID),
					zap.Error(err))
				m.metrics.AuthOutcome("verifier_unavailable")
				_ = utils.WriteInternalServerError(w, "Authentication failed")
				return
			}
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			m.metrics.AuthOutcome("invalid_token")
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		user, err := m.users.GetBySubject(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				m.logger.Warn("token subject not registered",
					zap.String("request_id", requestID),
					zap.String("sub", claims.Subject))
				m.metrics.AuthOutcome("not_registered")
				_ = utils.WriteUnauthorized(w, "User not registered in system")
				return
			}
			m.logger.Error("user lookup failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			m.metrics.AuthOutcome("lookup_failed")
			_ = utils.WriteInternalServerError(w, "Authentication failed")
			return
		}

		if !user.Active {
			m.logger.Warn("deactivated account",
				zap.String("request_id", requestID),
				zap.String("user_id", user.ID.String()))
			m.metrics.AuthOutcome("deactivated")
			_ = utils.WriteForbidden(w, "Account is deactivated")
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject),
			zap.String("role", string(user.Role)))
		m.metrics.AuthOutcome("authenticated")

		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, NewPrincipal(user))))
	})
}

// RequireAuthenticated rejects requests that carry no principal
func (m *AuthMiddleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFrom(r.Context()) == nil {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows the request only when the principal holds one of roles
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p == nil {
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}
			if !p.HasRole(roles...) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("role", string(p.Role)),
					zap.String("path", r.URL.Path))
				_ = utils.WriteForbidden(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) isPublic(path string) bool {
	for _, prefix := range m.publicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
