package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hostelcare/complaint-api/auth"
	"github.com/hostelcare/complaint-api/internal/observability"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

var testPublicPaths = []string{"/api/auth/login", "/api/health"}

func newGate(v auth.TokenVerifier, u UserLookup) *AuthMiddleware {
	return NewAuthMiddleware(v, u, testPublicPaths, nil, zap.NewNop())
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestAuthenticate(t *testing.T) {
	student := models.NewUser("uid-1", "s@example.com", "Ravi", models.RoleStudent)
	inactive := models.NewUser("uid-2", "i@example.com", "Ina", models.RoleParent)
	inactive.Active = false

	tests := []struct {
		name        string
		path        string
		header      string
		setup       func(*MockTokenVerifier, *MockUserLookup)
		wantStatus  int
		wantMessage string
		wantCalled  bool
		wantSubject string
	}{
		{
			name:       "public path skips verification",
			path:       "/api/health/ready",
			header:     "Bearer whatever",
			setup:      func(*MockTokenVerifier, *MockUserLookup) {},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "no token passes through without principal",
			path:       "/api/complaints",
			setup:      func(*MockTokenVerifier, *MockUserLookup) {},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "non bearer scheme is ignored",
			path:       "/api/complaints",
			header:     "Basic dXNlcjpwYXNz",
			setup:      func(*MockTokenVerifier, *MockUserLookup) {},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:   "valid token attaches principal",
			path:   "/api/complaints/my",
			header: "Bearer good",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "good").Return(&auth.Claims{Subject: "uid-1"}, nil)
				u.On("GetBySubject", mock.Anything, "uid-1").Return(student, nil)
			},
			wantStatus:  http.StatusOK,
			wantCalled:  true,
			wantSubject: "uid-1",
		},
		{
			name:   "invalid token is 401",
			path:   "/api/complaints/my",
			header: "Bearer bad",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "bad").Return(nil, auth.ErrInvalidToken)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:   "expired token is 401",
			path:   "/api/complaints/my",
			header: "Bearer old",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "old").Return(nil, auth.ErrTokenExpired)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:   "verifier unavailable is 500",
			path:   "/api/complaints/my",
			header: "Bearer any",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "any").
					Return(nil, fmt.Errorf("%w: jwks down", auth.ErrVerifierUnavailable))
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Authentication failed",
		},
		{
			name:   "unknown subject is 401",
			path:   "/api/complaints/my",
			header: "Bearer stranger",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "stranger").Return(&auth.Claims{Subject: "ghost"}, nil)
				u.On("GetBySubject", mock.Anything, "ghost").Return(nil, repositories.ErrNotFound)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "User not registered in system",
		},
		{
			name:   "store failure is 500",
			path:   "/api/complaints/my",
			header: "Bearer good",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "good").Return(&auth.Claims{Subject: "uid-1"}, nil)
				u.On("GetBySubject", mock.Anything, "uid-1").Return(nil, errors.New("connection refused"))
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Authentication failed",
		},
		{
			name:   "deactivated account is 403",
			path:   "/api/complaints/my",
			header: "Bearer inactive",
			setup: func(v *MockTokenVerifier, u *MockUserLookup) {
				v.On("ValidateToken", mock.Anything, "inactive").Return(&auth.Claims{Subject: "uid-2"}, nil)
				u.On("GetBySubject", mock.Anything, "uid-2").Return(inactive, nil)
			},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Account is deactivated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			users := new(MockUserLookup)
			tt.setup(verifier, users)

			called := false
			var seen *Principal
			handler := newGate(verifier, users).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen = PrincipalFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeMessage(t, w))
			}
			if tt.wantSubject != "" {
				require.NotNil(t, seen)
				assert.Equal(t, tt.wantSubject, seen.Subject)
				assert.Equal(t, "ROLE_STUDENT", seen.Authority)
			} else {
				assert.Nil(t, seen)
			}
			verifier.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	gate := newGate(new(MockTokenVerifier), new(MockUserLookup))
	admin := models.NewUser("a", "a@example.com", "Admin", models.RoleAdmin)
	parent := models.NewUser("p", "p@example.com", "Parent", models.RoleParent)

	tests := []struct {
		name       string
		principal  *Principal
		wantStatus int
		wantCalled bool
	}{
		{"no principal", nil, http.StatusUnauthorized, false},
		{"wrong role", NewPrincipal(parent), http.StatusForbidden, false},
		{"matching role", NewPrincipal(admin), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := gate.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodDelete, "/api/users/x", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.principal))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	gate := newGate(new(MockTokenVerifier), new(MockUserLookup))
	handler := gate.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := models.NewUser("s", "s@example.com", "S", models.RoleStudent)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(WithPrincipal(req.Context(), NewPrincipal(user)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/complaints/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/complaints/123", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() != "hostelcare_api_errors_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["path"] == "/api/complaints/{id}" && labels["status"] == "404" {
				found = true
				assert.Equal(t, 1.0, metric.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found)
}
