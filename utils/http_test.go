package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteJSON(t *testing.T) {
	t.Run("encodes payload", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusAccepted, map[string]string{"room": "204"}))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"room":"204"}`, w.Body.String())
	})

	t.Run("nil payload writes no body", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusNoContent, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestSuccessEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, interface{}) error
		status int
	}{
		{"ok", WriteOK, http.StatusOK},
		{"created", WriteCreated, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w, map[string]string{"status": "PENDING"}))

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"data":{"status":"PENDING"}}`, w.Body.String())
		})
	}
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	WriteNoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name           string
		write          func(http.ResponseWriter, string) error
		status         int
		kind           string
		defaultMessage string
	}{
		{"unauthorized", WriteUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication required"},
		{"forbidden", WriteForbidden, http.StatusForbidden, "forbidden", "Access denied"},
		{"not found", WriteNotFound, http.StatusNotFound, "not_found", "Resource not found"},
		{"bad gateway", WriteBadGateway, http.StatusBadGateway, "bad_gateway", "Identity provider request failed"},
		{"internal", WriteInternalServerError, http.StatusInternalServerError, "internal_error", "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" with message", func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w, "Complaint not found"))

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.kind, body.Code)
			assert.Equal(t, "Complaint not found", body.Error)
			assert.Nil(t, body.Details)
		})

		t.Run(tt.name+" default message", func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w, ""))

			assert.Equal(t, tt.defaultMessage, decodeError(t, w).Error)
		})
	}
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	details := map[string]interface{}{"email": "must be a valid email address"}

	require.NoError(t, WriteBadRequest(w, "Validation failed", details))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "bad_request", body.Code)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, "must be a valid email address", body.Details["email"])
}

func TestErrorEnvelopeCarriesMessageInErrorField(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteUnauthorized(w, "User not registered in system"))

	assert.JSONEq(t, `{"error":"User not registered in system","code":"unauthorized"}`, w.Body.String())
}

func TestWriteMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteMethodNotAllowed(w))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "method_not_allowed", body.Code)
	assert.Equal(t, "Method not allowed", body.Error)
}
