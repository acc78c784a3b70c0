package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response. Error carries the
// human-readable message; Code is the machine-readable kind.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps every 2xx payload as {"data": ...}
type SuccessResponse struct {
	Data interface{} `json:"data,omitempty"`
}

// errorKinds names the machine-readable "code" field per status, with the
// message used when the caller passes none.
var errorKinds = map[int]struct{ kind, fallback string }{
	http.StatusBadRequest:          {"bad_request", "Invalid request"},
	http.StatusUnauthorized:        {"unauthorized", "Authentication required"},
	http.StatusForbidden:           {"forbidden", "Access denied"},
	http.StatusNotFound:            {"not_found", "Resource not found"},
	http.StatusMethodNotAllowed:    {"method_not_allowed", "Method not allowed"},
	http.StatusBadGateway:          {"bad_gateway", "Identity provider request failed"},
	http.StatusInternalServerError: {"internal_error", "An internal error occurred"},
}

// WriteJSON writes data as JSON with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteData writes payload inside the success envelope
func WriteData(w http.ResponseWriter, status int, payload interface{}) error {
	return WriteJSON(w, status, SuccessResponse{Data: payload})
}

func WriteOK(w http.ResponseWriter, payload interface{}) error {
	return WriteData(w, http.StatusOK, payload)
}

func WriteCreated(w http.ResponseWriter, payload interface{}) error {
	return WriteData(w, http.StatusCreated, payload)
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeError writes the error envelope. Unknown statuses are reported as internal errors.
func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) error {
	k, ok := errorKinds[status]
	if !ok {
		k = errorKinds[http.StatusInternalServerError]
	}
	if message == "" {
		message = k.fallback
	}
	return WriteJSON(w, status, ErrorResponse{Error: message, Code: k.kind, Details: details})
}

// WriteBadRequest writes a 400; details carries field-level validation messages
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusBadRequest, message, details)
}

func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusUnauthorized, message, nil)
}

func WriteForbidden(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusForbidden, message, nil)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusNotFound, message, nil)
}

func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return writeError(w, http.StatusMethodNotAllowed, "", nil)
}

// WriteBadGateway reports a failed call to the identity provider
func WriteBadGateway(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusBadGateway, message, nil)
}

func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusInternalServerError, message, nil)
}
