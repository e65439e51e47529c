package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/session-audit/internal/apperr"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// msgBadCredentials is the only message a failed login ever gets.
const msgBadCredentials = "Username or password is incorrect"

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeEmpty writes 200 with an empty JSON object.
func writeEmpty(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, struct{}{})
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceError maps a service error onto a response by its kind.
// Untagged errors are logged and reported as 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		writeError(w, http.StatusNotFound, ErrCodeNotFound, apperr.MessageOf(err))
	case apperr.Unauthorized, apperr.Invalid:
		writeUnauthorized(w, "unauthorised")
	case apperr.ValidationFailed:
		writeError(w, http.StatusBadRequest, ErrCodeValidation, apperr.MessageOf(err))
	default:
		s.logger.Error(op+" failed",
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}
