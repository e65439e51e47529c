package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/session-audit/internal/audit"
)

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleAuthenticate verifies credentials, opens a session entry and
// returns the profile with a bearer token.
//
// Every credential failure gets the same 400 response. A login whose
// session entry cannot be written fails with 500 rather than returning a
// token with no audit record.
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.correlator.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, "authenticate", err)
		return
	}
	if result == nil {
		writeBadRequest(w, msgBadCredentials)
		return
	}

	if _, err := s.correlator.OpenSession(r.Context(), result.ID, clientAddress(r)); err != nil {
		s.logger.Error("opening session failed",
			"user_id", result.ID,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "could not record session")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleLogout closes the caller's most recent open session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := s.correlator.CloseMostRecentOpenSession(r.Context(), callerFromContext(r.Context())); err != nil {
		s.writeServiceError(w, r, "logout", err)
		return
	}
	writeEmpty(w)
}

// handleAudit returns a page of session history to an Auditor.
//
// Query parameters: userId (cross-user reads only when enabled), limit, skip.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	result, err := s.gate.FetchAudit(r.Context(), bearerToken(r), audit.Query{
		UserID: r.URL.Query().Get("userId"),
		Limit:  queryInt(r, "limit"),
		Skip:   queryInt(r, "skip"),
	})
	if err != nil {
		s.writeServiceError(w, r, "fetch audit", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
