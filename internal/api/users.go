package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/session-audit/internal/auth"
)

// handleRegister creates a Standard account. A role in the body is ignored.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	u, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "register user", err)
		return
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	writeEmpty(w)
}

// handleListUsers returns {totalCount, result}. limit defaults to 10 and
// skip to 0.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.accounts.List(r.Context(), queryInt(r, "limit"), queryInt(r, "skip"))
	if err != nil {
		s.writeServiceError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleCurrentUser returns the caller's own profile.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.writeProfile(w, r, callerFromContext(r.Context()))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.writeProfile(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeProfile(w http.ResponseWriter, r *http.Request, id string) {
	u, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleUpdateUser applies the supplied fields to an account. Only an
// Auditor may change a role.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req auth.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	caller := callerFromContext(r.Context())
	if err := s.accounts.Update(r.Context(), caller, id, req); err != nil {
		s.writeServiceError(w, r, "update user", err)
		return
	}

	s.logger.Info("user updated", "user_id", id, "by", caller)
	writeEmpty(w)
}

// handleDeleteUser removes an account and, by cascade, its session log.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.accounts.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, "delete user", err)
		return
	}

	s.logger.Info("user deleted", "user_id", id, "by", callerFromContext(r.Context()))
	writeEmpty(w)
}

// queryInt parses an integer query parameter. Absent or non-numeric
// values read as 0 so the service applies its default.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
