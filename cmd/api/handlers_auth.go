package main

import (
	"net/http"

	"loanflow/auth"
)

type sessionResponse struct {
	Token string        `json:"token"`
	User  auth.Identity `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	clientID := r.Header.Get(sessionHeader)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	var req auth.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), clientID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: result.Token, User: result.Identity})
}

// handleSession restores the stored identity, signing the demo broker in
// when there is none.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	clientID := r.Header.Get(sessionHeader)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	result, err := s.authService.Bootstrap(r.Context(), clientID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: result.Token, User: result.Identity})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sessionID := sessionIDFrom(r.Context())
	if err := s.authService.Logout(r.Context(), sessionID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.dashboards.Drop(sessionID)
	w.WriteHeader(http.StatusNoContent)
}
