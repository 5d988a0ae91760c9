package main

import (
	"net/http"
	"strings"

	"loanflow/borrower"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.dashboard(r).Snapshot())
}

// handleDashboardAction serves /api/dashboard/{load,unload,tab,filter,help}.
func (s *Server) handleDashboardAction(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/dashboard/"), "/")
	d := s.dashboard(r)

	switch action {
	case "load":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		snap, err := d.Load(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)

	case "unload":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := d.Unload(r.Context()); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "tab":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Tab string `json:"tab"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		snap, err := d.SetActiveTab(borrower.Bucket(payload.Tab))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)

	case "filter":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Value string `json:"value"`
		}
		if err := decodeJSON(r, &payload); err != nil || payload.Value == "" {
			writeError(w, http.StatusBadRequest, "value is required")
			return
		}
		writeJSON(w, http.StatusOK, d.FilterChanged(payload.Value))

	case "help":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, d.Help())

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}
