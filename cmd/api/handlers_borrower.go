package main

import (
	"net/http"
	"strings"

	"loanflow/borrower"
)

type addBorrowerResponse struct {
	Borrower borrower.Detail   `json:"borrower"`
	Snapshot borrower.Snapshot `json:"snapshot"`
}

// handleBorrowers serves POST /api/borrowers.
func (s *Server) handleBorrowers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var in borrower.NewBorrower
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, snap, err := s.dashboard(r).AddBorrower(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addBorrowerResponse{Borrower: detail, Snapshot: snap})
}

// handleBorrowerDetail serves /api/borrowers/search, /api/borrowers/{id} and
// /api/borrowers/{id}/{action}.
func (s *Server) handleBorrowerDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/borrowers/"), "/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "borrower id is required")
		return
	}
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] == "search":
		s.handleSearch(w, r)
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		snap, err := s.dashboard(r).Select(r.Context(), parts[0])
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case len(parts) == 2:
		s.handleTransition(w, r, parts[0], parts[1])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := s.dashboard(r).Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, id, name string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	action, err := borrower.ParseAction(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	snap, err := s.dashboard(r).Apply(r.Context(), action, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
