package main

import (
	"net/http"
	"strings"

	"loanflow/broker"
)

type brokerResponse struct {
	Name          string   `json:"name"`
	Deals         int      `json:"deals"`
	ApprovalRate  string   `json:"approval_rate"`
	Pending       int64    `json:"pending"`
	WorkflowSteps []string `json:"workflow_steps"`
}

func toBrokerResponse(o broker.Overview, steps []string) brokerResponse {
	return brokerResponse{
		Name:          o.Name,
		Deals:         o.Deals,
		ApprovalRate:  o.ApprovalRate,
		Pending:       o.Pending,
		WorkflowSteps: steps,
	}
}

func (s *Server) handleBroker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.dashboard(r).Snapshot()
	writeJSON(w, http.StatusOK, toBrokerResponse(snap.Broker, snap.WorkflowSteps))
}

// handleBrokerAction serves /api/broker/contact and /api/broker/assistant.
func (s *Server) handleBrokerAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	d := s.dashboard(r)

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/broker/"), "/") {
	case "contact":
		var payload struct {
			Method string `json:"method"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		n, err := d.ContactBroker(payload.Method)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, n)

	case "assistant":
		var payload struct {
			Enabled bool `json:"enabled"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		writeJSON(w, http.StatusOK, d.ToggleAssistant(payload.Enabled))

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}
