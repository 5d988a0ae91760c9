package main

import (
	"net/http"
	"strings"

	"loanflow/notification"
)

type notificationsResponse struct {
	Items       []notification.Notification `json:"items"`
	UnreadCount int                         `json:"unread_count"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeNotifications(w, s.dashboard(r).Notifications())
}

// handleNotificationDetail serves DELETE /{id}, POST /{id}/read and
// POST /read-all under /api/notifications.
func (s *Server) handleNotificationDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/notifications/"), "/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "notification id is required")
		return
	}
	parts := strings.Split(path, "/")
	log := s.dashboard(r).Notifications()

	switch {
	case len(parts) == 1 && parts[0] == "read-all":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		log.MarkAllRead()
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := log.Delete(parts[0]); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	case len(parts) == 2 && parts[1] == "read":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := log.MarkRead(parts[0]); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s.writeNotifications(w, log)
}

func (s *Server) writeNotifications(w http.ResponseWriter, log *notification.Log) {
	writeJSON(w, http.StatusOK, notificationsResponse{
		Items:       log.List(),
		UnreadCount: log.UnreadCount(),
	})
}
