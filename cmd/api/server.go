package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"loanflow/auth"
	"loanflow/borrower"
	"loanflow/broker"
	"loanflow/notification"
	"loanflow/validation"
)

type contextKey string

const (
	ctxKeyUserID  contextKey = "userID"
	ctxKeyRole    contextKey = "role"
	ctxKeySession contextKey = "sessionID"
)

// sessionHeader carries the browsing-session id. Authenticated requests
// without it fall back to the user id.
const sessionHeader = "X-Session-Id"

const invalidCredentialsMessage = "Invalid email or password. Please try again."

type authService interface {
	Login(ctx context.Context, clientID string, req auth.LoginRequest) (auth.LoginResult, error)
	Logout(ctx context.Context, clientID string) error
	Bootstrap(ctx context.Context, clientID string) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// Server exposes the dashboard over JSON.
type Server struct {
	authService authService
	dashboards  *borrower.Registry
	metrics     http.Handler
	log         *zap.Logger
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/session", s.handleSession)
	mux.Handle("/api/auth/logout", s.requireAuth(http.HandlerFunc(s.handleLogout)))

	mux.Handle("/api/dashboard", s.requireAuth(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("/api/dashboard/", s.requireAuth(http.HandlerFunc(s.handleDashboardAction)))
	mux.Handle("/api/borrowers", s.requireAuth(http.HandlerFunc(s.handleBorrowers)))
	mux.Handle("/api/borrowers/", s.requireAuth(http.HandlerFunc(s.handleBorrowerDetail)))
	mux.Handle("/api/notifications", s.requireAuth(http.HandlerFunc(s.handleNotifications)))
	mux.Handle("/api/notifications/", s.requireAuth(http.HandlerFunc(s.handleNotificationDetail)))
	mux.Handle("/api/broker", s.requireAuth(http.HandlerFunc(s.handleBroker)))
	mux.Handle("/api/broker/", s.requireAuth(http.HandlerFunc(s.handleBrokerAction)))

	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth validates the bearer token and stores the user, role and
// session id on the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, role, err := s.authService.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		sessionID := r.Header.Get(sessionHeader)
		if sessionID == "" {
			sessionID = userID
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		ctx = context.WithValue(ctx, ctxKeySession, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logger() *zap.Logger {
	if s.log == nil {
		return zap.NewNop()
	}
	return s.log
}

// dashboard returns the caller's dashboard. requireAuth must have run.
func (s *Server) dashboard(r *http.Request) *borrower.Dashboard {
	return s.dashboards.Get(sessionIDFrom(r.Context()))
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeySession).(string)
	return id
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors onto status codes. Anything unknown
// is logged and hidden behind a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, invalidCredentialsMessage)
	case errors.Is(err, auth.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "no active session")
	case errors.Is(err, borrower.ErrNotFound), errors.Is(err, broker.ErrNotFound), errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, borrower.ErrInvalidTransition), errors.Is(err, borrower.ErrNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, borrower.ErrUnknownBucket),
		errors.Is(err, borrower.ErrUnknownAction),
		errors.Is(err, broker.ErrUnknownContactMethod):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
