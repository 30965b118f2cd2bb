package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/config"
	"github.com/mikey/inbox-intel/internal/core"
)

// SessionStore is the part of the token store the HTTP surface drives
type SessionStore interface {
	BeginConnection(sessionID string) (string, string, error)
	SessionForState(state string) (string, bool)
	CompleteConnection(ctx context.Context, sessionID, code string) (core.Session, error)
	CurrentSession(sessionID string) core.Session
	IsValid(sessionID string) bool
	Disconnect(sessionID string)
	Refresh(ctx context.Context, sessionID string) (core.Session, error)
}

// Inbox is the part of the inbox service the HTTP surface drives
type Inbox interface {
	Refresh(ctx context.Context, sessionID string, limit int) ([]core.EnrichedMessage, error)
	Envelopes(ctx context.Context, sessionID string, limit int) ([]core.MessageEnvelope, error)
}

// Server serves the session and inbox endpoints over HTTP
type Server struct {
	sessions   SessionStore
	inbox      Inbox
	cfg        config.ServerConfig
	logger     *zap.Logger
	mux        *http.ServeMux
	httpServer *http.Server
	now        func() time.Time
}

// NewServer creates a new HTTP server
func NewServer(sessions SessionStore, inbox Inbox, cfg config.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		inbox:    inbox,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	if s.cfg.CookieName == "" {
		s.cfg.CookieName = "inbox_session"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/google", s.handleConnect)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("GET /auth/status", s.handleStatus)
	mux.HandleFunc("POST /auth/disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/emails", s.handleEmails)
	mux.HandleFunc("GET /api/envelopes", s.handleEnvelopes)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", s.handleNotFound)
	s.mux = mux

	return s
}

// ServeHTTP dispatches a request and logs its outcome
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("Handled request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", s.now().Sub(start)))
}

// Refresh returns the enriched inbox of a session
func (s *Server) Refresh(ctx context.Context, sessionID string, limit int) ([]core.EnrichedMessage, error) {
	return s.inbox.Refresh(ctx, sessionID, limit)
}

// Start starts listening in the background
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP API starting", zap.String("address", s.cfg.ListenAddress))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests, up to the shutdown timeout
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.ensureSession(w, r)
	if err != nil {
		s.logger.Error("Failed to create session", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to initiate OAuth flow", err.Error())
		return
	}

	authURL, _, err := s.sessions.BeginConnection(sessionID)
	if err != nil {
		s.logger.Error("Failed to build consent URL", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to initiate OAuth flow", err.Error())
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		reason := query.Get("error_description")
		if reason == "" {
			reason = providerErr
		}
		s.logger.Warn("Consent denied", zap.String("reason", reason))
		s.callbackFailed(w, r, http.StatusBadRequest, reason)
		return
	}

	code := query.Get("code")
	if code == "" {
		s.callbackFailed(w, r, http.StatusBadRequest, "no_code")
		return
	}

	sessionID, ok := s.sessions.SessionForState(query.Get("state"))
	if !ok {
		s.logger.Warn("Callback with unknown or expired state")
		s.callbackFailed(w, r, http.StatusBadRequest, "invalid_state")
		return
	}

	session, err := s.sessions.CompleteConnection(r.Context(), sessionID, code)
	if err != nil {
		s.callbackFailed(w, r, http.StatusBadGateway, "oauth_failed")
		return
	}

	if s.cfg.SuccessRedirect != "" {
		http.Redirect(w, r, withQuery(s.cfg.SuccessRedirect, "connected", "true"), http.StatusFound)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"email":   session.Email,
		"name":    session.DisplayName,
	})
}

func (s *Server) callbackFailed(w http.ResponseWriter, r *http.Request, status int, reason string) {
	if s.cfg.SuccessRedirect != "" {
		http.Redirect(w, r, withQuery(s.cfg.SuccessRedirect, "error", reason), http.StatusFound)
		return
	}
	s.respondError(w, status, "OAuth callback failed", reason)
}

type statusResponse struct {
	Connected   bool       `json:"connected"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	ConnectedAt *time.Time `json:"connectedAt"`
	TokenValid  bool       `json:"tokenValid"`
}

func (s *Server) statusFor(sessionID string) statusResponse {
	if sessionID == "" || !s.sessions.IsValid(sessionID) {
		return statusResponse{}
	}
	session := s.sessions.CurrentSession(sessionID)
	connectedAt := session.ConnectedAt.UTC()
	return statusResponse{
		Connected:   true,
		Email:       session.Email,
		Name:        session.DisplayName,
		ConnectedAt: &connectedAt,
		TokenValid:  true,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.statusFor(s.sessionID(r)))
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if sessionID := s.sessionID(r); sessionID != "" {
		s.sessions.Disconnect(sessionID)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Gmail account disconnected",
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	if _, err := s.sessions.Refresh(r.Context(), sessionID); err != nil {
		if errors.Is(err, core.ErrUnauthenticated) {
			s.respondError(w, http.StatusUnauthorized, "No Gmail account connected", "Please connect your Gmail account first")
			return
		}
		s.respondError(w, http.StatusBadGateway, "Failed to refresh access token", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, s.statusFor(sessionID))
}

type userView struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	emails, err := s.inbox.Refresh(r.Context(), sessionID, parseLimit(r))
	if err != nil {
		s.inboxFailed(w, r, err, "Failed to fetch emails")
		return
	}

	session := s.sessions.CurrentSession(sessionID)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully fetched %d emails", len(emails)),
		"count":   len(emails),
		"user":    userView{Email: session.Email, Name: session.DisplayName},
		"emails":  emails,
	})
}

type envelopeView struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	To       []string `json:"to"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	Unread   bool     `json:"unread"`
	Starred  bool     `json:"starred"`
}

func (s *Server) handleEnvelopes(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	envelopes, err := s.inbox.Envelopes(r.Context(), sessionID, parseLimit(r))
	if err != nil {
		s.inboxFailed(w, r, err, "Failed to fetch envelopes")
		return
	}

	views := make([]envelopeView, 0, len(envelopes))
	for _, env := range envelopes {
		view := envelopeView{
			ID:       env.ID,
			ThreadID: env.ThreadID,
			Subject:  env.Subject,
			From:     env.From,
			To:       env.To,
			Snippet:  env.Snippet,
			Unread:   env.Unread,
			Starred:  env.Starred,
		}
		if !env.Date.IsZero() {
			view.Date = env.Date.UTC().Format(time.RFC3339)
		}
		views = append(views, view)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(views),
		"emails":  views,
	})
}

func (s *Server) inboxFailed(w http.ResponseWriter, r *http.Request, err error, title string) {
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, core.ErrUnauthenticated):
		s.respondError(w, http.StatusUnauthorized, "No Gmail account connected", "Please connect your Gmail account first")
	case errors.Is(err, core.ErrInitializationFailed):
		s.logger.Error("Failed to initialize mail client", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to initialize Gmail service", err.Error())
	default:
		s.logger.Error(title, zap.String("path", r.URL.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, title, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
}

// sessionID returns the session cookie value, empty when absent
func (s *Server) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// ensureSession returns the caller's session ID, issuing a cookie first
// when the caller has none
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if id := s.sessionID(r); id != "" {
		return id, nil
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id.String(), nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, title, message string) {
	s.respondJSON(w, status, map[string]string{
		"error":   title,
		"message": message,
	})
}

func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
