package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
)

// DefaultSessionID is used by single-user frontends such as the console
const DefaultSessionID = "default"

// stateTTL bounds how long a consent URL stays redeemable
const stateTTL = 10 * time.Minute

type pendingState struct {
	sessionID string
	issuedAt  time.Time
}

// TokenStore keeps the mailbox sessions in memory, keyed by session ID
type TokenStore struct {
	provider core.OAuthProvider
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]core.Session
	pending  map[string]pendingState
}

// NewTokenStore creates a new token store
func NewTokenStore(provider core.OAuthProvider, logger *zap.Logger) *TokenStore {
	return &TokenStore{
		provider: provider,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]core.Session),
		pending:  make(map[string]pendingState),
	}
}

// BeginConnection returns the consent URL for a session together with the
// state value the callback will carry
func (s *TokenStore) BeginConnection(sessionID string) (string, string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", "", fmt.Errorf("generating oauth state: %w", err)
	}
	state := id.String()

	s.mu.Lock()
	now := s.now()
	for key, p := range s.pending {
		if now.Sub(p.issuedAt) > stateTTL {
			delete(s.pending, key)
		}
	}
	s.pending[state] = pendingState{sessionID: sessionID, issuedAt: now}
	s.mu.Unlock()

	s.logger.Debug("Issued consent URL", zap.String("session_id", sessionID))
	return s.provider.AuthCodeURL(state), state, nil
}

// SessionForState resolves the session a callback state was issued for.
// A state can be redeemed once.
func (s *TokenStore) SessionForState(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok {
		return "", false
	}
	delete(s.pending, state)
	if s.now().Sub(p.issuedAt) > stateTTL {
		return "", false
	}
	return p.sessionID, true
}

// CompleteConnection exchanges an authorization code and marks the session
// connected. Nothing is stored when the exchange or the identity lookup
// fails.
func (s *TokenStore) CompleteConnection(ctx context.Context, sessionID, code string) (core.Session, error) {
	creds, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("Failed to exchange authorization code",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return core.Session{}, err
	}

	identity, err := s.provider.Identity(ctx, creds)
	if err != nil {
		s.logger.Error("Failed to look up account identity",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return core.Session{}, fmt.Errorf("%w: %v", core.ErrExchangeFailed, err)
	}

	session := core.Session{
		ID:          sessionID,
		Connected:   true,
		Email:       identity.Email,
		DisplayName: identity.Name,
		Credentials: creds,
		ConnectedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.logger.Info("Mailbox connected",
		zap.String("session_id", sessionID),
		zap.String("email", identity.Email))
	return snapshot(session), nil
}

// CurrentSession returns a copy of the session; unknown IDs yield a
// disconnected session
func (s *TokenStore) CurrentSession(sessionID string) core.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return core.Session{ID: sessionID}
	}
	return snapshot(session)
}

// IsValid reports whether the session is connected and its access token
// has not expired
func (s *TokenStore) IsValid(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	return ok && session.IsValid(s.now())
}

// Disconnect drops the session and its credentials
func (s *TokenStore) Disconnect(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.logger.Info("Mailbox disconnected", zap.String("session_id", sessionID))
}

// Credentials returns a copy of the session credentials if the session is
// still valid
func (s *TokenStore) Credentials(sessionID string) (*core.CredentialPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || !session.IsValid(s.now()) {
		return nil, fmt.Errorf("%w: session %q", core.ErrUnauthenticated, sessionID)
	}
	creds := *session.Credentials
	return &creds, nil
}

// Refresh trades the session's refresh token for a new access token. It is
// only ever called on request.
func (s *TokenStore) Refresh(ctx context.Context, sessionID string) (core.Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok || !session.Connected || session.Credentials == nil || session.Credentials.RefreshToken == "" {
		return core.Session{}, fmt.Errorf("%w: session %q has no refresh token", core.ErrUnauthenticated, sessionID)
	}
	refreshToken := session.Credentials.RefreshToken

	creds, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Error("Failed to refresh access token",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return core.Session{}, err
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = refreshToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok = s.sessions[sessionID]
	if !ok {
		return core.Session{}, fmt.Errorf("%w: session %q disconnected during refresh", core.ErrUnauthenticated, sessionID)
	}
	session.Credentials = creds
	s.sessions[sessionID] = session

	s.logger.Info("Access token refreshed",
		zap.String("session_id", sessionID),
		zap.Time("expires_at", creds.ExpiresAt))
	return snapshot(session), nil
}

func snapshot(session core.Session) core.Session {
	if session.Credentials != nil {
		creds := *session.Credentials
		session.Credentials = &creds
	}
	return session
}
