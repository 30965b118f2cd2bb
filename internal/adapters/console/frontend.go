package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/auth"
	"github.com/mikey/inbox-intel/internal/core"
)

// Sessions is the part of the token store the console drives
type Sessions interface {
	BeginConnection(sessionID string) (string, string, error)
	CompleteConnection(ctx context.Context, sessionID, code string) (core.Session, error)
	IsValid(sessionID string) bool
}

// Inbox is the part of the inbox service the console drives
type Inbox interface {
	Refresh(ctx context.Context, sessionID string, limit int) ([]core.EnrichedMessage, error)
}

// Frontend connects a mailbox from a terminal and prints its enriched
// messages as JSON. It serves a single session.
type Frontend struct {
	sessions Sessions
	inbox    Inbox
	in       io.Reader
	out      io.Writer
	limit    int
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewFrontend creates a new console frontend
func NewFrontend(sessions Sessions, inbox Inbox, in io.Reader, out io.Writer, limit int, logger *zap.Logger) *Frontend {
	return &Frontend{
		sessions: sessions,
		inbox:    inbox,
		in:       in,
		out:      out,
		limit:    limit,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Refresh returns the enriched inbox of a session
func (f *Frontend) Refresh(ctx context.Context, sessionID string, limit int) ([]core.EnrichedMessage, error) {
	return f.inbox.Refresh(ctx, sessionID, limit)
}

// Run connects the mailbox if needed, then prints the enriched inbox
func (f *Frontend) Run(ctx context.Context) error {
	if err := f.Connect(ctx); err != nil {
		return err
	}

	fmt.Fprintf(f.out, "Fetching up to %d messages...\n", f.limit)
	start := time.Now()
	emails, err := f.Refresh(ctx, auth.DefaultSessionID, f.limit)
	if err != nil {
		return err
	}
	f.logger.Debug("Inbox refreshed",
		zap.Int("count", len(emails)),
		zap.Duration("duration", time.Since(start)))

	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(emails)
}

// Connect walks the user through the consent screen unless the session
// is already valid
func (f *Frontend) Connect(ctx context.Context) error {
	if f.sessions.IsValid(auth.DefaultSessionID) {
		return nil
	}

	authURL, state, err := f.sessions.BeginConnection(auth.DefaultSessionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(f.out, "\n=== Connect Gmail ===\n")
	fmt.Fprintf(f.out, "Open this URL in a browser and approve access:\n\n%s\n\n", authURL)
	fmt.Fprintf(f.out, "Paste the authorization code (or the full redirect URL): ")

	line, err := bufio.NewReader(f.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	code, err := parseCode(strings.TrimSpace(line), state)
	if err != nil {
		return err
	}

	session, err := f.sessions.CompleteConnection(ctx, auth.DefaultSessionID, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.out, "Connected as %s\n\n", session.Email)
	return nil
}

// parseCode accepts a bare code or a redirect URL carrying code and state
func parseCode(input, state string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%w: no authorization code given", core.ErrExchangeFailed)
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: malformed redirect URL", core.ErrExchangeFailed)
	}
	q := u.Query()
	if got := q.Get("state"); got != "" && got != state {
		return "", fmt.Errorf("%w: state mismatch", core.ErrExchangeFailed)
	}
	if q.Get("code") == "" {
		return "", fmt.Errorf("%w: redirect URL has no code", core.ErrExchangeFailed)
	}
	return q.Get("code"), nil
}

// Start runs the console flow in the background; Done is closed when it ends
func (f *Frontend) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	go func() {
		defer close(f.done)
		if err := f.Run(ctx); err != nil {
			f.err = err
			f.logger.Error("Console session failed", zap.Error(err))
			fmt.Fprintf(f.out, "Error: %v\n", err)
		}
	}()
	return nil
}

// Done is closed once the console flow has finished
func (f *Frontend) Done() <-chan struct{} {
	return f.done
}

// Err returns the error the console flow ended with, once Done is closed
func (f *Frontend) Err() error {
	<-f.done
	return f.err
}

// Stop cancels an in-flight console flow
func (f *Frontend) Stop() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}
