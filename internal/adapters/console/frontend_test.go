package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/auth"
	"github.com/mikey/inbox-intel/internal/core"
)

type fakeSessions struct {
	valid     bool
	code      string
	sessionID string
}

func (f *fakeSessions) BeginConnection(sessionID string) (string, string, error) {
	return "https://consent.example/auth?state=s1", "s1", nil
}

func (f *fakeSessions) CompleteConnection(ctx context.Context, sessionID, code string) (core.Session, error) {
	f.code = code
	f.sessionID = sessionID
	f.valid = true
	return core.Session{ID: sessionID, Connected: true, Email: "ann@example.com"}, nil
}

func (f *fakeSessions) IsValid(sessionID string) bool {
	return f.valid
}

type fakeInbox struct {
	limit int
	err   error
}

func (f *fakeInbox) Refresh(ctx context.Context, sessionID string, limit int) ([]core.EnrichedMessage, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []core.EnrichedMessage{{ID: "m1", Subject: "Hello"}}, nil
}

func TestRunConnectsAndPrints(t *testing.T) {
	sessions := &fakeSessions{}
	inbox := &fakeInbox{}
	var out bytes.Buffer

	f := NewFrontend(sessions, inbox, strings.NewReader("4/abc\n"), &out, 5, zap.NewNop())
	require.NoError(t, f.Run(context.Background()))

	assert.Equal(t, "4/abc", sessions.code)
	assert.Equal(t, auth.DefaultSessionID, sessions.sessionID)
	assert.Equal(t, 5, inbox.limit)
	assert.Contains(t, out.String(), "https://consent.example/auth?state=s1")
	assert.Contains(t, out.String(), "Connected as ann@example.com")

	jsonStart := strings.Index(out.String(), "[")
	require.GreaterOrEqual(t, jsonStart, 0)
	var emails []core.EnrichedMessage
	require.NoError(t, json.Unmarshal([]byte(out.String()[jsonStart:]), &emails))
	require.Len(t, emails, 1)
	assert.Equal(t, "m1", emails[0].ID)
}

func TestRunSkipsConsentWhenValid(t *testing.T) {
	sessions := &fakeSessions{valid: true}
	var out bytes.Buffer

	f := NewFrontend(sessions, &fakeInbox{}, strings.NewReader(""), &out, 10, zap.NewNop())
	require.NoError(t, f.Run(context.Background()))

	assert.Empty(t, sessions.code)
	assert.NotContains(t, out.String(), "Connect Gmail")
}

func TestParseCode(t *testing.T) {
	code, err := parseCode("http://localhost:3000/auth/callback?code=4%2Fxyz&state=s1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "4/xyz", code)

	_, err = parseCode("http://localhost:3000/auth/callback?code=4%2Fxyz&state=other", "s1")
	assert.ErrorIs(t, err, core.ErrExchangeFailed)

	_, err = parseCode("", "s1")
	assert.ErrorIs(t, err, core.ErrExchangeFailed)

	code, err = parseCode("plain-code", "s1")
	require.NoError(t, err)
	assert.Equal(t, "plain-code", code)
}

func TestStartReportsFailure(t *testing.T) {
	inbox := &fakeInbox{err: errors.New("boom")}
	var out bytes.Buffer

	f := NewFrontend(&fakeSessions{valid: true}, inbox, strings.NewReader(""), &out, 10, zap.NewNop())
	require.NoError(t, f.Start())
	<-f.Done()

	assert.EqualError(t, f.Err(), "boom")
	assert.Contains(t, out.String(), "Error: boom")
	assert.NoError(t, f.Stop())
}
