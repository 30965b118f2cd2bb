package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
)

func newGoogleTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			if r.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`))
		case "refresh_token":
			if r.Form.Get("refresh_token") != "rt-1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"at-2","token_type":"Bearer","expires_in":3600}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "ann@example.com", "name": "Ann"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestProvider(ts *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/auth/callback",
		AuthURL:      ts.URL + "/auth",
		TokenURL:     ts.URL + "/token",
		APIEndpoint:  ts.URL + "/",
	}, zap.NewNop())
}

func TestAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{ClientID: "client", RedirectURL: "http://localhost/cb"}, zap.NewNop())

	u, err := url.Parse(p.AuthCodeURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "gmail.readonly")
	assert.Contains(t, q.Get("scope"), "userinfo.email")
	assert.Contains(t, q.Get("scope"), "userinfo.profile")
}

func TestExchangeAndIdentity(t *testing.T) {
	ts := newGoogleTestServer(t)
	p := newTestProvider(ts)
	ctx := context.Background()

	creds, err := p.Exchange(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "at-1", creds.AccessToken)
	assert.Equal(t, "rt-1", creds.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), creds.ExpiresAt, time.Minute)

	identity, err := p.Identity(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", identity.Email)
	assert.Equal(t, "Ann", identity.Name)
}

func TestExchangeRejected(t *testing.T) {
	ts := newGoogleTestServer(t)
	p := newTestProvider(ts)

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, core.ErrExchangeFailed)

	_, err = p.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrExchangeFailed)
}

func TestIdentityRejected(t *testing.T) {
	ts := newGoogleTestServer(t)
	p := newTestProvider(ts)

	_, err := p.Identity(context.Background(), &core.CredentialPair{AccessToken: "wrong", ExpiresAt: time.Now().Add(time.Hour)})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRemoteAPI)
}

func TestProviderRefresh(t *testing.T) {
	ts := newGoogleTestServer(t)
	p := newTestProvider(ts)

	creds, err := p.Refresh(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", creds.AccessToken)

	_, err = p.Refresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	assert.True(t, strings.Contains(err.Error(), "refreshing token"))
}
