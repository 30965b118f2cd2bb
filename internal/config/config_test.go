package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	gmail := cfg.GetGmail()
	assert.Equal(t, "me", gmail.UserID)
	assert.Equal(t, 5, gmail.FetchConcurrency)
	assert.Equal(t, 15*time.Second, gmail.RequestTimeout)

	server := cfg.GetServer()
	assert.Equal(t, "http", server.Frontend)
	assert.Equal(t, 10, server.DefaultLimit)
	assert.Equal(t, 50, server.MaxLimit)

	assert.Equal(t, 20, cfg.GetContent().MinCleanLength)
	assert.Equal(t, "none", cfg.GetSummary().Provider)
	assert.Empty(t, cfg.GetIgnoredSenders())

	cache := cfg.GetCache()
	assert.True(t, cache.Enabled)
	assert.Equal(t, "memory", cache.Type)
	assert.Equal(t, 24*time.Hour, cache.TTL)
	assert.Equal(t, time.Hour, cache.CleanupFrequency)
}

func TestMalformedDurationFallsBack(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("cache.ttl", "soon")
	assert.Equal(t, 24*time.Hour, cfg.GetCache().TTL)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("INBOX_INTEL_GMAIL_FETCH_CONCURRENCY", "8")
	t.Setenv("INBOX_INTEL_SUMMARY_PROVIDER", "heuristic")
	t.Setenv("GOOGLE_CLIENT_ID", "legacy-client")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.GetGmail().FetchConcurrency)
	assert.Equal(t, "heuristic", cfg.GetSummary().Provider)
	assert.Equal(t, "legacy-client", cfg.GetOAuth().ClientID)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
summary:
  provider: heuristic
ingest:
  ignored_senders:
    - news@example.com
    - example.org
cache:
  type: sqlite
`), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "heuristic", cfg.GetSummary().Provider)
	assert.Equal(t, []string{"news@example.com", "example.org"}, cfg.GetIgnoredSenders())
	assert.Equal(t, "sqlite", cfg.GetCache().Type)
	assert.Equal(t, 4096, cfg.GetSummary().MaxBodySize)

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
