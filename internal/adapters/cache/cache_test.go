package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
)

func sampleEntry(key string, expiresAt time.Time) *core.CacheEntry {
	return &core.CacheEntry{
		Key: key,
		Record: core.IntelligenceRecord{
			Category:  core.Category{Name: "work", Label: "Work"},
			Sentiment: []core.SentimentTag{{Name: "urgent", Label: "Urgent"}},
			Actions:   []core.SuggestedAction{{Type: "reply", Action: "Reply", Confidence: 0.6}},
			Tasks:     []core.Task{{Text: "send the report", Priority: core.PriorityHigh, Source: "ai_extraction"}},
		},
		StoredAt:  time.Now().Add(-time.Minute),
		ExpiresAt: expiresAt,
	}
}

type repository interface {
	core.CacheRepository
	Stop()
}

func exerciseRepository(t *testing.T, repo repository) {
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	live := sampleEntry("rules-1:abc", time.Now().Add(time.Hour))
	require.NoError(t, repo.Set(ctx, live))

	got, err := repo.Get(ctx, "rules-1:abc")
	require.NoError(t, err)
	assert.Equal(t, live.Record, got.Record)
	assert.Equal(t, live.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())

	// Overwrite keeps one row per key
	live.Record.Category = core.Category{Name: "finance", Label: "Finance"}
	require.NoError(t, repo.Set(ctx, live))
	got, err = repo.Get(ctx, "rules-1:abc")
	require.NoError(t, err)
	assert.Equal(t, "finance", got.Record.Category.Name)

	stale := sampleEntry("rules-1:old", time.Now().Add(-time.Second))
	require.NoError(t, repo.Set(ctx, stale))
	_, err = repo.Get(ctx, "rules-1:old")
	assert.ErrorIs(t, err, ErrExpired)

	require.NoError(t, repo.Cleanup(ctx))
	_, err = repo.Get(ctx, "rules-1:old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "rules-1:abc")
	assert.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "rules-1:abc"))
	_, err = repo.Get(ctx, "rules-1:abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(zap.NewNop(), 0)
	defer cache.Stop()

	exerciseRepository(t, cache)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	cache := NewMemoryCache(zap.NewNop(), time.Hour)
	defer cache.Stop()
	ctx := context.Background()

	entry := sampleEntry("k", time.Now().Add(time.Hour))
	require.NoError(t, cache.Set(ctx, entry))
	entry.Key = "mutated"

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "k", got.Key)
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCacheStopIsIdempotent(t *testing.T) {
	cache := NewMemoryCache(zap.NewNop(), time.Millisecond)
	cache.Stop()
	cache.Stop()
}

func TestSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	cache, err := NewSQLiteCache(path, zap.NewNop(), 0)
	require.NoError(t, err)
	defer cache.Stop()

	exerciseRepository(t, cache)
}

func TestSQLiteCachePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := NewSQLiteCache(path, zap.NewNop(), 0)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, sampleEntry("persisted", time.Now().Add(time.Hour))))
	first.Stop()

	second, err := NewSQLiteCache(path, zap.NewNop(), 0)
	require.NoError(t, err)
	defer second.Stop()

	got, err := second.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "work", got.Record.Category.Name)
}
