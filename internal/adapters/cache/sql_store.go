package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
)

// cacheRow is the stored form of a cache entry. Timestamps are unix
// milliseconds so both SQL dialects compare them the same way.
type cacheRow struct {
	Key       string `db:"cache_key"`
	Record    string `db:"record"`
	StoredAt  int64  `db:"stored_at"`
	ExpiresAt int64  `db:"expires_at"`
}

// sqlStore holds the queries shared by the SQLite and MySQL caches
type sqlStore struct {
	db          *sqlx.DB
	upsertQuery string
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func newSQLStore(db *sqlx.DB, upsertQuery string, logger *zap.Logger, cleanupFreq time.Duration) *sqlStore {
	store := &sqlStore{
		db:          db,
		upsertQuery: upsertQuery,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if cleanupFreq > 0 {
		go store.startCleanupTask()
	}

	return store
}

// Get retrieves a cached analysis by key
func (s *sqlStore) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var row cacheRow
	err := s.db.GetContext(ctx, &row,
		`SELECT cache_key, record, stored_at, expires_at FROM analysis_cache WHERE cache_key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	expiresAt := time.UnixMilli(row.ExpiresAt)
	if !expiresAt.After(s.now()) {
		return nil, ErrExpired
	}

	entry := &core.CacheEntry{
		Key:       row.Key,
		StoredAt:  time.UnixMilli(row.StoredAt),
		ExpiresAt: expiresAt,
	}
	if err := json.Unmarshal([]byte(row.Record), &entry.Record); err != nil {
		return nil, fmt.Errorf("failed to decode cached record: %w", err)
	}

	return entry, nil
}

// Set stores a cache entry, replacing any previous one with the same key
func (s *sqlStore) Set(ctx context.Context, entry *core.CacheEntry) error {
	record, err := json.Marshal(entry.Record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.db.NamedExecContext(ctx, s.upsertQuery, cacheRow{
		Key:       entry.Key,
		Record:    string(record),
		StoredAt:  entry.StoredAt.UnixMilli(),
		ExpiresAt: entry.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (s *sqlStore) Cleanup(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	if count, err := result.RowsAffected(); err == nil && count > 0 {
		s.logger.Debug("Cleaned up expired cache entries", zap.Int64("count", count))
	}

	return nil
}

// Stop stops the background cleanup task and closes the database
func (s *sqlStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close cache database", zap.Error(err))
		}
	})
}

func (s *sqlStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}
