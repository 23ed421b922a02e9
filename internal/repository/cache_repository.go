package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
)

// CacheRepository is a key/value store with expiry backed by the cache_entry table.
// It satisfies cache.Store so the price cache can live in the main database.
type CacheRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewCacheRepository creates a new CacheRepository with the provided database connection.
func NewCacheRepository(db *sqlx.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// Get returns the payload stored under key.
// Missing and expired entries both return apperrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT payload
		FROM cache_entry
		WHERE cache_key = ? AND expires_at > ?
	`

	var payload string
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), key, FormatTimestamp(r.now())).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache_entry: %w", err)
	}
	return []byte(payload), nil
}

// Set stores value under key for ttl, replacing any previous entry.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO cache_entry (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), key, string(value), FormatTimestamp(r.now().Add(ttl)))
	if err != nil {
		return fmt.Errorf("failed to upsert cache_entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired entries and returns how many were removed.
func (r *CacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM cache_entry WHERE expires_at <= ?`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), FormatTimestamp(r.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache_entry: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purged row count: %w", err)
	}
	return removed, nil
}
