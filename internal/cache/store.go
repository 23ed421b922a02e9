// Package cache provides the read-through price cache used by the backtest engine
// and the key/value backends it can run on.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value store with per-entry expiry.
// Get returns apperrors.ErrCacheMiss for missing or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
