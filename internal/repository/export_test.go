package repository

import "time"

// SetNow pins the clock used for cache expiry in tests.
func (r *CacheRepository) SetNow(now func() time.Time) { r.now = now }
