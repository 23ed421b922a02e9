package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// DefaultTTL is how long a fetched series stays cached.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "marketdata:"

// FetchFunc loads a series from the upstream source on a cache miss.
type FetchFunc func(ctx context.Context) (model.Series, error)

// PriceCache is a read-through cache for market data series.
// The cache is best-effort: read and write failures are logged as degraded
// and the upstream fetch result is returned regardless.
type PriceCache struct {
	store  Store
	ttl    time.Duration
	logger logrus.FieldLogger
}

type payload struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// NewPriceCache creates a PriceCache on top of store. A nil store disables caching.
// A non-positive ttl falls back to DefaultTTL.
func NewPriceCache(store Store, ttl time.Duration, logger logrus.FieldLogger) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PriceCache{store: store, ttl: ttl, logger: logger}
}

// Key derives the cache key for a (dataType, ticker, period) triple.
func Key(ticker, period string, dataType model.DataType) string {
	sum := sha256.Sum256([]byte(string(dataType) + ":" + ticker + ":" + period))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetOrFetch returns the cached series for the triple, or calls fetch and caches its result.
// Errors from fetch are returned unchanged; cache errors never are.
func (c *PriceCache) GetOrFetch(ctx context.Context, ticker, period string, dataType model.DataType, fetch FetchFunc) (model.Series, error) {
	if c.store == nil {
		return fetch(ctx)
	}

	key := Key(ticker, period, dataType)
	log := c.logger.WithFields(logrus.Fields{
		"ticker":    ticker,
		"period":    period,
		"data_type": dataType,
	})

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var p payload
		if decodeErr := json.Unmarshal(raw, &p); decodeErr != nil || len(p.Dates) != len(p.Values) {
			log.WithError(decodeErr).Warn("cache degraded: corrupt entry, fetching directly")
		} else {
			log.Debug("cache hit")
			return model.Series{Dates: p.Dates, Values: p.Values}, nil
		}
	case errors.Is(err, apperrors.ErrCacheMiss):
		log.Debug("cache miss")
	default:
		log.WithError(err).Warn("cache degraded: read failed, fetching directly")
	}

	series, err := fetch(ctx)
	if err != nil {
		return model.Series{}, err
	}

	// Empty price series are not cached. Dividend series may be empty.
	if dataType == model.DataTypePrices && series.Len() == 0 {
		return series, nil
	}

	encoded, err := json.Marshal(payload{Dates: series.Dates, Values: series.Values})
	if err != nil {
		log.WithError(err).Warn("cache degraded: failed to encode series")
		return series, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		log.WithError(err).Warn("cache degraded: write failed")
	}

	return series, nil
}
