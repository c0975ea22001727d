package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/pkg/places"
)

// PlaceCache is the slice of Store the caching client needs.
type PlaceCache interface {
	GetCachedPlaces(ctx context.Context, query string) ([]places.Place, error)
	SetCachedPlaces(ctx context.Context, query string, results []places.Place, ttl time.Duration) error
}

// CachedPlaces decorates a place-lookup client with the persistent
// cache, so repeated lookups across sessions skip the collaborator.
// Cache failures degrade to a live lookup, never to an error.
type CachedPlaces struct {
	inner places.Client
	cache PlaceCache
	ttl   time.Duration
}

// NewCachedPlaces wraps a place-lookup client with the store-backed cache.
func NewCachedPlaces(inner places.Client, cache PlaceCache, ttl time.Duration) *CachedPlaces {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CachedPlaces{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedPlaces) Search(ctx context.Context, query string, bias *places.LocationBias) ([]places.Place, error) {
	key := cacheKey(query, bias)

	hit, err := c.cache.GetCachedPlaces(ctx, key)
	if err != nil {
		zap.L().Warn("store: place cache read failed", zap.Error(err))
	} else if hit != nil {
		return hit, nil
	}

	results, err := c.inner.Search(ctx, query, bias)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetCachedPlaces(ctx, key, results, c.ttl); err != nil {
		zap.L().Warn("store: place cache write failed", zap.Error(err))
	}
	return results, nil
}

// cacheKey folds the location bias into the key; the same text searched
// near a different area is a different lookup.
func cacheKey(query string, bias *places.LocationBias) string {
	if bias == nil {
		return query
	}
	return fmt.Sprintf("%s|%.3f,%.3f,%.0f", query, bias.Lat, bias.Lon, bias.RadiusKm)
}
