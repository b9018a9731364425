package openmeteo

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Geocoder resolves place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name, language string) (GeoResult, error)
}

// CachedGeocoder memoizes successful geocode lookups in an LRU cache.
// Failures are never cached, so a transient API error does not poison
// later lookups for the same place.
type CachedGeocoder struct {
	inner Geocoder
	cache *lru.Cache[string, GeoResult]
}

// NewCachedGeocoder wraps inner with an LRU cache of the given size.
func NewCachedGeocoder(inner Geocoder, size int) (*CachedGeocoder, error) {
	cache, err := lru.New[string, GeoResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache}, nil
}

func (g *CachedGeocoder) Geocode(ctx context.Context, name, language string) (GeoResult, error) {
	key := cacheKey(name, language)
	if cached, ok := g.cache.Get(key); ok {
		return cached, nil
	}

	result, err := g.inner.Geocode(ctx, name, language)
	if err != nil {
		return GeoResult{}, err
	}
	g.cache.Add(key, result)
	return result, nil
}

func cacheKey(name, language string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + language
}
