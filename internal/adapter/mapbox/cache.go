package mapbox

import (
	"context"
	"fmt"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/observability"
	lru "github.com/hashicorp/golang-lru"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Coordinates are
// rounded to four decimals (about 11 m) so nearby incidents share an entry.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := cacheKey(lat, lon)
	if v, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(methodReverse, "hit").Inc()
		return v.(domain.GeocodingResult), nil
	}
	c.metrics.GeocodeCache.WithLabelValues(methodReverse, "miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Only cache named results so transient "not found" responses can be retried.
	if result.PlaceName != "" {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len returns the number of cached entries.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("rev:%.4f,%.4f", lat, lon)
}
