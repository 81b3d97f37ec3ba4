package gateway

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a bounded LRU with a per-entry TTL holding validated raw upstream
// responses. Get bumps recency; entries fall out by LRU pressure or TTL,
// whichever comes first. Safe for concurrent use.
type Cache struct {
	inner *expirable.LRU[string, []byte]
}

// NewCache creates a cache with the given capacity and TTL.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{inner: expirable.NewLRU[string, []byte](capacity, nil, ttl)}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	return c.inner.Get(key)
}

// Add stores val under key.
func (c *Cache) Add(key string, val []byte) {
	c.inner.Add(key, val)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}

// Purge drops every entry. Used at shutdown and between tests.
func (c *Cache) Purge() {
	c.inner.Purge()
}

// RouteKey builds the routes-cache key from the endpoints of a route,
// rounded to six decimal places (~0.1 m).
func RouteKey(startLat, startLon, endLat, endLon float64) string {
	return fmt.Sprintf("%.6f,%.6f:%.6f,%.6f", startLat, startLon, endLat, endLon)
}

// OverlayKey builds the overlay-cache key from the query's bounding centroid
// rounded to four decimal places (~10 m), concatenated with the query type.
func OverlayKey(lat, lon float64, queryType string) string {
	return fmt.Sprintf("%.4f,%.4f:%s", lat, lon, queryType)
}
