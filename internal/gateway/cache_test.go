package gateway

import (
	"fmt"
	"testing"
	"time"
)

// TestCache_TTLExpiry verifies entries disappear after their TTL.
func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache(10, 50*time.Millisecond)
	c.Add("k", []byte("v"))
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still served")
	}
}

// TestCache_LRUEviction verifies the least recently used entry is evicted
// at capacity, and that Get refreshes recency.
func TestCache_LRUEviction(t *testing.T) {
	c := NewCache(3, time.Hour)
	for i := 0; i < 3; i++ {
		c.Add(fmt.Sprintf("k%d", i), []byte("v"))
	}
	c.Get("k0") // bump k0; k1 becomes the eviction candidate
	c.Add("k3", []byte("v"))

	if _, ok := c.Get("k0"); !ok {
		t.Error("recently used k0 was evicted")
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("least recently used k1 survived past capacity")
	}
}

// TestRouteKey_Rounding verifies coordinates are rounded to six decimals so
// nearby floating-point noise maps to one key.
func TestRouteKey_Rounding(t *testing.T) {
	a := RouteKey(-17.82920000049, 31.05220000051, -17.9, 31.1)
	b := RouteKey(-17.8292, 31.0522, -17.9, 31.1)
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	far := RouteKey(-17.8292, 31.0523, -17.9, 31.1)
	if far == b {
		t.Error("distinct coordinates collapsed to one key")
	}
}

// TestOverlayKey_IncludesQueryType verifies the overlay key separates query
// types sharing a centroid.
func TestOverlayKey_IncludesQueryType(t *testing.T) {
	roads := OverlayKey(-17.8292, 31.0522, "roads")
	hazards := OverlayKey(-17.8292, 31.0522, "hazards")
	if roads == hazards {
		t.Error("query types share a cache key")
	}
	if OverlayKey(-17.82920004, 31.0522, "roads") != roads {
		t.Error("4-decimal rounding not applied")
	}
}
