package ors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/geo"
)

const directionsFixture = `{"features":[{
	"geometry":{"type":"LineString","coordinates":[[31.05,-17.83],[31.06,-17.84],[31.07,-17.85]]},
	"properties":{
		"summary":{"distance":12345.6,"duration":890.1},
		"extras":{
			"waytypes":{"values":[[0,1,2],[1,2,3]]},
			"surface":{"values":[[0,2,1]]}
		}
	}
}]}`

// TestDirections_DecodesRoute verifies the geojson response maps onto a Route
// with lat/lon order restored and extras parsed as index runs.
func TestDirections_DecodesRoute(t *testing.T) {
	var sent directionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &sent); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(directionsFixture))
	}))
	defer srv.Close()

	c := NewClient(gateway.New(gateway.Options{DefaultPerSecond: 50}), srv.URL, "test-key")
	route, err := c.Directions(context.Background(), geo.Point{Lat: -17.83, Lon: 31.05}, geo.Point{Lat: -17.85, Lon: 31.07})
	if err != nil {
		t.Fatalf("Directions: %v", err)
	}
	if route.DistanceM != 12345.6 || route.DurationS != 890.1 {
		t.Errorf("summary = %f m / %f s", route.DistanceM, route.DurationS)
	}
	if len(route.Coordinates) != 3 {
		t.Fatalf("coordinates = %d, want 3", len(route.Coordinates))
	}
	if route.Coordinates[0] != (geo.Point{Lat: -17.83, Lon: 31.05}) {
		t.Errorf("first vertex = %+v, lon/lat not swapped back", route.Coordinates[0])
	}
	if len(route.WayTypes) != 2 || route.WayTypes[1] != (ExtraRun{Start: 1, End: 2, Value: 3}) {
		t.Errorf("waytype runs = %+v", route.WayTypes)
	}
	if len(route.Surfaces) != 1 || route.Surfaces[0].Value != 1 {
		t.Errorf("surface runs = %+v", route.Surfaces)
	}
	if sent.Preference != "shortest" {
		t.Errorf("request preference = %q, want shortest", sent.Preference)
	}
	if len(sent.Coordinates) != 2 || sent.Coordinates[0][0] != 31.05 {
		t.Errorf("request coordinates = %v, want lon-first pairs", sent.Coordinates)
	}
}

// TestDirections_EmptyFeaturesIsSchemaMismatch verifies a response with no
// route features is rejected by validation rather than panicking on index 0.
func TestDirections_EmptyFeaturesIsSchemaMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := NewClient(gateway.New(gateway.Options{DefaultPerSecond: 50}), srv.URL, "test-key")
	_, err := c.Directions(context.Background(), geo.Point{Lat: -17.83, Lon: 31.05}, geo.Point{Lat: -17.85, Lon: 31.07})
	if !errors.Is(err, gateway.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}
