package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/upstream"
)

// Client calls an OpenRouteService-compatible directions API.
type Client struct {
	gw      *gateway.Gateway
	baseURL string
	apiKey  string
}

// NewClient creates a routing client. All traffic flows through the gateway.
func NewClient(gw *gateway.Gateway, baseURL, apiKey string) *Client {
	return &Client{gw: gw, baseURL: baseURL, apiKey: apiKey}
}

// Route is a computed driving route with the extra info needed for
// road-quality segmentation.
type Route struct {
	DistanceM   float64
	DurationS   float64
	Coordinates []geo.Point
	WayTypes    []ExtraRun
	Surfaces    []ExtraRun
}

// ExtraRun is a run of coordinate indices [Start, End) sharing one coded
// extra value (way type or surface).
type ExtraRun struct {
	Start int
	End   int
	Value int
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
	Preference  string      `json:"preference"`
	ExtraInfo   []string    `json:"extra_info"`
}

type directionsResponse struct {
	Features []feature `json:"features" validate:"required,min=1"`
}

type feature struct {
	Geometry struct {
		Type        string      `json:"type" validate:"required"`
		Coordinates [][]float64 `json:"coordinates" validate:"required"`
	} `json:"geometry"`
	Properties struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Extras map[string]extraInfo `json:"extras"`
	} `json:"properties"`
}

type extraInfo struct {
	Values [][]int `json:"values"`
}

// Directions computes the shortest driving route between two points.
// Results are cached in the routes store for an hour.
func (c *Client) Directions(ctx context.Context, from, to geo.Point) (*Route, error) {
	body, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
		Preference:  "shortest",
		ExtraInfo:   []string{"waytypes", "surface"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	url := c.baseURL + "/v2/directions/driving-car/geojson"
	start := time.Now()
	upstream.LogRequest("ors", http.MethodPost, url, map[string]interface{}{
		"from": fmt.Sprintf("%.4f,%.4f", from.Lat, from.Lon),
		"to":   fmt.Sprintf("%.4f,%.4f", to.Lat, to.Lon),
	})

	var resp directionsResponse
	_, err = c.gw.Fetch(ctx, gateway.Request{
		Endpoint: gateway.EndpointRouting,
		Method:   http.MethodPost,
		URL:      url,
		Header: http.Header{
			"Authorization": {c.apiKey},
			"Content-Type":  {"application/json"},
		},
		Body:       body,
		CacheStore: gateway.CacheRoutes,
		CacheKey:   gateway.RouteKey(from.Lat, from.Lon, to.Lat, to.Lon),
		RateClass:  gateway.ClassDefault,
		Schema:     &resp,
	})
	if err != nil {
		upstream.LogError("ors", "directions", err)
		return nil, fmt.Errorf("ors directions: %w", err)
	}

	f := resp.Features[0]
	route := &Route{
		DistanceM:   f.Properties.Summary.Distance,
		DurationS:   f.Properties.Summary.Duration,
		Coordinates: make([]geo.Point, 0, len(f.Geometry.Coordinates)),
	}
	for _, c := range f.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		route.Coordinates = append(route.Coordinates, geo.Point{Lat: c[1], Lon: c[0]})
	}
	route.WayTypes = runs(f.Properties.Extras["waytypes"])
	route.Surfaces = runs(f.Properties.Extras["surface"])

	upstream.LogResponse("ors", time.Since(start), len(route.Coordinates))
	return route, nil
}

func runs(info extraInfo) []ExtraRun {
	out := make([]ExtraRun, 0, len(info.Values))
	for _, v := range info.Values {
		if len(v) < 3 {
			continue
		}
		out = append(out, ExtraRun{Start: v[0], End: v[1], Value: v[2]})
	}
	return out
}
