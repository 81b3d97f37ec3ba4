package overpass

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/upstream"
)

// Search radii for the one-shot roads-and-places query, in meters.
const (
	RoadRadiusM = 50_000
	CityRadiusM = 200_000
	TownRadiusM = 100_000
)

// Client issues Overpass QL queries through the gateway.
type Client struct {
	gw      *gateway.Gateway
	baseURL string
}

// NewClient creates an overlay query client.
func NewClient(gw *gateway.Gateway, baseURL string) *Client {
	return &Client{gw: gw, baseURL: baseURL}
}

// LatLon is a bare coordinate pair as Overpass emits them.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is one raw overlay feature.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Center   *LatLon           `json:"center,omitempty"`
	Tags     map[string]string `json:"tags"`
	Geometry []LatLon          `json:"geometry"`
}

type queryResponse struct {
	Elements []Element `json:"elements"`
}

// Way is a road with its vertex geometry.
type Way struct {
	ID       int64
	Tags     map[string]string
	Geometry []geo.Point
}

// Node is a populated place.
type Node struct {
	ID   int64
	Name string
	Lat  float64
	Lon  float64
}

// RoadsPlaces is the partitioned result of the one-shot spatial query around
// a field: highways by class plus nearby populated places.
type RoadsPlaces struct {
	Primary   []Way
	Secondary []Way
	Tertiary  []Way
	Cities    []Node
	Towns     []Node
}

// Hazards is the partitioned result of a hazard overlay query along a route.
type Hazards struct {
	Bridges        []Element
	WaterCrossings []Element
	Landslides     []Element
}

func (c *Client) query(ctx context.Context, ql, cacheKey string, class gateway.RateClass) (*queryResponse, error) {
	body := []byte("data=" + url.QueryEscape(ql))
	start := time.Now()
	upstream.LogRequest("overpass", http.MethodPost, c.baseURL, nil)

	var resp queryResponse
	_, err := c.gw.Fetch(ctx, gateway.Request{
		Endpoint: gateway.EndpointOverlay,
		Method:   http.MethodPost,
		URL:      c.baseURL,
		Header: http.Header{
			"Content-Type": {"application/x-www-form-urlencoded"},
		},
		Body:       body,
		CacheStore: gateway.CacheOverlay,
		CacheKey:   cacheKey,
		RateClass:  class,
		Schema:     &resp,
	})
	if err != nil {
		upstream.LogError("overpass", "query", err)
		return nil, fmt.Errorf("overpass query: %w", err)
	}
	upstream.LogResponse("overpass", time.Since(start), len(resp.Elements))
	return &resp, nil
}

// RoadsAndPlaces runs the single spatial query of the route analysis:
// primary/secondary/tertiary highways within 50 km and populated places
// (cities within 200 km, towns within 100 km) around the coordinate.
func (c *Client) RoadsAndPlaces(ctx context.Context, lat, lon float64) (*RoadsPlaces, error) {
	ql := fmt.Sprintf(`[out:json][timeout:25];
(
  way["highway"="primary"](around:%d,%f,%f);
  way["highway"="secondary"](around:%d,%f,%f);
  way["highway"="tertiary"](around:%d,%f,%f);
  node["place"="city"](around:%d,%f,%f);
  node["place"="town"](around:%d,%f,%f);
);
out tags geom;`,
		RoadRadiusM, lat, lon,
		RoadRadiusM, lat, lon,
		RoadRadiusM, lat, lon,
		CityRadiusM, lat, lon,
		TownRadiusM, lat, lon)

	resp, err := c.query(ctx, ql, gateway.OverlayKey(lat, lon, "roads"), gateway.ClassDefault)
	if err != nil {
		return nil, err
	}

	out := &RoadsPlaces{}
	for _, el := range resp.Elements {
		switch {
		case el.Type == "way":
			w := Way{ID: el.ID, Tags: el.Tags, Geometry: points(el.Geometry)}
			switch el.Tags["highway"] {
			case "primary":
				out.Primary = append(out.Primary, w)
			case "secondary":
				out.Secondary = append(out.Secondary, w)
			case "tertiary":
				out.Tertiary = append(out.Tertiary, w)
			}
		case el.Type == "node":
			n := Node{ID: el.ID, Name: el.Tags["name"], Lat: el.Lat, Lon: el.Lon}
			switch el.Tags["place"] {
			case "city":
				out.Cities = append(out.Cities, n)
			case "town":
				out.Towns = append(out.Towns, n)
			}
		}
	}
	return out, nil
}

// HazardsInBox queries bridges, water crossings and landslides inside a
// bounding box. These queries are heavy and run in the hazard rate class.
func (c *Client) HazardsInBox(ctx context.Context, box geo.BBox) (*Hazards, error) {
	bbox := fmt.Sprintf("%f,%f,%f,%f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	ql := fmt.Sprintf(`[out:json][timeout:25];
(
  way["bridge"="yes"](%s);
  way["waterway"~"^(river|stream)$"](%s);
  way["natural"~"^(water|landslide)$"](%s);
  node["natural"="landslide"](%s);
);
out tags center;`, bbox, bbox, bbox, bbox)

	centerLat := (box.MinLat + box.MaxLat) / 2
	centerLon := (box.MinLon + box.MaxLon) / 2
	resp, err := c.query(ctx, ql, gateway.OverlayKey(centerLat, centerLon, "hazards"), gateway.ClassHazard)
	if err != nil {
		return nil, err
	}

	out := &Hazards{}
	for _, el := range resp.Elements {
		switch {
		case el.Tags["bridge"] == "yes":
			out.Bridges = append(out.Bridges, el)
		case el.Tags["waterway"] == "river" || el.Tags["waterway"] == "stream" || el.Tags["natural"] == "water":
			out.WaterCrossings = append(out.WaterCrossings, el)
		case el.Tags["natural"] == "landslide":
			out.Landslides = append(out.Landslides, el)
		}
	}
	return out, nil
}

// GeologyNear returns the geology-related tag values of overlay features
// within 10 km, used to reclassify unknown lithologies.
func (c *Client) GeologyNear(ctx context.Context, lat, lon float64) ([]string, error) {
	ql := fmt.Sprintf(`[out:json][timeout:25];
(
  nwr["geological"](around:10000,%f,%f);
);
out tags center;`, lat, lon)

	resp, err := c.query(ctx, ql, gateway.OverlayKey(lat, lon, "geology"), gateway.ClassDefault)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, el := range resp.Elements {
		for _, key := range []string{"rock", "geological"} {
			if v := strings.TrimSpace(el.Tags[key]); v != "" {
				out = append(out, strings.ToLower(v))
			}
		}
	}
	return out, nil
}

func points(ll []LatLon) []geo.Point {
	out := make([]geo.Point, 0, len(ll))
	for _, p := range ll {
		out = append(out, geo.Point{Lat: p.Lat, Lon: p.Lon})
	}
	return out
}
