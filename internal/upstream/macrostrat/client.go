package macrostrat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/upstream"
)

// Client looks up surface lithology by coordinate from a MacroStrat-style API.
type Client struct {
	gw      *gateway.Gateway
	baseURL string
}

// NewClient creates a lithology lookup client.
func NewClient(gw *gateway.Gateway, baseURL string) *Client {
	return &Client{gw: gw, baseURL: baseURL}
}

// Unit is one geologic map unit at the queried point.
type Unit struct {
	Name string `json:"name"`
	Lith string `json:"lith"`
}

type lookupResponse struct {
	Success struct {
		Data []Unit `json:"data"`
	} `json:"success"`
}

// Lithologies returns the lowercase lithology descriptors at (lat, lng).
func (c *Client) Lithologies(ctx context.Context, lat, lng float64) ([]string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.5f", lat))
	q.Set("lng", fmt.Sprintf("%.5f", lng))
	q.Set("format", "json")

	fullURL := c.baseURL + "?" + q.Encode()
	start := time.Now()
	upstream.LogRequest("macrostrat", http.MethodGet, c.baseURL, map[string]interface{}{
		"lat": lat, "lng": lng,
	})

	var resp lookupResponse
	_, err := c.gw.Fetch(ctx, gateway.Request{
		Endpoint:  gateway.EndpointLithology,
		Method:    http.MethodGet,
		URL:       fullURL,
		RateClass: gateway.ClassDefault,
		Schema:    &resp,
	})
	if err != nil {
		upstream.LogError("macrostrat", "lithologies", err)
		return nil, fmt.Errorf("lithology lookup: %w", err)
	}

	var liths []string
	for _, u := range resp.Success.Data {
		for _, part := range strings.Split(u.Lith, ",") {
			if v := strings.ToLower(strings.TrimSpace(part)); v != "" {
				liths = append(liths, v)
			}
		}
	}
	upstream.LogResponse("macrostrat", time.Since(start), len(liths))
	return liths, nil
}
