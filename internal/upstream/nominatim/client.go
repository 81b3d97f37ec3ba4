package nominatim

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/upstream"
)

// Client resolves coordinates to human-readable place labels.
type Client struct {
	gw      *gateway.Gateway
	baseURL string
}

// NewClient creates a reverse-geocoding client.
func NewClient(gw *gateway.Gateway, baseURL string) *Client {
	return &Client{gw: gw, baseURL: baseURL}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

// Label returns the most specific settlement name at (lat, lon), falling
// back through town, village and county.
func (c *Client) Label(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("format", "jsonv2")

	fullURL := c.baseURL + "/reverse?" + q.Encode()
	start := time.Now()
	upstream.LogRequest("nominatim", http.MethodGet, c.baseURL, map[string]interface{}{
		"lat": lat, "lon": lon,
	})

	var resp reverseResponse
	_, err := c.gw.Fetch(ctx, gateway.Request{
		Endpoint:  gateway.EndpointReverseGeo,
		Method:    http.MethodGet,
		URL:       fullURL,
		RateClass: gateway.ClassDefault,
		Schema:    &resp,
	})
	if err != nil {
		upstream.LogError("nominatim", "reverse", err)
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	upstream.LogResponse("nominatim", time.Since(start), 1)

	for _, name := range []string{resp.Address.City, resp.Address.Town, resp.Address.Village, resp.Address.County} {
		if name != "" {
			return name, nil
		}
	}
	return resp.DisplayName, nil
}
