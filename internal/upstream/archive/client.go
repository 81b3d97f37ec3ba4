package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/upstream"
)

// Client reads multi-year hourly rainfall and soil-moisture series from an
// open-meteo-style weather archive.
type Client struct {
	gw      *gateway.Gateway
	baseURL string
}

// NewClient creates a weather-archive client.
func NewClient(gw *gateway.Gateway, baseURL string) *Client {
	return &Client{gw: gw, baseURL: baseURL}
}

// Series holds the parallel hourly arrays of the archive response.
type Series struct {
	Time         []int64   `json:"time"`
	Rain         []float64 `json:"rain"`
	SoilMoisture []float64 `json:"soil_moisture_100_to_255cm"`
}

type archiveResponse struct {
	Hourly Series `json:"hourly"`
}

// Hourly fetches the hourly series for the window. Timestamps come back as
// Unix seconds.
func (c *Client) Hourly(ctx context.Context, lat, lon float64, start, end time.Time) (*Series, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("hourly", "rain,soil_moisture_100_to_255cm")
	q.Set("timeformat", "unixtime")

	fullURL := c.baseURL + "?" + q.Encode()
	began := time.Now()
	upstream.LogRequest("archive", http.MethodGet, c.baseURL, map[string]interface{}{
		"lat": lat, "lon": lon,
		"window": fmt.Sprintf("%s..%s", start.Format("2006-01-02"), end.Format("2006-01-02")),
	})

	var resp archiveResponse
	_, err := c.gw.Fetch(ctx, gateway.Request{
		Endpoint:  gateway.EndpointWeatherArchive,
		Method:    http.MethodGet,
		URL:       fullURL,
		RateClass: gateway.ClassDefault,
		Schema:    &resp,
	})
	if err != nil {
		upstream.LogError("archive", "hourly", err)
		return nil, fmt.Errorf("weather archive: %w", err)
	}

	if len(resp.Hourly.Time) == 0 {
		return nil, fmt.Errorf("%w: archive returned no records", gateway.ErrDataInsufficient)
	}
	if len(resp.Hourly.Rain) != len(resp.Hourly.Time) {
		return nil, fmt.Errorf("%w: archive arrays disagree (%d times, %d rain values)",
			gateway.ErrSchemaMismatch, len(resp.Hourly.Time), len(resp.Hourly.Rain))
	}

	upstream.LogResponse("archive", time.Since(began), len(resp.Hourly.Time))
	return &resp.Hourly, nil
}
