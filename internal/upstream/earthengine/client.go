package earthengine

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/upstream"
)

// Raster collections read during groundwater scoring.
const (
	ImageElevation    = "USGS/SRTMGL1_003"
	ImageLandCover    = "ESA/WorldCover/v200"
	ImageSoilMoisture = "NASA_USDA/HSL/SMAP10KM_soil_moisture"
	ImageTemperature  = "MODIS/061/MOD11A1"
)

// Per-operation timeouts; region reductions are much heavier than
// thumbnail generation.
const (
	computeTimeout   = 30 * time.Second
	thumbnailTimeout = 20 * time.Second
)

const engineScope = "https://www.googleapis.com/auth/earthengine"

// ErrNoCredentials marks an engine client constructed without a service
// account; callers degrade to DataInsufficient results.
var ErrNoCredentials = errors.New("earth engine credentials not configured")

// Client talks to a server-side raster processing engine using service
// account authentication.
type Client struct {
	gw      *gateway.Gateway
	baseURL string
	project string
	tokens  oauth2.TokenSource
}

// NewClient creates an engine client. A missing email/key pair yields a
// client whose operations return ErrNoCredentials (graceful degradation);
// a malformed key is a hard error so startup can fail fast.
func NewClient(gw *gateway.Gateway, baseURL, clientEmail, privateKey, project string) (*Client, error) {
	c := &Client{gw: gw, baseURL: baseURL, project: project}
	if c.project == "" {
		c.project = "earthengine-legacy"
	}
	if clientEmail == "" || privateKey == "" {
		return c, nil
	}
	if block, _ := pem.Decode([]byte(privateKey)); block == nil {
		return nil, fmt.Errorf("GEE_PRIVATE_KEY is not valid PEM")
	}
	cfg := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{engineScope},
		TokenURL:   google.JWTTokenURL,
	}
	c.tokens = cfg.TokenSource(context.Background())
	return c, nil
}

// Ready reports whether the client holds credentials.
func (c *Client) Ready() bool { return c.tokens != nil }

func (c *Client) authHeader(ctx context.Context) (http.Header, error) {
	if c.tokens == nil {
		return nil, ErrNoCredentials
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("earth engine token: %w", err)
	}
	h := http.Header{"Content-Type": {"application/json"}}
	h.Set("Authorization", "Bearer "+tok.AccessToken)
	return h, nil
}

// Stats is a named bag of region-reduction results.
type Stats map[string]float64

type computeRequest struct {
	Expression interface{} `json:"expression"`
}

type computeResponse struct {
	Result map[string]float64 `json:"result"`
}

type thumbnailResponse struct {
	Name string `json:"name" validate:"required"`
}

func ringCoordinates(poly geo.Polygon) [][]float64 {
	ring := make([][]float64, 0, len(poly.Ring))
	for _, p := range poly.Ring {
		ring = append(ring, []float64{p.Lon, p.Lat})
	}
	return ring
}

// RegionStats loads the elevation, land-cover, soil-moisture and temperature
// rasters, derives slope from terrain, and reduces each to its mean over the
// polygon. Keys: elevation, slope, landcover, soilMoisture, temperature.
func (c *Client) RegionStats(ctx context.Context, poly geo.Polygon) (Stats, error) {
	header, err := c.authHeader(ctx)
	if err != nil {
		return nil, err
	}

	expr := map[string]interface{}{
		"values": map[string]interface{}{
			"region": map[string]interface{}{
				"type":        "Polygon",
				"coordinates": [][][]float64{ringCoordinates(poly)},
			},
			"reducer": "mean",
			"bands": map[string]interface{}{
				"elevation":    map[string]string{"image": ImageElevation, "band": "elevation"},
				"slope":        map[string]string{"image": ImageElevation, "band": "elevation", "derive": "slope"},
				"landcover":    map[string]string{"image": ImageLandCover, "band": "Map"},
				"soilMoisture": map[string]string{"image": ImageSoilMoisture, "band": "ssm"},
				"temperature":  map[string]string{"image": ImageTemperature, "band": "LST_Day_1km"},
			},
		},
	}
	body, err := json.Marshal(computeRequest{Expression: expr})
	if err != nil {
		return nil, fmt.Errorf("marshal compute request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/value:compute", c.baseURL, c.project)
	start := time.Now()
	upstream.LogRequest("earthengine", http.MethodPost, url, map[string]interface{}{"op": "regionStats"})

	var resp computeResponse
	_, err = c.gw.Fetch(ctx, gateway.Request{
		Endpoint:  gateway.EndpointEarthEngine,
		Method:    http.MethodPost,
		URL:       url,
		Header:    header,
		Body:      body,
		RateClass: gateway.ClassDefault,
		Timeout:   computeTimeout,
		Schema:    &resp,
	})
	if err != nil {
		upstream.LogError("earthengine", "regionStats", err)
		return nil, fmt.Errorf("region stats: %w", err)
	}
	if len(resp.Result) == 0 {
		return nil, fmt.Errorf("%w: no imagery for region", gateway.ErrDataInsufficient)
	}
	upstream.LogResponse("earthengine", time.Since(start), len(resp.Result))
	return Stats(resp.Result), nil
}

// PotentialThumbnail submits the weighted-sum band expression that realises
// the groundwater-potential image and returns a thumbnail URL for it.
// The weights map layer names to [0,1] factors summing to one.
func (c *Client) PotentialThumbnail(ctx context.Context, poly geo.Polygon, weights map[string]float64) (string, error) {
	header, err := c.authHeader(ctx)
	if err != nil {
		return "", err
	}

	expr := map[string]interface{}{
		"expression": "weightedSum",
		"weights":    weights,
		"region": map[string]interface{}{
			"type":        "Polygon",
			"coordinates": [][][]float64{ringCoordinates(poly)},
		},
		"visParams": map[string]interface{}{
			"min": 0, "max": 1,
			"palette": []string{"red", "yellow", "green", "blue"},
		},
	}
	body, err := json.Marshal(computeRequest{Expression: expr})
	if err != nil {
		return "", fmt.Errorf("marshal thumbnail request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/thumbnails", c.baseURL, c.project)
	start := time.Now()
	upstream.LogRequest("earthengine", http.MethodPost, url, map[string]interface{}{"op": "thumbnail"})

	var resp thumbnailResponse
	_, err = c.gw.Fetch(ctx, gateway.Request{
		Endpoint:  gateway.EndpointEarthEngine,
		Method:    http.MethodPost,
		URL:       url,
		Header:    header,
		Body:      body,
		RateClass: gateway.ClassDefault,
		Timeout:   thumbnailTimeout,
		Schema:    &resp,
	})
	if err != nil {
		upstream.LogError("earthengine", "thumbnail", err)
		return "", fmt.Errorf("thumbnail: %w", err)
	}
	upstream.LogResponse("earthengine", time.Since(start), 1)
	return fmt.Sprintf("%s/v1/%s:getPixels", c.baseURL, resp.Name), nil
}
