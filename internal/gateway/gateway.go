package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// Endpoint tags the upstream service a request targets. The tag picks the
// default timeout and shows up in logs and error messages.
type Endpoint string

const (
	EndpointRouting        Endpoint = "routing"
	EndpointOverlay        Endpoint = "overlay"
	EndpointEarthEngine    Endpoint = "earth-engine"
	EndpointWeatherArchive Endpoint = "weather-archive"
	EndpointLithology      Endpoint = "lithology"
	EndpointReverseGeo     Endpoint = "reverse-geo"
)

// CacheStore selects which process-wide cache a request may read and write.
type CacheStore int

const (
	CacheNone CacheStore = iota
	CacheRoutes
	CacheOverlay
)

const (
	maxRetries     = 3
	defaultBackoff = 500 * time.Millisecond
)

// Request describes one outbound upstream call.
type Request struct {
	Endpoint Endpoint
	Method   string
	URL      string
	Header   http.Header
	Body     []byte

	// CacheKey selects the entry within CacheStore; empty disables caching.
	CacheStore CacheStore
	CacheKey   string

	RateClass RateClass

	// Timeout overrides the endpoint default when non-zero. Earth-engine
	// operations set this per operation.
	Timeout time.Duration

	// Schema is the decode target for the response body. When it points to
	// a struct its validate tags are enforced; any mismatch is terminal.
	Schema any
}

// Options configures a Gateway.
type Options struct {
	DefaultPerSecond int
	RouteCacheMax    int
	OverlayCacheMax  int
	RoutingTimeout   time.Duration
	OverlayTimeout   time.Duration
}

// Gateway is the single path for outbound upstream traffic: rate limiting,
// retry with backoff, response validation and result caching all live here.
type Gateway struct {
	httpClient *http.Client
	limiter    *Limiter
	ceiling    *rate.Limiter
	routes     *Cache
	overlay    *Cache
	validate   *validator.Validate
	timeouts   map[Endpoint]time.Duration
	backoff    time.Duration
}

// New creates a Gateway. Zero option fields fall back to the documented
// defaults (routes 50 entries / 1h, overlay 100 entries / 24h, routing 10s,
// overlay 15s, 5 default-class requests per second).
func New(opts Options) *Gateway {
	if opts.DefaultPerSecond == 0 {
		opts.DefaultPerSecond = 5
	}
	if opts.RouteCacheMax == 0 {
		opts.RouteCacheMax = 50
	}
	if opts.OverlayCacheMax == 0 {
		opts.OverlayCacheMax = 100
	}
	if opts.RoutingTimeout == 0 {
		opts.RoutingTimeout = 10 * time.Second
	}
	if opts.OverlayTimeout == 0 {
		opts.OverlayTimeout = 15 * time.Second
	}
	return &Gateway{
		httpClient: &http.Client{},
		limiter:    NewLimiter(opts.DefaultPerSecond),
		// Process-wide ceiling across all classes so many concurrent site
		// requests cannot exceed the host's total outbound budget.
		ceiling:  rate.NewLimiter(rate.Limit(20), 40),
		routes:   NewCache(opts.RouteCacheMax, time.Hour),
		overlay:  NewCache(opts.OverlayCacheMax, 24*time.Hour),
		validate: validator.New(),
		timeouts: map[Endpoint]time.Duration{
			EndpointRouting:        opts.RoutingTimeout,
			EndpointOverlay:        opts.OverlayTimeout,
			EndpointEarthEngine:    30 * time.Second,
			EndpointWeatherArchive: 20 * time.Second,
			EndpointLithology:      10 * time.Second,
			EndpointReverseGeo:     10 * time.Second,
		},
		backoff: defaultBackoff,
	}
}

// Limiter exposes the class limiter, for the tuner loop and for tests.
func (g *Gateway) Limiter() *Limiter { return g.limiter }

// Stats reports cache occupancy and the current per-class rate limits, for
// the health endpoint.
func (g *Gateway) Stats() map[string]int {
	return map[string]int{
		"route_cache_entries":   g.routes.Len(),
		"overlay_cache_entries": g.overlay.Len(),
		"default_rate_limit":    g.limiter.Limit(ClassDefault),
		"hazard_rate_limit":     g.limiter.Limit(ClassHazard),
	}
}

// Start launches background maintenance (the adaptive rate tuner).
func (g *Gateway) Start(ctx context.Context) {
	g.limiter.StartTuner(ctx)
}

// Shutdown releases process-wide state.
func (g *Gateway) Shutdown() {
	g.routes.Purge()
	g.overlay.Purge()
}

func (g *Gateway) cache(store CacheStore) *Cache {
	switch store {
	case CacheRoutes:
		return g.routes
	case CacheOverlay:
		return g.overlay
	default:
		return nil
	}
}

func (g *Gateway) timeout(req Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if d, ok := g.timeouts[req.Endpoint]; ok {
		return d
	}
	return 15 * time.Second
}

// Fetch issues req, serving it from cache when possible. The returned bytes
// are the raw validated response body; req.Schema, when set, has been
// populated from it.
func (g *Gateway) Fetch(ctx context.Context, req Request) ([]byte, error) {
	store := g.cache(req.CacheStore)
	if store != nil && req.CacheKey != "" {
		if raw, ok := store.Get(req.CacheKey); ok {
			if err := g.decode(req, raw); err != nil {
				return nil, err
			}
			return raw, nil
		}
	}

	var lastErr error
	var retryAfter time.Duration
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.backoff<<uint(attempt-1) + time.Duration(rand.Int63n(int64(g.backoff)))
			if retryAfter > 0 {
				delay = retryAfter
			}
			log.Printf("[gateway] %s retry %d/%d in %s: %v", req.Endpoint, attempt, maxRetries, delay, lastErr)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, ctx.Err())
			case <-timer.C:
			}
		}

		raw, hint, err := g.issue(ctx, req)
		if err == nil {
			if derr := g.decode(req, raw); derr != nil {
				g.limiter.Record(req.RateClass, false)
				return nil, derr
			}
			g.limiter.Record(req.RateClass, true)
			// A cancelled request must not write to the caches.
			if store != nil && req.CacheKey != "" && ctx.Err() == nil {
				store.Add(req.CacheKey, raw)
			}
			return raw, nil
		}

		g.limiter.Record(req.RateClass, false)
		if !Retryable(err) {
			return nil, err
		}
		lastErr = err
		retryAfter = hint
	}
	return nil, lastErr
}

// issue performs a single HTTP round trip and classifies the outcome.
// The returned duration is an upstream Retry-After hint, if any.
func (g *Gateway) issue(ctx context.Context, req Request) ([]byte, time.Duration, error) {
	if err := g.ceiling.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	if err := g.limiter.Acquire(ctx, req.RateClass); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout(req))
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", ErrUpstreamTerminal, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", ErrUpstreamTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryAfterHint(resp), statusError(req.Endpoint, resp.StatusCode, ErrUpstreamRateLimited)
	case resp.StatusCode >= 500:
		return nil, retryAfterHint(resp), statusError(req.Endpoint, resp.StatusCode, ErrUpstreamTransient)
	default:
		return nil, 0, statusError(req.Endpoint, resp.StatusCode, ErrUpstreamTerminal)
	}
}

// decode unmarshals raw into req.Schema and enforces its validate tags.
// Any failure is a terminal schema mismatch.
func (g *Gateway) decode(req Request, raw []byte) error {
	if req.Schema == nil {
		return nil
	}
	if err := json.Unmarshal(raw, req.Schema); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, req.Endpoint, err)
	}
	v := reflect.ValueOf(req.Schema)
	if v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct {
		if err := g.validate.Struct(req.Schema); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, req.Endpoint, err)
		}
	}
	return nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection refused") {
		return fmt.Errorf("%w: %v", ErrUpstreamTransient, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamTransient, err)
}

func retryAfterHint(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
