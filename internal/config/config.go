package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default upstream endpoints. All can be overridden through the environment,
// which the tests use to point clients at local fixtures.
const (
	DefaultORSURL        = "https://api.openrouteservice.org"
	DefaultOverpassURL   = "https://overpass-api.de/api/interpreter"
	DefaultArchiveURL    = "https://archive-api.open-meteo.com/v1/archive"
	DefaultMacrostratURL = "https://macrostrat.org/api/v2/geologic_units/map"
	DefaultNominatimURL  = "https://nominatim.openstreetmap.org"
	DefaultEngineURL     = "https://earthengine.googleapis.com"
)

// Config holds the environment-driven settings for the service.
type Config struct {
	Port        int
	DatabaseURL string

	// Gateway
	RateLimit        int // default rate class, requests per second
	RouteCacheMax    int
	OverpassCacheMax int

	// Routing service
	ORSURL     string
	ORSAPIKey  string
	ORSTimeout time.Duration

	// Overlay query service
	OverpassURL      string
	OverpassTimeout  time.Duration
	OverpassBufferKm float64

	// Hazard composite-risk weights
	HazardWeightBridge    float64
	HazardWeightWater     float64
	HazardWeightLandslide float64

	// Earth-observation engine
	EngineURL      string
	GEEPrivateKey  string
	GEEClientEmail string
	GEEProject     string

	// Weather archive and lithology lookups
	ArchiveURL    string
	MacrostratURL string
	NominatimURL  string

	// Reference population centers
	PlacesFile string
}

// Load reads configuration from environment variables (optionally .env.local).
func Load() (Config, error) {
	_ = godotenv.Load(".env.local") // ignore missing file

	cfg := Config{
		Port:                  5050,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RateLimit:             5,
		RouteCacheMax:         50,
		OverpassCacheMax:      100,
		ORSURL:                DefaultORSURL,
		ORSAPIKey:             os.Getenv("ORS_API_KEY"),
		ORSTimeout:            10 * time.Second,
		OverpassURL:           DefaultOverpassURL,
		OverpassTimeout:       15 * time.Second,
		OverpassBufferKm:      0.02,
		HazardWeightBridge:    0.2,
		HazardWeightWater:     0.1,
		HazardWeightLandslide: 0.3,
		EngineURL:             DefaultEngineURL,
		GEEPrivateKey:         os.Getenv("GEE_PRIVATE_KEY"),
		GEEClientEmail:        os.Getenv("GEE_CLIENT_EMAIL"),
		GEEProject:            os.Getenv("GEE_PROJECT"),
		ArchiveURL:            DefaultArchiveURL,
		MacrostratURL:         DefaultMacrostratURL,
		NominatimURL:          DefaultNominatimURL,
		PlacesFile:            os.Getenv("PLACES_FILE"),
	}

	var err error
	if cfg.Port, err = intVar("PORT", cfg.Port); err != nil {
		return cfg, err
	}
	if cfg.RateLimit, err = intVar("RATE_LIMIT", cfg.RateLimit); err != nil {
		return cfg, err
	}
	if cfg.RouteCacheMax, err = intVar("ROUTE_CACHE_MAX", cfg.RouteCacheMax); err != nil {
		return cfg, err
	}
	if cfg.OverpassCacheMax, err = intVar("OVERPASS_CACHE_MAX", cfg.OverpassCacheMax); err != nil {
		return cfg, err
	}
	if cfg.ORSTimeout, err = secondsVar("ORS_TIMEOUT", cfg.ORSTimeout); err != nil {
		return cfg, err
	}
	if cfg.OverpassTimeout, err = secondsVar("OVERPASS_TIMEOUT", cfg.OverpassTimeout); err != nil {
		return cfg, err
	}
	if cfg.OverpassBufferKm, err = floatVar("OVERPASS_BUFFER", cfg.OverpassBufferKm); err != nil {
		return cfg, err
	}
	if cfg.HazardWeightBridge, err = floatVar("HAZARD_WEIGHT_BRIDGE", cfg.HazardWeightBridge); err != nil {
		return cfg, err
	}
	if cfg.HazardWeightWater, err = floatVar("HAZARD_WEIGHT_WATER", cfg.HazardWeightWater); err != nil {
		return cfg, err
	}
	if cfg.HazardWeightLandslide, err = floatVar("HAZARD_WEIGHT_LANDSLIDE", cfg.HazardWeightLandslide); err != nil {
		return cfg, err
	}

	cfg.ORSURL = stringVar("ORS_URL", cfg.ORSURL)
	cfg.OverpassURL = stringVar("OVERPASS_URL", cfg.OverpassURL)
	cfg.EngineURL = stringVar("GEE_URL", cfg.EngineURL)
	cfg.ArchiveURL = stringVar("ARCHIVE_URL", cfg.ArchiveURL)
	cfg.MacrostratURL = stringVar("MACROSTRAT_URL", cfg.MacrostratURL)
	cfg.NominatimURL = stringVar("NOMINATIM_URL", cfg.NominatimURL)

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func stringVar(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func intVar(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("invalid %s: %s", name, v)
	}
	return n, nil
}

func floatVar(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback, fmt.Errorf("invalid %s: %s", name, v)
	}
	return f, nil
}

func secondsVar(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("invalid %s: %s", name, v)
	}
	return time.Duration(n) * time.Second, nil
}
