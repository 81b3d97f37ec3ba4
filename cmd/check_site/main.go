package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/AgriSight/AS-Backend/internal/access"
	"github.com/AgriSight/AS-Backend/internal/config"
	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/groundwater"
	"github.com/AgriSight/AS-Backend/internal/places"
	"github.com/AgriSight/AS-Backend/internal/precip"
	"github.com/AgriSight/AS-Backend/internal/site"
	"github.com/AgriSight/AS-Backend/internal/upstream/archive"
	"github.com/AgriSight/AS-Backend/internal/upstream/earthengine"
	"github.com/AgriSight/AS-Backend/internal/upstream/macrostrat"
	"github.com/AgriSight/AS-Backend/internal/upstream/nominatim"
	"github.com/AgriSight/AS-Backend/internal/upstream/ors"
	"github.com/AgriSight/AS-Backend/internal/upstream/overpass"
)

// Runs the full site analysis against live upstreams for one square field,
// printing the JSON report. Useful for smoke-testing credentials and
// endpoint configuration.
func main() {
	lat := flag.Float64("lat", -17.8292, "field latitude")
	lon := flag.Float64("lon", 31.0522, "field longitude")
	sizeKm := flag.Float64("size", 1.0, "square side length in km")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	gw := gateway.New(gateway.Options{
		DefaultPerSecond: cfg.RateLimit,
		RoutingTimeout:   cfg.ORSTimeout,
		OverlayTimeout:   cfg.OverpassTimeout,
	})
	defer gw.Shutdown()

	engine, err := earthengine.NewClient(gw, cfg.EngineURL, cfg.GEEClientEmail, cfg.GEEPrivateKey, cfg.GEEProject)
	if err != nil {
		log.Fatalf("Earth engine client error: %v", err)
	}

	overlayClient := overpass.NewClient(gw, cfg.OverpassURL)
	refs, err := places.Load(cfg.PlacesFile)
	if err != nil {
		log.Fatalf("Places error: %v", err)
	}

	orch := site.NewOrchestrator(
		precip.NewAnalyzer(archive.NewClient(gw, cfg.ArchiveURL)),
		groundwater.NewScorer(engine, macrostrat.NewClient(gw, cfg.MacrostratURL), overlayClient),
		access.NewAnalyzer(
			overlayClient,
			ors.NewClient(gw, cfg.ORSURL, cfg.ORSAPIKey),
			nominatim.NewClient(gw, cfg.NominatimURL),
			access.Options{
				BufferKm:        cfg.OverpassBufferKm,
				BridgeWeight:    cfg.HazardWeightBridge,
				WaterWeight:     cfg.HazardWeightWater,
				LandslideWeight: cfg.HazardWeightLandslide,
			},
		),
		refs,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	gw.Start(ctx)

	report, err := orch.AnalyzeSite(ctx, squareRing(*lat, *lon, *sizeKm), "check_site", time.Time{}, time.Time{})
	if err != nil {
		log.Fatalf("Analysis error: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("Encode error: %v", err)
	}
	fmt.Fprintf(os.Stderr, "report %s: probability %.1f, depth %.0f-%.0f m\n",
		report.ID, report.SuccessProbability, report.Depth.MinimumM, report.Depth.MaximumM)
}

// squareRing builds a closed ring of [lon, lat] pairs around the center.
func squareRing(lat, lon, sizeKm float64) [][]float64 {
	half := sizeKm / 2
	dLat := half / 111.0
	dLon := half / (111.0 * cosDeg(lat))
	return [][]float64{
		{lon - dLon, lat - dLat},
		{lon + dLon, lat - dLat},
		{lon + dLon, lat + dLat},
		{lon - dLon, lat + dLat},
		{lon - dLon, lat - dLat},
	}
}

func cosDeg(deg float64) float64 {
	c := math.Cos(deg * math.Pi / 180)
	if c < 0.01 && c > -0.01 {
		return 0.01
	}
	return c
}
