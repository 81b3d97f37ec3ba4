package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AgriSight/AS-Backend/internal/access"
	"github.com/AgriSight/AS-Backend/internal/config"
	"github.com/AgriSight/AS-Backend/internal/db"
	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/groundwater"
	"github.com/AgriSight/AS-Backend/internal/middleware"
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

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	gw := gateway.New(gateway.Options{
		DefaultPerSecond: cfg.RateLimit,
		RouteCacheMax:    cfg.RouteCacheMax,
		OverlayCacheMax:  cfg.OverpassCacheMax,
		RoutingTimeout:   cfg.ORSTimeout,
		OverlayTimeout:   cfg.OverpassTimeout,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.Start(ctx)
	defer gw.Shutdown()

	engine, err := earthengine.NewClient(gw, cfg.EngineURL, cfg.GEEClientEmail, cfg.GEEPrivateKey, cfg.GEEProject)
	if err != nil {
		log.Fatal("Failed to initialise earth engine client: ", err)
	}
	if !engine.Ready() {
		log.Println("Earth engine credentials not set; raster scoring degrades to defaults")
	}

	overlayClient := overpass.NewClient(gw, cfg.OverpassURL)
	refs, err := places.Load(cfg.PlacesFile)
	if err != nil {
		log.Fatal("Failed to load reference places: ", err)
	}

	precipAnalyzer := precip.NewAnalyzer(archive.NewClient(gw, cfg.ArchiveURL))
	scorer := groundwater.NewScorer(engine, macrostrat.NewClient(gw, cfg.MacrostratURL), overlayClient)
	accessAnalyzer := access.NewAnalyzer(
		overlayClient,
		ors.NewClient(gw, cfg.ORSURL, cfg.ORSAPIKey),
		nominatim.NewClient(gw, cfg.NominatimURL),
		access.Options{
			BufferKm:        cfg.OverpassBufferKm,
			BridgeWeight:    cfg.HazardWeightBridge,
			WaterWeight:     cfg.HazardWeightWater,
			LandslideWeight: cfg.HazardWeightLandslide,
		},
	)
	orch := site.NewOrchestrator(precipAnalyzer, scorer, accessAnalyzer, refs)

	var store *site.Store
	if cfg.DatabaseURL != "" {
		d, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database: ", err)
		}
		store, err = site.NewStore(d)
		if err != nil {
			log.Fatal("Failed to prepare report store: ", err)
		}
	} else {
		log.Println("DATABASE_URL not set; report persistence disabled")
	}

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RequestIDMiddleware)
	r.Get("/", RootHandler)
	r.Get("/health", site.NewHealthHandler(gw))

	r.Mount("/site", site.NewHandler(orch, store).SetupRoutes())

	fmt.Printf("Server listening on port :%d...\n", cfg.Port)

	if err := http.ListenAndServe(cfg.ListenAddr(), r); err != nil {
		log.Fatal("Server stopped: ", err)
	}
}
