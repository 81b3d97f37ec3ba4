package groundwater

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/precip"
	"github.com/AgriSight/AS-Backend/internal/upstream/earthengine"
)

// Success-probability composition. The raster factors carry their dynamic
// weights; geology and precipitation reliability each contribute a fixed
// quarter on top.
const (
	probGeologyWeight = 0.25
	probPrecipWeight  = 0.25

	// DefaultSuccessProbability applies when the polygon has no centroid to
	// anchor the lookups.
	DefaultSuccessProbability = 50.0
)

// Engine is the raster-processing surface the scorer needs.
type Engine interface {
	Ready() bool
	RegionStats(ctx context.Context, poly geo.Polygon) (earthengine.Stats, error)
	PotentialThumbnail(ctx context.Context, poly geo.Polygon, weights map[string]float64) (string, error)
}

// LithologySource looks up rock types at a coordinate.
type LithologySource interface {
	Lithologies(ctx context.Context, lat, lng float64) ([]string, error)
}

// GeologyOverlay returns geology tags of mapped features near a coordinate,
// used to reclassify lithology labels the rock table does not know.
type GeologyOverlay interface {
	GeologyNear(ctx context.Context, lat, lon float64) ([]string, error)
}

// Scorer fuses terrain, lithology and precipitation reliability into a
// groundwater assessment.
type Scorer struct {
	engine    Engine
	lithology LithologySource
	overlay   GeologyOverlay
	aquifers  AquiferPresenceSource
	confining ConfiningLayerSource
	fractures FractureZoneSource
}

// NewScorer wires the scorer to its upstream sources. Survey-grade sources
// (aquifer presence, confining layers, fracture zones) default to the
// unsurveyed stub.
func NewScorer(engine Engine, lithology LithologySource, overlay GeologyOverlay) *Scorer {
	return &Scorer{
		engine:    engine,
		lithology: lithology,
		overlay:   overlay,
		aquifers:  unsurveyed{},
		confining: unsurveyed{},
		fractures: unsurveyed{},
	}
}

// Assess scores the polygon. Raster statistics, lithology, overlay geology
// and the potential-map thumbnail are fetched concurrently; the scalar
// derivations follow. Engine failures are fatal unless the engine has no
// credentials, in which case the raster factors contribute zero and the
// depth window falls back to its defaults.
func (s *Scorer) Assess(ctx context.Context, poly geo.Polygon, metrics *precip.Metrics) (*Assessment, error) {
	weights := DynamicWeights(metrics.Reliability.Overall)

	if len(poly.Ring) == 0 {
		log.Printf("[groundwater] polygon has no centroid, returning default probability")
		depth := depthRange(0, false, 0, false, metrics.Recharge.Efficiency)
		depth.Confidence = depthConfidence(depth, false)
		return &Assessment{
			SuccessProbability: DefaultSuccessProbability,
			Depth:              depth,
			GeologyScore:       unknownRockScore,
			Lithologies:        []string{},
			Weights:            weights,
		}, nil
	}
	center := poly.Centroid()

	var (
		stats       earthengine.Stats
		liths       []string
		overlayTags []string
		mapURL      string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if !s.engine.Ready() {
			log.Printf("[groundwater] earth engine not configured, raster factors degrade to zero")
			return nil
		}
		var err error
		stats, err = s.engine.RegionStats(gctx, poly)
		if err != nil {
			return fmt.Errorf("region stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if !s.engine.Ready() {
			return nil
		}
		url, err := s.engine.PotentialThumbnail(gctx, poly, weights)
		if err != nil {
			// The map is illustrative; scoring proceeds without it.
			log.Printf("[groundwater] potential map unavailable: %v", err)
			return nil
		}
		mapURL = url
		return nil
	})
	g.Go(func() error {
		ls, err := s.lithology.Lithologies(gctx, center.Lat, center.Lon)
		if err != nil {
			log.Printf("[groundwater] lithology lookup failed: %v", err)
			return nil
		}
		liths = ls
		return nil
	})
	g.Go(func() error {
		tags, err := s.overlay.GeologyNear(gctx, center.Lat, center.Lon)
		if err != nil {
			log.Printf("[groundwater] geology overlay failed: %v", err)
			return nil
		}
		overlayTags = tags
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	normalized := normalizeStats(stats)

	aquifer := s.capabilityScore(ctx, poly, s.aquifers.PresenceScore, "aquifer presence")
	fracture := s.capabilityScore(ctx, poly, s.fractures.FractureScore, "fracture zones")
	hardness := hardnessScore(liths, overlayTags)
	geology := geologyScore(aquifer, hardness, fracture, normalized[FactorElevation], normalized[FactorSlope])

	var statSum float64
	for k, v := range normalized {
		statSum += v * weights[k]
	}
	probability := 100 * (statSum + geology*probGeologyWeight + metrics.Reliability.Overall*probPrecipWeight)
	if probability < 0 {
		probability = 0
	}
	if probability > 100 {
		probability = 100
	}

	aquiferDepth, haveEstimate := estimateAquiferDepth(stats, metrics.Recharge.Efficiency)
	confiningDepth, haveConfining := s.confiningDepth(ctx, poly)
	depth := depthRange(aquiferDepth, haveEstimate, confiningDepth, haveConfining, metrics.Recharge.Efficiency)
	depth.Confidence = depthConfidence(depth, len(liths) > 0 || len(overlayTags) > 0)

	if liths == nil {
		liths = []string{}
	}
	return &Assessment{
		PotentialMapURL:    mapURL,
		SuccessProbability: probability,
		Depth:              depth,
		GeologyScore:       geology,
		Lithologies:        liths,
		Weights:            weights,
	}, nil
}

// capabilityScore runs one optional survey source, treating missing data as
// the neutral score.
func (s *Scorer) capabilityScore(ctx context.Context, poly geo.Polygon, fetch func(context.Context, geo.Polygon) (float64, error), what string) float64 {
	score, err := fetch(ctx, poly)
	if err != nil {
		if !errors.Is(err, gateway.ErrDataInsufficient) {
			log.Printf("[groundwater] %s source failed: %v", what, err)
		}
		return unknownRockScore
	}
	return score
}

func (s *Scorer) confiningDepth(ctx context.Context, poly geo.Polygon) (float64, bool) {
	d, err := s.confining.ConfiningLayerDepth(ctx, poly)
	if err != nil {
		if !errors.Is(err, gateway.ErrDataInsufficient) {
			log.Printf("[groundwater] confining layer source failed: %v", err)
		}
		return 0, false
	}
	return d, true
}

// normalizeStats maps each raster statistic into [0,1] by its physical
// range. Keys outside the known factor set are dropped so they cannot skew
// the weighted sum.
func normalizeStats(stats earthengine.Stats) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for k, v := range stats {
		switch k {
		case FactorElevation:
			out[k] = clampUnit(v / ElevationMaxM)
		case FactorSlope:
			out[k] = clampUnit(v / SlopeMaxDeg)
		case FactorSoilMoisture:
			out[k] = clampUnit(v)
		case FactorTemperature:
			out[k] = clampUnit((v - TemperatureMinK) / (TemperatureMaxK - TemperatureMinK))
		case FactorLandCover:
			out[k] = clampUnit(v / landCoverMax)
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
