package access

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/places"
	"github.com/AgriSight/AS-Backend/internal/upstream/ors"
	"github.com/AgriSight/AS-Backend/internal/upstream/overpass"
)

// Overlay serves the spatial queries: roads and places around a field,
// hazards inside a route's bounding box.
type Overlay interface {
	RoadsAndPlaces(ctx context.Context, lat, lon float64) (*overpass.RoadsPlaces, error)
	HazardsInBox(ctx context.Context, box geo.BBox) (*overpass.Hazards, error)
}

// Router computes driving routes.
type Router interface {
	Directions(ctx context.Context, from, to geo.Point) (*ors.Route, error)
}

// Geocoder labels a coordinate with a human-readable place name.
type Geocoder interface {
	Label(ctx context.Context, lat, lon float64) (string, error)
}

// Options tune the hazard weighting and the worker bound of the distance
// scans.
type Options struct {
	BufferKm        float64
	BridgeWeight    float64
	WaterWeight     float64
	LandslideWeight float64
	Workers         int
}

// Analyzer runs the route and hazard assessment for a field.
type Analyzer struct {
	overlay  Overlay
	router   Router
	geocoder Geocoder
	opts     Options
}

// NewAnalyzer wires the analyzer. A nil geocoder skips labelling. Zero
// options take the defaults; the worker bound defaults to CPU cores minus
// one so the serving goroutines stay responsive.
func NewAnalyzer(overlay Overlay, router Router, geocoder Geocoder, opts Options) *Analyzer {
	if opts.BufferKm <= 0 {
		opts.BufferKm = 0.02
	}
	if opts.BridgeWeight <= 0 {
		opts.BridgeWeight = 0.2
	}
	if opts.WaterWeight <= 0 {
		opts.WaterWeight = 0.1
	}
	if opts.LandslideWeight <= 0 {
		opts.LandslideWeight = 0.3
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU() - 1
		if opts.Workers < 1 {
			opts.Workers = 1
		}
	}
	return &Analyzer{overlay: overlay, router: router, geocoder: geocoder, opts: opts}
}

// Analyze assesses the accessibility of one field. One overlay call fetches
// every road and place candidate; distances are scanned concurrently under
// the worker bound; routes and their hazards follow. A field with no roads
// in range yields unknown distances and a zero score, not an error.
func (a *Analyzer) Analyze(ctx context.Context, field geo.Point, refs []places.Place) (*Report, error) {
	rp, err := a.overlay.RoadsAndPlaces(ctx, field.Lat, field.Lon)
	if err != nil {
		return nil, fmt.Errorf("roads and places: %w", err)
	}

	report := &Report{
		Field:  field,
		Routes: []RouteAnalysis{},
		Notes:  []string{},
	}

	var (
		primaryPt, secondaryPt, tertiaryPt       geo.Point
		havePrimary, haveSecondary, haveTertiary bool
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	g.Go(func() error {
		report.Distances.PrimaryM, primaryPt, havePrimary = nearestWayVertex(field, rp.Primary)
		return nil
	})
	g.Go(func() error {
		report.Distances.SecondaryM, secondaryPt, haveSecondary = nearestWayVertex(field, rp.Secondary)
		return nil
	})
	g.Go(func() error {
		report.Distances.TertiaryM, tertiaryPt, haveTertiary = nearestWayVertex(field, rp.Tertiary)
		return nil
	})
	g.Go(func() error {
		report.Distances.CityM, report.NearestCity = nearestPlace(field, rp.Cities, refs, places.KindCity)
		return nil
	})
	g.Go(func() error {
		report.Distances.TownM, report.NearestTown = nearestPlace(field, rp.Towns, refs, places.KindTown)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The critical segment is the route to the nearest primary road. Its
	// result backstops the optional classes, so it runs first.
	var critical *RouteAnalysis
	if havePrimary {
		critical, err = a.analyzeRoute(ctx, field, primaryPt, ClassPrimary)
		if err != nil {
			log.Printf("[access] critical route failed: %v", err)
			report.Notes = append(report.Notes, "critical route analysis unavailable")
			critical = zeroRiskRoute(ClassPrimary)
		}
		report.Routes = append(report.Routes, *critical)
	}

	type optional struct {
		class  string
		target geo.Point
		dist   float64
	}
	var candidates []optional
	if haveSecondary && (!havePrimary || report.Distances.SecondaryM < report.Distances.PrimaryM) {
		candidates = append(candidates, optional{ClassSecondary, secondaryPt, report.Distances.SecondaryM})
	}
	if haveTertiary && (!havePrimary || report.Distances.TertiaryM < report.Distances.PrimaryM) {
		candidates = append(candidates, optional{ClassTertiary, tertiaryPt, report.Distances.TertiaryM})
	}

	var mu sync.Mutex
	og, _ := errgroup.WithContext(ctx)
	og.SetLimit(a.opts.Workers)
	for _, c := range candidates {
		og.Go(func() error {
			ra, err := a.analyzeRoute(ctx, field, c.target, c.class)
			if err != nil {
				log.Printf("[access] %s route failed: %v", c.class, err)
				if critical != nil {
					stand := *critical
					stand.Class = c.class
					ra = &stand
				} else {
					ra = zeroRiskRoute(c.class)
				}
				mu.Lock()
				report.Notes = append(report.Notes, fmt.Sprintf("%s route degraded", c.class))
				mu.Unlock()
			}
			mu.Lock()
			report.Routes = append(report.Routes, *ra)
			mu.Unlock()
			return nil
		})
	}
	if err := og.Wait(); err != nil {
		return nil, err
	}

	if critical != nil {
		report.CriticalRisk = critical.Risk.Composite
	}
	report.RiskLevel = riskLevel(report.CriticalRisk)
	report.UnpenalisedScore, report.OverallScore = accessibilityScore(report.Distances, report.CriticalRisk)

	if a.geocoder != nil {
		if label, err := a.geocoder.Label(ctx, field.Lat, field.Lon); err == nil {
			report.Label = label
		} else {
			log.Printf("[access] reverse geocode failed: %v", err)
		}
	}
	return report, nil
}

// analyzeRoute computes one route, segments it and assesses the hazards
// inside its buffered bounding box.
func (a *Analyzer) analyzeRoute(ctx context.Context, from, to geo.Point, class string) (*RouteAnalysis, error) {
	route, err := a.router.Directions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s directions: %w", class, err)
	}

	segments := segmentRoute(route)
	risk, err := a.routeRisk(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("%s hazards: %w", class, err)
	}

	return &RouteAnalysis{
		Class:     class,
		DistanceM: route.DistanceM,
		DurationS: route.DurationS,
		Quality:   routeQuality(segments),
		Segments:  segments,
		Risk:      risk,
	}, nil
}

func (a *Analyzer) routeRisk(ctx context.Context, route *ors.Route) (RouteRisk, error) {
	box := geo.BufferBBox(route.Coordinates, a.opts.BufferKm)
	hz, err := a.overlay.HazardsInBox(ctx, box)
	if err != nil {
		return RouteRisk{}, err
	}
	counts := HazardCounts{
		Bridges:        len(hz.Bridges),
		WaterCrossings: len(hz.WaterCrossings),
		Landslides:     len(hz.Landslides),
	}
	composite := a.compositeRisk(counts)
	return RouteRisk{Counts: counts, Composite: composite, Level: riskLevel(composite)}, nil
}

// compositeRisk is the mean of the three saturated hazard counts.
func (a *Analyzer) compositeRisk(c HazardCounts) float64 {
	return (saturate(float64(c.Bridges)*a.opts.BridgeWeight) +
		saturate(float64(c.WaterCrossings)*a.opts.WaterWeight) +
		saturate(float64(c.Landslides)*a.opts.LandslideWeight)) / 3
}

func saturate(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// accessibilityScore folds the class distances into the weighted proximity
// sum and applies the critical-risk penalty, never dropping below 20% of
// the unpenalised value.
func accessibilityScore(d Distances, criticalRisk float64) (unpenalised, overall float64) {
	unpenalised = scoreWeightPrimary*proximity(d.PrimaryM) +
		scoreWeightSecondary*proximity(d.SecondaryM) +
		scoreWeightTertiary*proximity(d.TertiaryM) +
		scoreWeightCity*proximity(d.CityM) +
		scoreWeightTown*proximity(d.TownM)

	overall = unpenalised * (1 - riskPenalty*criticalRisk)
	if floor := scoreFloor * unpenalised; overall < floor {
		overall = floor
	}
	return unpenalised, overall
}

// proximity saturates at 1 inside normalisedRangeM and decays with distance.
func proximity(distanceM float64) float64 {
	if distanceM < 0 {
		return 0
	}
	if distanceM <= normalisedRangeM {
		return 1
	}
	return normalisedRangeM / distanceM
}

func zeroRiskRoute(class string) *RouteAnalysis {
	return &RouteAnalysis{
		Class:    class,
		Segments: []Segment{},
		Risk:     RouteRisk{Level: RiskLow},
	}
}

// nearestWayVertex scans every vertex of every way for the minimum distance
// to the field.
func nearestWayVertex(field geo.Point, ways []overpass.Way) (float64, geo.Point, bool) {
	best, found := DistanceUnknown, false
	var bestPt geo.Point
	for _, w := range ways {
		for _, v := range w.Geometry {
			d := geo.Distance(field, v)
			if !found || d < best {
				best, bestPt, found = d, v, true
			}
		}
	}
	return best, bestPt, found
}

// nearestPlace prefers overlay nodes and falls back to the reference list
// when the overlay returned none of the wanted kind.
func nearestPlace(field geo.Point, nodes []overpass.Node, refs []places.Place, kind string) (float64, string) {
	best, name := DistanceUnknown, ""
	for _, n := range nodes {
		d := geo.Haversine(field.Lat, field.Lon, n.Lat, n.Lon)
		if best < 0 || d < best {
			best, name = d, n.Name
		}
	}
	if best >= 0 {
		return best, name
	}
	for _, p := range refs {
		if p.Kind != kind {
			continue
		}
		d := geo.Haversine(field.Lat, field.Lon, p.Lat, p.Lon)
		if best < 0 || d < best {
			best, name = d, p.Name
		}
	}
	return best, name
}
