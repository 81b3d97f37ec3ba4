package site

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AgriSight/AS-Backend/internal/access"
	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/groundwater"
	"github.com/AgriSight/AS-Backend/internal/places"
	"github.com/AgriSight/AS-Backend/internal/precip"
)

// ErrValidation marks a malformed request; handlers map it to 400.
var ErrValidation = errors.New("invalid request")

// Request lifecycle states, logged per transition.
const (
	stateReceived         = "received"
	stateValidated        = "validated"
	stateFetching         = "fetching"
	stateAnalysing        = "analysing"
	stateAssembled        = "assembled"
	stateFailedValidation = "failed-validation"
	stateFailedRemote     = "failed-remote"
)

// PrecipAnalyzer is the precipitation arm.
type PrecipAnalyzer interface {
	AnalyzeRange(ctx context.Context, lat, lon float64, start, end time.Time) (*precip.Metrics, error)
}

// GroundwaterScorer is the borehole-siting arm, chained after precipitation.
type GroundwaterScorer interface {
	Assess(ctx context.Context, poly geo.Polygon, metrics *precip.Metrics) (*groundwater.Assessment, error)
}

// AccessAnalyzer is the accessibility arm.
type AccessAnalyzer interface {
	Analyze(ctx context.Context, field geo.Point, refs []places.Place) (*access.Report, error)
}

// Orchestrator composes the three analysis arms for one polygon.
type Orchestrator struct {
	precip PrecipAnalyzer
	ground GroundwaterScorer
	access AccessAnalyzer
	refs   []places.Place
}

// NewOrchestrator wires the orchestrator to its arms and the reference
// population centers.
func NewOrchestrator(p PrecipAnalyzer, g GroundwaterScorer, a AccessAnalyzer, refs []places.Place) *Orchestrator {
	return &Orchestrator{precip: p, ground: g, access: a, refs: refs}
}

// AnalyzeSite validates the ring, runs precipitation and accessibility
// concurrently from the polygon centroid, chains groundwater scoring on the
// precipitation output and assembles the report. An accessibility failure
// degrades to an empty arm with a note; a precipitation or groundwater
// failure is fatal for the request.
func (o *Orchestrator) AnalyzeSite(ctx context.Context, ring [][]float64, source string, start, end time.Time) (*SiteReport, error) {
	id := uuid.NewString()
	transition(id, stateReceived)

	poly, err := geo.NewPolygon(ring)
	if err != nil {
		transition(id, stateFailedValidation)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		transition(id, stateFailedValidation)
		return nil, fmt.Errorf("%w: start date must precede end date", ErrValidation)
	}
	transition(id, stateValidated)

	center := poly.Centroid()
	report := &SiteReport{
		ID:            id,
		GeneratedAt:   time.Now().UTC(),
		Source:        source,
		Centroid:      center,
		Accessibility: []access.Report{},
		Notes:         []string{},
	}

	transition(id, stateFetching)
	var (
		metrics    *precip.Metrics
		accessible *access.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := o.precip.AnalyzeRange(gctx, center.Lat, center.Lon, start, end)
		if err != nil {
			return fmt.Errorf("precipitation analysis: %w", err)
		}
		metrics = m
		return nil
	})
	g.Go(func() error {
		a, err := o.access.Analyze(gctx, center, o.refs)
		if err != nil {
			// Accessibility is the optional arm.
			log.Printf("[site] %s accessibility degraded: %v", id, err)
			return nil
		}
		accessible = a
		return nil
	})
	if err := g.Wait(); err != nil {
		transition(id, stateFailedRemote)
		return nil, err
	}

	transition(id, stateAnalysing)
	assessment, err := o.ground.Assess(ctx, poly, metrics)
	if err != nil {
		transition(id, stateFailedRemote)
		return nil, fmt.Errorf("groundwater scoring: %w", err)
	}

	report.Precipitation = metrics
	report.Groundwater = assessment
	report.PotentialMapURL = assessment.PotentialMapURL
	report.SuccessProbability = assessment.SuccessProbability
	report.Depth = assessment.Depth
	if accessible != nil {
		report.Accessibility = append(report.Accessibility, *accessible)
	} else {
		report.Notes = append(report.Notes, "accessibility analysis unavailable")
	}

	transition(id, stateAssembled)
	return report, nil
}

func transition(id, state string) {
	log.Printf("[site] %s -> %s", id, state)
}
