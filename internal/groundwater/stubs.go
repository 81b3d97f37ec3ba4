package groundwater

import (
	"context"
	"fmt"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/geo"
)

// AquiferPresenceSource reports the likelihood, in [0,1], that a surveyed
// aquifer underlies the polygon.
type AquiferPresenceSource interface {
	PresenceScore(ctx context.Context, poly geo.Polygon) (float64, error)
}

// ConfiningLayerSource reports the depth in meters of an impermeable layer
// above the aquifer.
type ConfiningLayerSource interface {
	ConfiningLayerDepth(ctx context.Context, poly geo.Polygon) (float64, error)
}

// FractureZoneSource reports fracture density in [0,1]. Fractured basement
// stores water that the intact rock would not.
type FractureZoneSource interface {
	FractureScore(ctx context.Context, poly geo.Polygon) (float64, error)
}

// unsurveyed is the stand-in for survey data no upstream currently serves.
// Every call reports DataInsufficient so callers fall back to neutral
// scores; a real borehole-log or geophysics source replaces it without any
// caller change.
type unsurveyed struct{}

func (unsurveyed) PresenceScore(context.Context, geo.Polygon) (float64, error) {
	return 0, fmt.Errorf("%w: no aquifer survey source", gateway.ErrDataInsufficient)
}

func (unsurveyed) ConfiningLayerDepth(context.Context, geo.Polygon) (float64, error) {
	return 0, fmt.Errorf("%w: no confining layer source", gateway.ErrDataInsufficient)
}

func (unsurveyed) FractureScore(context.Context, geo.Polygon) (float64, error) {
	return 0, fmt.Errorf("%w: no fracture zone source", gateway.ErrDataInsufficient)
}
