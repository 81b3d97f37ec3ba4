package access

import "github.com/AgriSight/AS-Backend/internal/geo"

// Road classes analysed per field.
const (
	ClassPrimary   = "primary"
	ClassSecondary = "secondary"
	ClassTertiary  = "tertiary"
)

// Risk levels derived from the composite risk.
const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskVeryHigh = "Very High"
)

// DistanceUnknown marks a distance with no candidate feature in range.
const DistanceUnknown = -1.0

// Distance weights of the overall accessibility score.
const (
	scoreWeightPrimary   = 0.4
	scoreWeightSecondary = 0.2
	scoreWeightTertiary  = 0.15
	scoreWeightCity      = 0.15
	scoreWeightTown      = 0.1

	// normalisedRangeM is the distance at which proximity saturates.
	normalisedRangeM = 10000.0

	riskPenalty = 0.8
	scoreFloor  = 0.2
)

// HazardCounts are the raw feature counts along one route.
type HazardCounts struct {
	Bridges        int `json:"bridges"`
	WaterCrossings int `json:"water_crossings"`
	Landslides     int `json:"landslides"`
}

// RouteRisk is the hazard assessment of one route.
type RouteRisk struct {
	Counts    HazardCounts `json:"counts"`
	Composite float64      `json:"composite"`
	Level     string       `json:"level"`
}

// Segment is a stretch of route sharing one way type and surface.
type Segment struct {
	WayType  string  `json:"way_type"`
	Surface  string  `json:"surface"`
	Ranking  float64 `json:"ranking"`
	Weight   float64 `json:"weight"`
	Fraction float64 `json:"fraction"`
}

// RouteAnalysis is the full assessment of one field-to-road route.
type RouteAnalysis struct {
	Class     string    `json:"class"`
	DistanceM float64   `json:"distance_m"`
	DurationS float64   `json:"duration_s"`
	Quality   float64   `json:"quality"`
	Segments  []Segment `json:"segments"`
	Risk      RouteRisk `json:"risk"`
}

// Distances are the minimum haversine distances from the field to each
// feature class, DistanceUnknown when nothing matches.
type Distances struct {
	PrimaryM   float64 `json:"primary_m"`
	SecondaryM float64 `json:"secondary_m"`
	TertiaryM  float64 `json:"tertiary_m"`
	CityM      float64 `json:"city_m"`
	TownM      float64 `json:"town_m"`
}

// Report is the accessibility assessment of one field.
type Report struct {
	Field            geo.Point       `json:"field"`
	Label            string          `json:"label,omitempty"`
	Distances        Distances       `json:"distances"`
	NearestCity      string          `json:"nearest_city,omitempty"`
	NearestTown      string          `json:"nearest_town,omitempty"`
	Routes           []RouteAnalysis `json:"routes"`
	CriticalRisk     float64         `json:"critical_risk"`
	RiskLevel        string          `json:"risk_level"`
	UnpenalisedScore float64         `json:"unpenalised_score"`
	OverallScore     float64         `json:"overall_score"`
	Notes            []string        `json:"notes,omitempty"`
}

// riskLevel buckets a composite risk.
func riskLevel(risk float64) string {
	switch {
	case risk < 0.2:
		return RiskLow
	case risk < 0.5:
		return RiskMedium
	case risk < 0.8:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}
