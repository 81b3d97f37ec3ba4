package groundwater

// Factor keys used by the weight maps and the engine's band expression.
const (
	FactorElevation     = "elevation"
	FactorSlope         = "slope"
	FactorLandCover     = "landcover"
	FactorSoilMoisture  = "soilMoisture"
	FactorTemperature   = "temperature"
	FactorGeology       = "geology"
	FactorPrecipitation = "precipitation"
)

// Normalisation ranges for the raster statistics.
const (
	ElevationMaxM   = 3000.0
	SlopeMaxDeg     = 45.0
	TemperatureMinK = 250.0
	TemperatureMaxK = 350.0
	landCoverMax    = 100.0
)

// Depth-range bounds and defaults, in meters.
const (
	DepthFloorM          = 20.0
	DepthCeilingM        = 250.0
	DefaultDepthMinM     = 30.0
	DefaultDepthMaxM     = 200.0
	defaultDepthFraction = 0.4
)

// DepthRange is the recommended drilling window in meters.
type DepthRange struct {
	MinimumM     float64 `json:"minimum_m"`
	RecommendedM float64 `json:"recommended_m"`
	MaximumM     float64 `json:"maximum_m"`
	Confidence   float64 `json:"confidence"`
}

// Assessment is the groundwater result for one polygon.
type Assessment struct {
	PotentialMapURL    string             `json:"potential_map_url,omitempty"`
	SuccessProbability float64            `json:"success_probability"`
	Depth              DepthRange         `json:"depth"`
	GeologyScore       float64            `json:"geology_score"`
	Lithologies        []string           `json:"lithologies"`
	Weights            map[string]float64 `json:"weights"`
}
