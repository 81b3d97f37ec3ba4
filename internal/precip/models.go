package precip

import "time"

// Thresholds of the precipitation analysis. The drought and heavy-rain
// factors apply against the per-record monthly mean; the dry-month threshold
// applies against monthly totals.
const (
	DryMonthThresholdMM = 30.0
	DroughtRunLength    = 30
	DroughtFactor       = 0.3
	HeavyRainFactor     = 2.0

	RechargeSoilMoistureMin = 0.35
	RechargeSlopeMaxDeg     = 15.0

	// DefaultFieldSlopeDeg stands in when no terrain slope is known for the
	// field. Callers with engine-derived slope pass it explicitly.
	DefaultFieldSlopeDeg = 5.0

	YearsOfHistory = 5
)

// Record is one hourly observation.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	RainMM       float64   `json:"rain_mm"`
	SoilMoisture float64   `json:"soil_moisture"`
}

// AnnualSummary aggregates one calendar year.
type AnnualSummary struct {
	Year          int     `json:"year"`
	TotalMM       float64 `json:"total_mm"`
	MonthlyMeanMM float64 `json:"monthly_mean_mm"`
	CV            float64 `json:"coefficient_of_variation"`
	DryMonths     int     `json:"dry_months"`
}

// SeasonalPattern partitions the twelve months into wet, dry and transition
// sets. The three sets are disjoint and together cover 0..11.
type SeasonalPattern struct {
	WetMonths        []int   `json:"wet_months"`
	DryMonths        []int   `json:"dry_months"`
	TransitionMonths []int   `json:"transition_months"`
	SeasonalityIndex float64 `json:"seasonality_index"`
}

// DroughtEvent is a run of records far below the monthly mean.
type DroughtEvent struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DeficitRatio float64   `json:"deficit_ratio"`
	Severity     string    `json:"severity"`
}

// HeavyRainEvent is a single record well above the monthly mean.
type HeavyRainEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RainMM    float64   `json:"rain_mm"`
	Ratio     float64   `json:"ratio"`
}

// ExtremeEvents collects droughts and heavy-rain events.
type ExtremeEvents struct {
	Droughts  []DroughtEvent   `json:"droughts"`
	HeavyRain []HeavyRainEvent `json:"heavy_rain"`
}

// YearChange is the year-over-year movement of the annual total.
type YearChange struct {
	Year       int     `json:"year"`
	AbsoluteMM float64 `json:"absolute_mm"`
	Percent    float64 `json:"percent"`
}

// CycleSummary holds peak/trough years of the annual series and the mean
// spacing between them.
type CycleSummary struct {
	Peaks           []int   `json:"peaks"`
	Troughs         []int   `json:"troughs"`
	MeanLengthYears float64 `json:"mean_length_years"`
}

// TrendSummary describes the long-term movement of annual totals.
type TrendSummary struct {
	Slope  float64      `json:"slope"`
	YoY    []YearChange `json:"yoy"`
	Cycles CycleSummary `json:"cycles"`
}

// RechargeEvent is a record whose rain exceeded the recharge threshold under
// infiltration-friendly conditions.
type RechargeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RainMM    float64   `json:"rain_mm"`
}

// RechargeSummary aggregates recharge events.
type RechargeSummary struct {
	Events     []RechargeEvent `json:"events"`
	Yearly     map[int]float64 `json:"yearly"`
	Efficiency float64         `json:"efficiency"`
}

// ReliabilityScores are the composite scores consumed by groundwater
// scoring; every field is in [0,1].
type ReliabilityScores struct {
	Seasonal float64 `json:"seasonal"`
	Trend    float64 `json:"trend"`
	Recharge float64 `json:"recharge"`
	Overall  float64 `json:"overall"`
}

// Metrics is the full precipitation assessment for a coordinate. Built once
// per request and read-only afterwards.
type Metrics struct {
	Annual          []AnnualSummary   `json:"annual"`
	MonthlyAverages [12]float64       `json:"monthly_averages"`
	Seasonal        SeasonalPattern   `json:"seasonal"`
	Extremes        ExtremeEvents     `json:"extremes"`
	Trends          TrendSummary      `json:"trends"`
	Recharge        RechargeSummary   `json:"recharge"`
	Reliability     ReliabilityScores `json:"reliability"`
}
