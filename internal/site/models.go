package site

import (
	"time"

	"github.com/AgriSight/AS-Backend/internal/access"
	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/groundwater"
	"github.com/AgriSight/AS-Backend/internal/precip"
)

// AnalyzeRequest is the inbound payload. The polygon is a GeoJSON
// Feature<Polygon>; source and the date range are optional.
type AnalyzeRequest struct {
	Polygon   Feature `json:"polygon"`
	Source    string  `json:"source,omitempty"`
	StartDate string  `json:"startDate,omitempty"`
	EndDate   string  `json:"endDate,omitempty"`
}

// Feature is the subset of GeoJSON the service accepts.
type Feature struct {
	Type     string   `json:"type"`
	Geometry Geometry `json:"geometry"`
}

// Geometry holds a polygon's rings as [lon, lat] pairs.
type Geometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// SiteReport is the combined assessment of one polygon.
type SiteReport struct {
	ID                 string                  `json:"id"`
	GeneratedAt        time.Time               `json:"generated_at"`
	Source             string                  `json:"source,omitempty"`
	Centroid           geo.Point               `json:"centroid"`
	PotentialMapURL    string                  `json:"potential_map_url,omitempty"`
	SuccessProbability float64                 `json:"success_probability"`
	Depth              groundwater.DepthRange  `json:"depth"`
	Groundwater        *groundwater.Assessment `json:"groundwater"`
	Precipitation      *precip.Metrics         `json:"precipitation"`
	Accessibility      []access.Report         `json:"accessibility"`
	Notes              []string                `json:"notes"`
}
