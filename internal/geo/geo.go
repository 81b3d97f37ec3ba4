package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

var (
	ErrRingTooShort  = errors.New("polygon ring needs at least 4 vertices")
	ErrRingNotClosed = errors.New("polygon ring must be closed (first == last vertex)")
	ErrOutOfRange    = errors.New("coordinate out of geographic range")
)

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is a geographic bounding box (south, west, north, east).
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Polygon is a closed ring of geographic coordinates. The ring keeps the
// GeoJSON convention: the last vertex repeats the first.
type Polygon struct {
	Ring []Point `json:"ring"`
}

// NewPolygon builds a validated polygon from GeoJSON-ordered [lon, lat] pairs.
func NewPolygon(coords [][]float64) (Polygon, error) {
	if len(coords) < 4 {
		return Polygon{}, ErrRingTooShort
	}
	ring := make([]Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return Polygon{}, ErrOutOfRange
		}
		lon, lat := c[0], c[1]
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return Polygon{}, ErrOutOfRange
		}
		ring = append(ring, Point{Lat: lat, Lon: lon})
	}
	first, last := ring[0], ring[len(ring)-1]
	if first.Lat != last.Lat || first.Lon != last.Lon {
		return Polygon{}, ErrRingNotClosed
	}
	return Polygon{Ring: ring}, nil
}

// Centroid returns the area-weighted centroid of the ring, falling back to
// the vertex mean for degenerate (zero-area) rings.
func (p Polygon) Centroid() Point {
	if len(p.Ring) == 0 {
		return Point{}
	}
	var area, cx, cy float64
	for i := 0; i < len(p.Ring)-1; i++ {
		a, b := p.Ring[i], p.Ring[i+1]
		cross := a.Lon*b.Lat - b.Lon*a.Lat
		area += cross
		cx += (a.Lon + b.Lon) * cross
		cy += (a.Lat + b.Lat) * cross
	}
	if math.Abs(area) < 1e-12 {
		var lat, lon float64
		n := len(p.Ring) - 1
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			lat += p.Ring[i].Lat
			lon += p.Ring[i].Lon
		}
		return Point{Lat: lat / float64(n), Lon: lon / float64(n)}
	}
	area /= 2
	return Point{Lat: cy / (6 * area), Lon: cx / (6 * area)}
}

// BBox returns the bounding box of the ring.
func (p Polygon) BBox() BBox {
	box := BBox{MinLat: 90, MinLon: 180, MaxLat: -90, MaxLon: -180}
	for _, pt := range p.Ring {
		box = box.Extend(pt)
	}
	return box
}

// Extend grows the box to include pt.
func (b BBox) Extend(pt Point) BBox {
	if pt.Lat < b.MinLat {
		b.MinLat = pt.Lat
	}
	if pt.Lat > b.MaxLat {
		b.MaxLat = pt.Lat
	}
	if pt.Lon < b.MinLon {
		b.MinLon = pt.Lon
	}
	if pt.Lon > b.MaxLon {
		b.MaxLon = pt.Lon
	}
	return b
}

// Haversine returns the great-circle distance between two coordinates in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// MetersPerDegree returns the local conversion factors for one degree of
// latitude and longitude at the given latitude.
func MetersPerDegree(lat float64) (latMeters, lonMeters float64) {
	latRad := lat * math.Pi / 180
	latMeters = 111132.92 - 559.82*math.Cos(2*latRad)
	lonMeters = 111412.84 * math.Cos(latRad)
	return latMeters, lonMeters
}

// BufferBBox returns the bounding box of the points grown by the given
// distance in kilometers on every side.
func BufferBBox(points []Point, km float64) BBox {
	box := BBox{MinLat: 90, MinLon: 180, MaxLat: -90, MaxLon: -180}
	for _, pt := range points {
		box = box.Extend(pt)
	}
	midLat := (box.MinLat + box.MaxLat) / 2
	latMeters, lonMeters := MetersPerDegree(midLat)
	dLat := km * 1000 / latMeters
	dLon := km * 1000 / math.Max(lonMeters, 1)
	box.MinLat -= dLat
	box.MaxLat += dLat
	box.MinLon -= dLon
	box.MaxLon += dLon
	return box
}

// AreaKm2 returns the approximate area of the box in square kilometers.
func (b BBox) AreaKm2() float64 {
	midLat := (b.MinLat + b.MaxLat) / 2
	latMeters, lonMeters := MetersPerDegree(midLat)
	dLat := b.MaxLat - b.MinLat
	dLon := b.MaxLon - b.MinLon
	return math.Abs(dLat*latMeters*dLon*lonMeters) / 1e6
}
