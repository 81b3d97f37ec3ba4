package access

import (
	"sort"

	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/upstream/ors"
)

// wayTypeInfo ranks a routing way-type code. Rankings run 1 (best) to 10
// (worst); quality uses (1 - ranking/10)^2 so the penalty grows quadratically
// toward footpaths.
type wayTypeInfo struct {
	Name    string
	Ranking float64
}

var wayTypeTable = map[int]wayTypeInfo{
	1:  {"state_road", 1},
	2:  {"road", 3},
	3:  {"street", 4},
	4:  {"path", 9},
	5:  {"track", 7},
	6:  {"cycleway", 8},
	7:  {"footway", 9},
	8:  {"steps", 10},
	9:  {"ferry", 6},
	10: {"construction", 8},
}

var defaultWayType = wayTypeInfo{"unknown", 5}

// surfaceInfo weights a routing surface code in [0.2, 1.0].
type surfaceInfo struct {
	Name   string
	Weight float64
}

var surfaceTable = map[int]surfaceInfo{
	1:  {"paved", 1.0},
	2:  {"unpaved", 0.5},
	3:  {"asphalt", 1.0},
	4:  {"concrete", 0.95},
	5:  {"cobblestone", 0.6},
	6:  {"metal", 0.7},
	7:  {"wood", 0.5},
	8:  {"compacted_gravel", 0.7},
	9:  {"fine_gravel", 0.65},
	10: {"gravel", 0.6},
	11: {"dirt", 0.4},
	12: {"ground", 0.4},
	13: {"ice", 0.2},
	14: {"paving_stones", 0.9},
	15: {"sand", 0.2},
	16: {"woodchips", 0.3},
	17: {"grass", 0.3},
	18: {"grass_paver", 0.5},
}

var defaultSurface = surfaceInfo{"unknown", 0.6}

// segmentRoute splits a route into stretches sharing one way type and one
// surface, assigning each its fraction of the route length. Run boundaries
// from both extras are merged so a surface change inside a way-type run
// still starts a new segment.
func segmentRoute(route *ors.Route) []Segment {
	if len(route.Coordinates) < 2 {
		return []Segment{}
	}

	cuts := mergeCuts(route, len(route.Coordinates))
	total := pathLength(route.Coordinates)
	if total == 0 {
		return []Segment{}
	}

	segments := make([]Segment, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		start, end := cuts[i], cuts[i+1]
		length := pathLength(route.Coordinates[start : end+1])
		if length == 0 {
			continue
		}
		wt := lookupWayType(route.WayTypes, start)
		sf := lookupSurface(route.Surfaces, start)
		segments = append(segments, Segment{
			WayType:  wt.Name,
			Surface:  sf.Name,
			Ranking:  wt.Ranking,
			Weight:   sf.Weight,
			Fraction: length / total,
		})
	}
	return segments
}

// routeQuality folds the segments into one score. Each segment contributes
// its length fraction scaled by rank and surface.
func routeQuality(segments []Segment) float64 {
	var quality float64
	for _, s := range segments {
		base := 1 - s.Ranking/10
		quality += base * base * s.Weight * s.Fraction
	}
	return quality
}

// mergeCuts collects the distinct run boundaries of both extras, always
// including the route endpoints.
func mergeCuts(route *ors.Route, n int) []int {
	seen := map[int]bool{0: true, n - 1: true}
	for _, runs := range [][]ors.ExtraRun{route.WayTypes, route.Surfaces} {
		for _, r := range runs {
			if r.Start > 0 && r.Start < n-1 {
				seen[r.Start] = true
			}
		}
	}
	cuts := make([]int, 0, len(seen))
	for c := range seen {
		cuts = append(cuts, c)
	}
	sort.Ints(cuts)
	return cuts
}

func lookupWayType(runs []ors.ExtraRun, index int) wayTypeInfo {
	if code, ok := runValue(runs, index); ok {
		if info, ok := wayTypeTable[code]; ok {
			return info
		}
	}
	return defaultWayType
}

func lookupSurface(runs []ors.ExtraRun, index int) surfaceInfo {
	if code, ok := runValue(runs, index); ok {
		if info, ok := surfaceTable[code]; ok {
			return info
		}
	}
	return defaultSurface
}

func runValue(runs []ors.ExtraRun, index int) (int, bool) {
	for _, r := range runs {
		if index >= r.Start && index < r.End {
			return r.Value, true
		}
	}
	return 0, false
}

func pathLength(points []geo.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geo.Distance(points[i-1], points[i])
	}
	return total
}
