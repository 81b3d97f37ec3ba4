package groundwater

import "strings"

// rockProperties holds hardness data and a groundwater suitability score for
// one rock family. Scores favour porous sedimentary rocks over crystalline
// basement.
type rockProperties struct {
	Mohs           float64
	CompressiveMPa float64
	Score          float64
}

const unknownRockScore = 0.5

var rockTable = map[string]rockProperties{
	"sandstone":   {Mohs: 6.5, CompressiveMPa: 95, Score: 0.85},
	"limestone":   {Mohs: 3.5, CompressiveMPa: 120, Score: 0.75},
	"granite":     {Mohs: 6.5, CompressiveMPa: 200, Score: 0.35},
	"shale":       {Mohs: 3.0, CompressiveMPa: 95, Score: 0.45},
	"clay":        {Mohs: 2.0, CompressiveMPa: 5, Score: 0.25},
	"metamorphic": {Mohs: 5.5, CompressiveMPa: 150, Score: 0.40},
	"plutonic":    {Mohs: 6.0, CompressiveMPa: 190, Score: 0.35},
}

// Geology score component weights.
const (
	geologyAquiferWeight   = 0.4
	geologyHardnessWeight  = 0.2
	geologyFractureWeight  = 0.2
	geologyElevationWeight = 0.1
	geologySlopeWeight     = 0.1
)

// rockScore maps one lithology label to the table score. Labels the table
// does not know are matched against the overlay tags before falling back to
// the neutral score.
func rockScore(lith string, overlayTags []string) float64 {
	if p, ok := rockTable[normalizeRock(lith)]; ok {
		return p.Score
	}
	for _, tag := range overlayTags {
		if p, ok := rockTable[normalizeRock(tag)]; ok {
			return p.Score
		}
	}
	return unknownRockScore
}

// normalizeRock reduces a lithology label to a table key. MacroStrat labels
// carry qualifiers ("fine-grained sandstone"), so substring matching decides.
func normalizeRock(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if _, ok := rockTable[label]; ok {
		return label
	}
	for key := range rockTable {
		if strings.Contains(label, key) {
			return key
		}
	}
	return label
}

// hardnessScore averages the rock scores of all reported lithologies. An
// empty list means no geological data and yields the neutral score.
func hardnessScore(liths, overlayTags []string) float64 {
	if len(liths) == 0 {
		return unknownRockScore
	}
	var sum float64
	for _, l := range liths {
		sum += rockScore(l, overlayTags)
	}
	return sum / float64(len(liths))
}

// geologyScore fuses the aquifer-presence, rock-hardness, fracture-zone,
// elevation and slope sub-scores. Flat, low terrain scores higher on the
// last two components.
func geologyScore(aquifer, hardness, fracture, elevN, slopeN float64) float64 {
	return geologyAquiferWeight*aquifer +
		geologyHardnessWeight*hardness +
		geologyFractureWeight*fracture +
		geologyElevationWeight*(1-elevN) +
		geologySlopeWeight*(1-slopeN)
}
