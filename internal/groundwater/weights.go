package groundwater

// Reliability bands that trigger a weight shift toward or away from
// precipitation.
const (
	reliabilityHigh = 0.8
	reliabilityLow  = 0.4
	weightShift     = 0.05
)

func baseWeights() map[string]float64 {
	return map[string]float64{
		FactorElevation:     0.15,
		FactorSlope:         0.10,
		FactorLandCover:     0.10,
		FactorSoilMoisture:  0.15,
		FactorTemperature:   0.10,
		FactorGeology:       0.20,
		FactorPrecipitation: 0.20,
	}
}

// DynamicWeights adjusts the base factor weights by the precipitation
// reliability. Highly reliable rainfall moves weight onto the precipitation
// factor; unreliable rainfall moves it off. The debit or credit spreads
// evenly across the other six factors so the sum stays at 1.
func DynamicWeights(reliabilityOverall float64) map[string]float64 {
	w := baseWeights()

	var shift float64
	switch {
	case reliabilityOverall > reliabilityHigh:
		shift = weightShift
	case reliabilityOverall < reliabilityLow:
		shift = -weightShift
	default:
		return w
	}

	w[FactorPrecipitation] += shift
	spread := shift / float64(len(w)-1)
	for k := range w {
		if k != FactorPrecipitation {
			w[k] -= spread
		}
	}
	return w
}
