package groundwater

// Aquifer-depth estimate coefficients, in meters.
const (
	aquiferBaseM          = 50.0
	aquiferElevDivisor    = 100.0
	aquiferSlopeFactor    = 2.0
	aquiferRechargeCredit = 15.0

	rechargeEstimateMin = 0.6
	rechargeRelaxMin    = 0.7
	rechargeRelaxM      = 10.0
)

// Confidence adjustments.
const (
	baseConfidence    = 0.5
	geologyConfidence = 0.2
	spreadConfidence  = 0.2
	narrowSpreadM     = 50.0
	wideSpreadM       = 100.0
)

// estimateAquiferDepth derives an aquifer depth from terrain. Higher and
// steeper ground pushes the water table down; efficient recharge pulls it
// up. Requires an elevation statistic.
func estimateAquiferDepth(stats map[string]float64, rechargeEfficiency float64) (float64, bool) {
	elevation, ok := stats[FactorElevation]
	if !ok {
		return 0, false
	}
	depth := aquiferBaseM + elevation/aquiferElevDivisor + aquiferSlopeFactor*stats[FactorSlope]
	if rechargeEfficiency > rechargeEstimateMin {
		depth -= aquiferRechargeCredit
	}
	if depth < DepthFloorM {
		depth = DepthFloorM
	}
	return depth, true
}

// depthRange builds the drilling window. Without an aquifer estimate the
// default window applies and the recommendation sits at 40% of it. With one,
// the window centres on the estimate; a confining layer raises the minimum
// and efficient recharge relaxes it. The recommendation is re-clamped into
// [minimum, maximum] because a shallow estimate under a deep confining layer
// can invert the two.
func depthRange(aquiferDepthM float64, haveEstimate bool, confiningDepthM float64, haveConfining bool, rechargeEfficiency float64) DepthRange {
	min, max := DefaultDepthMinM, DefaultDepthMaxM
	recommended := min + defaultDepthFraction*(max-min)

	if haveEstimate {
		min = aquiferDepthM - 20
		max = aquiferDepthM + 50
		recommended = aquiferDepthM
	}
	if haveConfining && confiningDepthM > min {
		min = confiningDepthM
	}
	if rechargeEfficiency > rechargeRelaxMin {
		min -= rechargeRelaxM
	}

	min = clampDepth(min)
	max = clampDepth(max)
	if min > max {
		min, max = max, min
	}
	recommended = clampDepth(recommended)
	if recommended < min {
		recommended = min
	}
	if recommended > max {
		recommended = max
	}

	return DepthRange{MinimumM: min, RecommendedM: recommended, MaximumM: max}
}

// depthConfidence rates how trustworthy the window is from its width and
// the presence of geological data.
func depthConfidence(d DepthRange, haveGeology bool) float64 {
	conf := baseConfidence
	if haveGeology {
		conf += geologyConfidence
	}
	spread := d.MaximumM - d.MinimumM
	switch {
	case spread < narrowSpreadM:
		conf += spreadConfidence
	case spread > wideSpreadM:
		conf -= spreadConfidence
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

func clampDepth(v float64) float64 {
	if v < DepthFloorM {
		return DepthFloorM
	}
	if v > DepthCeilingM {
		return DepthCeilingM
	}
	return v
}
