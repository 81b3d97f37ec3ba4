package precip

// seasonalPattern partitions months into wet, dry and transition sets from
// the cross-year monthly averages.
//
// The wet season is the peak month plus the contiguous neighbours whose
// average exceeds half the peak. The dry season is built the same way around
// the minimum month (neighbours under twice the minimum), restricted to
// months not already wet so the two can never overlap.
func seasonalPattern(monthly [12]float64) SeasonalPattern {
	maxIdx, minVal, maxVal := 0, monthly[0], monthly[0]
	for m := 1; m < 12; m++ {
		if monthly[m] > maxVal {
			maxVal = monthly[m]
			maxIdx = m
		}
		if monthly[m] < minVal {
			minVal = monthly[m]
		}
	}

	var wet [12]bool
	wet[maxIdx] = true
	expand(&wet, monthly, maxIdx, func(v float64) bool { return v > maxVal/2 })

	var dry [12]bool
	if dryMin, ok := argminExcluding(monthly, wet); ok {
		dry[dryMin] = true
		dryVal := monthly[dryMin]
		expandExcluding(&dry, wet, monthly, dryMin, func(v float64) bool { return v < 2*dryVal })
	}

	pattern := SeasonalPattern{
		WetMonths:        []int{},
		DryMonths:        []int{},
		TransitionMonths: []int{},
	}
	for m := 0; m < 12; m++ {
		switch {
		case wet[m]:
			pattern.WetMonths = append(pattern.WetMonths, m)
		case dry[m]:
			pattern.DryMonths = append(pattern.DryMonths, m)
		default:
			pattern.TransitionMonths = append(pattern.TransitionMonths, m)
		}
	}
	if maxVal+minVal > 0 {
		pattern.SeasonalityIndex = (maxVal - minVal) / (maxVal + minVal)
	}
	return pattern
}

// expand walks outward from seed in both cyclic directions, marking months
// while keep holds.
func expand(set *[12]bool, monthly [12]float64, seed int, keep func(float64) bool) {
	for _, dir := range []int{-1, 1} {
		for step := 1; step < 12; step++ {
			m := ((seed+dir*step)%12 + 12) % 12
			if set[m] || !keep(monthly[m]) {
				break
			}
			set[m] = true
		}
	}
}

// expandExcluding is expand restricted to months outside the excluded set.
func expandExcluding(set *[12]bool, excluded [12]bool, monthly [12]float64, seed int, keep func(float64) bool) {
	for _, dir := range []int{-1, 1} {
		for step := 1; step < 12; step++ {
			m := ((seed+dir*step)%12 + 12) % 12
			if set[m] || excluded[m] || !keep(monthly[m]) {
				break
			}
			set[m] = true
		}
	}
}

// argminExcluding returns the index of the smallest value outside the
// excluded set, or false when every month is excluded.
func argminExcluding(monthly [12]float64, excluded [12]bool) (int, bool) {
	best, found := 0, false
	for m := 0; m < 12; m++ {
		if excluded[m] {
			continue
		}
		if !found || monthly[m] < monthly[best] {
			best = m
			found = true
		}
	}
	return best, found
}
