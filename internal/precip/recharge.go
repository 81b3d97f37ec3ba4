package precip

import "math"

// findRecharge selects records whose rainfall exceeds the statistical
// threshold (mean + 1.5σ of the per-record monthly means) while local
// conditions favour infiltration: soil moisture above the minimum and field
// slope under the cap.
func findRecharge(records []Record, means [12]float64, fieldSlopeDeg float64) RechargeSummary {
	summary := RechargeSummary{
		Events: []RechargeEvent{},
		Yearly: map[int]float64{},
	}

	mean, std := meanStd(means[:])
	threshold := mean + 1.5*std

	var totalRain, eventRain float64
	for _, r := range records {
		totalRain += r.RainMM
		if r.RainMM > threshold &&
			r.SoilMoisture > RechargeSoilMoistureMin &&
			fieldSlopeDeg < RechargeSlopeMaxDeg {
			summary.Events = append(summary.Events, RechargeEvent{
				Timestamp: r.Timestamp,
				RainMM:    r.RainMM,
			})
			summary.Yearly[r.Timestamp.Year()] += r.RainMM
			eventRain += r.RainMM
		}
	}
	if totalRain > 0 {
		summary.Efficiency = eventRain / totalRain
	}
	return summary
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
