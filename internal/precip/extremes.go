package precip

// Drought severity classes by deficit ratio.
const (
	severityExtreme  = 0.75
	severitySevere   = 0.50
	severityModerate = 0.25
)

// findExtremes walks the sorted record stream once, tracking a run of
// records far below the monthly record mean. A run of DroughtRunLength emits
// a drought spanning those records; any record above HeavyRainFactor times
// the mean emits a heavy-rain event.
func findExtremes(records []Record, means [12]float64) ExtremeEvents {
	events := ExtremeEvents{
		Droughts:  []DroughtEvent{},
		HeavyRain: []HeavyRainEvent{},
	}

	run := 0
	for i, r := range records {
		mean := means[int(r.Timestamp.Month())-1]
		if mean <= 0 {
			run = 0
			continue
		}

		if r.RainMM < DroughtFactor*mean {
			run++
			if run == DroughtRunLength {
				window := records[i-DroughtRunLength+1 : i+1]
				events.Droughts = append(events.Droughts, droughtFrom(window, mean))
				run = 0
			}
		} else {
			run = 0
		}

		if r.RainMM > HeavyRainFactor*mean {
			events.HeavyRain = append(events.HeavyRain, HeavyRainEvent{
				Timestamp: r.Timestamp,
				RainMM:    r.RainMM,
				Ratio:     r.RainMM / mean,
			})
		}
	}
	return events
}

func droughtFrom(window []Record, mean float64) DroughtEvent {
	var total float64
	for _, r := range window {
		total += r.RainMM
	}
	windowMean := total / float64(len(window))

	deficit := 1 - windowMean/(DroughtFactor*mean)
	if deficit < 0 {
		deficit = 0
	}
	if deficit > 1 {
		deficit = 1
	}

	return DroughtEvent{
		Start:        window[0].Timestamp,
		End:          window[len(window)-1].Timestamp,
		DeficitRatio: deficit,
		Severity:     severityClass(deficit),
	}
}

func severityClass(deficit float64) string {
	switch {
	case deficit >= severityExtreme:
		return "Extreme"
	case deficit >= severitySevere:
		return "Severe"
	case deficit >= severityModerate:
		return "Moderate"
	default:
		return "Mild"
	}
}
