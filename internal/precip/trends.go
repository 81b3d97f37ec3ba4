package precip

// yearTotal pairs a year with its total rainfall.
type yearTotal struct {
	Year  int
	Total float64
}

func yearlyTotals(groups map[int]map[int][]Record) []yearTotal {
	out := make([]yearTotal, 0, len(groups))
	for _, y := range years(groups) {
		var total float64
		for _, recs := range groups[y] {
			total += monthTotal(recs)
		}
		out = append(out, yearTotal{Year: y, Total: total})
	}
	return out
}

// trendSummary derives the least-squares slope, year-over-year changes and
// peak/trough cycles from the annual totals.
func trendSummary(totals []yearTotal) TrendSummary {
	summary := TrendSummary{
		YoY: []YearChange{},
		Cycles: CycleSummary{
			Peaks:   []int{},
			Troughs: []int{},
		},
	}
	if len(totals) == 0 {
		return summary
	}

	summary.Slope = leastSquaresSlope(totals)

	for i := 1; i < len(totals); i++ {
		change := YearChange{
			Year:       totals[i].Year,
			AbsoluteMM: totals[i].Total - totals[i-1].Total,
		}
		if totals[i-1].Total != 0 {
			change.Percent = change.AbsoluteMM / totals[i-1].Total * 100
		}
		summary.YoY = append(summary.YoY, change)
	}

	for i := 1; i < len(totals)-1; i++ {
		prev, cur, next := totals[i-1].Total, totals[i].Total, totals[i+1].Total
		switch {
		case cur > prev && cur > next:
			summary.Cycles.Peaks = append(summary.Cycles.Peaks, totals[i].Year)
		case cur < prev && cur < next:
			summary.Cycles.Troughs = append(summary.Cycles.Troughs, totals[i].Year)
		}
	}
	summary.Cycles.MeanLengthYears = meanSpacing(summary.Cycles.Peaks, summary.Cycles.Troughs)

	return summary
}

func leastSquaresSlope(totals []yearTotal) float64 {
	n := float64(len(totals))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, t := range totals {
		x := float64(i)
		sumX += x
		sumY += t.Total
		sumXY += x * t.Total
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// meanSpacing averages the gaps between consecutive peaks and between
// consecutive troughs.
func meanSpacing(peaks, troughs []int) float64 {
	var sum float64
	var count int
	for _, seq := range [][]int{peaks, troughs} {
		for i := 1; i < len(seq); i++ {
			sum += float64(seq[i] - seq[i-1])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
