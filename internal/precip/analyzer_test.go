package precip_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/precip"
)

// monthlyRecords returns one record per month of the year, each carrying the
// given rainfall.
func monthlyRecords(year int, rainMM float64) []precip.Record {
	out := make([]precip.Record, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, precip.Record{
			Timestamp:    time.Date(year, m, 15, 12, 0, 0, 0, time.UTC),
			RainMM:       rainMM,
			SoilMoisture: 0.4,
		})
	}
	return out
}

// dailyYear returns a record per day for the whole year with constant rain.
func dailyYear(year int, rainMM float64) []precip.Record {
	var out []precip.Record
	day := time.Date(year, time.January, 1, 12, 0, 0, 0, time.UTC)
	for day.Year() == year {
		out = append(out, precip.Record{Timestamp: day, RainMM: rainMM, SoilMoisture: 0.4})
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func assertPartition(t *testing.T, s precip.SeasonalPattern) {
	t.Helper()
	seen := map[int]int{}
	for _, set := range [][]int{s.WetMonths, s.DryMonths, s.TransitionMonths} {
		for _, m := range set {
			seen[m]++
		}
	}
	if len(seen) != 12 {
		t.Errorf("wet/dry/transition cover %d months, want 12", len(seen))
	}
	for m, n := range seen {
		if n != 1 {
			t.Errorf("month %d assigned %d times", m, n)
		}
	}
}

// TestCompute_UniformYear covers the uniform-rainfall scenario: twelve
// months of 100 mm give zero seasonality, full seasonal reliability and a
// wet/dry/transition partition of all twelve months.
func TestCompute_UniformYear(t *testing.T) {
	m, err := precip.Compute(context.Background(), monthlyRecords(2023, 100), precip.DefaultFieldSlopeDeg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if m.Seasonal.SeasonalityIndex != 0 {
		t.Errorf("seasonality index = %f, want 0", m.Seasonal.SeasonalityIndex)
	}
	if m.Reliability.Seasonal != 1 {
		t.Errorf("seasonal reliability = %f, want 1", m.Reliability.Seasonal)
	}
	if got := len(m.Seasonal.WetMonths) + len(m.Seasonal.DryMonths); got != 12 {
		t.Errorf("wet+dry cover %d months, want 12", got)
	}
	assertPartition(t, m.Seasonal)

	for mo, avg := range m.MonthlyAverages {
		if avg != 100 {
			t.Errorf("monthly average[%d] = %f, want 100", mo, avg)
		}
	}
	if len(m.Annual) != 1 || m.Annual[0].TotalMM != 1200 {
		t.Errorf("annual = %+v, want one year totalling 1200", m.Annual)
	}
	if m.Annual[0].CV != 0 {
		t.Errorf("CV = %f, want 0 for uniform months", m.Annual[0].CV)
	}
}

// TestCompute_DroughtAndHeavyRain covers the extreme-event scenario: a
// 40-record run far below the monthly mean emits at least one drought, and a
// single spike above twice the mean emits exactly one heavy-rain event.
func TestCompute_DroughtAndHeavyRain(t *testing.T) {
	records := append(dailyYear(2022, 5), dailyYear(2023, 5)...)

	// 40 consecutive dry days from June 1, 2023.
	dryStart := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
	for i := range records {
		d := records[i].Timestamp.Sub(dryStart).Hours() / 24
		if d >= 0 && d < 40 {
			records[i].RainMM = 0.5
		}
	}
	// One spike in October 2023.
	for i := range records {
		if records[i].Timestamp.Equal(time.Date(2023, time.October, 10, 12, 0, 0, 0, time.UTC)) {
			records[i].RainMM = 100
		}
	}

	m, err := precip.Compute(context.Background(), records, precip.DefaultFieldSlopeDeg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(m.Extremes.Droughts) < 1 {
		t.Errorf("droughts = %d, want >= 1", len(m.Extremes.Droughts))
	}
	if len(m.Extremes.HeavyRain) != 1 {
		t.Fatalf("heavy rain events = %d, want 1", len(m.Extremes.HeavyRain))
	}
	if !m.Extremes.HeavyRain[0].Timestamp.Equal(time.Date(2023, time.October, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("heavy rain at %s, want the October spike", m.Extremes.HeavyRain[0].Timestamp)
	}
	for _, d := range m.Extremes.Droughts {
		if d.Severity == "" || d.DeficitRatio < 0 || d.DeficitRatio > 1 {
			t.Errorf("malformed drought: %+v", d)
		}
	}
}

// TestCompute_PartitionHoldsForSeasonalSeries verifies the month partition
// invariant for a strongly seasonal series.
func TestCompute_PartitionHoldsForSeasonalSeries(t *testing.T) {
	rains := []float64{200, 220, 180, 90, 40, 10, 5, 8, 20, 60, 120, 190}
	var records []precip.Record
	for year := 2019; year <= 2023; year++ {
		for m := 0; m < 12; m++ {
			records = append(records, precip.Record{
				Timestamp:    time.Date(year, time.Month(m+1), 10, 0, 0, 0, 0, time.UTC),
				RainMM:       rains[m],
				SoilMoisture: 0.3,
			})
		}
	}

	metrics, err := precip.Compute(context.Background(), records, precip.DefaultFieldSlopeDeg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	assertPartition(t, metrics.Seasonal)

	if metrics.Seasonal.SeasonalityIndex <= 0 || metrics.Seasonal.SeasonalityIndex > 1 {
		t.Errorf("seasonality index = %f, want (0,1]", metrics.Seasonal.SeasonalityIndex)
	}
	for _, score := range []float64{
		metrics.Reliability.Seasonal,
		metrics.Reliability.Trend,
		metrics.Reliability.Recharge,
		metrics.Reliability.Overall,
	} {
		if score < 0 || score > 1 {
			t.Errorf("reliability score %f outside [0,1]", score)
		}
	}
}

// TestCompute_NoRecords verifies an empty stream maps to DataInsufficient.
func TestCompute_NoRecords(t *testing.T) {
	_, err := precip.Compute(context.Background(), nil, precip.DefaultFieldSlopeDeg)
	if !errors.Is(err, gateway.ErrDataInsufficient) {
		t.Errorf("err = %v, want ErrDataInsufficient", err)
	}
}

// TestGroupFlatten_RoundTrip verifies grouping then flattening reproduces
// the original timestamp-ordered sequence.
func TestGroupFlatten_RoundTrip(t *testing.T) {
	records := append(dailyYear(2022, 3), dailyYear(2023, 7)...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	back := precip.Flatten(precip.Group(records))
	if len(back) != len(records) {
		t.Fatalf("round trip length %d, want %d", len(back), len(records))
	}
	for i := range records {
		if !back[i].Timestamp.Equal(records[i].Timestamp) || back[i].RainMM != records[i].RainMM {
			t.Fatalf("round trip diverges at %d: %+v vs %+v", i, back[i], records[i])
		}
	}
}

// TestCompute_TrendSlope verifies a steadily rising series yields a positive
// least-squares slope and year-over-year entries.
func TestCompute_TrendSlope(t *testing.T) {
	var records []precip.Record
	for i, year := 0, 2019; year <= 2023; i, year = i+1, year+1 {
		records = append(records, monthlyRecords(year, 100+float64(i)*10)...)
	}
	m, err := precip.Compute(context.Background(), records, precip.DefaultFieldSlopeDeg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if m.Trends.Slope <= 0 {
		t.Errorf("slope = %f, want positive for rising series", m.Trends.Slope)
	}
	if len(m.Trends.YoY) != 4 {
		t.Errorf("yoy entries = %d, want 4", len(m.Trends.YoY))
	}
	for _, c := range m.Trends.YoY {
		if c.AbsoluteMM != 120 {
			t.Errorf("yoy %d absolute = %f, want 120", c.Year, c.AbsoluteMM)
		}
	}
}
