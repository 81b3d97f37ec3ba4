package precip

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AgriSight/AS-Backend/internal/gateway"
	"github.com/AgriSight/AS-Backend/internal/upstream/archive"
)

// Analyzer turns a coordinate into precipitation metrics by fetching the
// five-year hourly series and running the derivations over it.
type Analyzer struct {
	archive *archive.Client
}

// NewAnalyzer creates a precipitation analyzer.
func NewAnalyzer(a *archive.Client) *Analyzer {
	return &Analyzer{archive: a}
}

// Analyze fetches the last five years of hourly observations for (lat, lon)
// and computes the full metric set.
func (a *Analyzer) Analyze(ctx context.Context, lat, lon float64) (*Metrics, error) {
	end := time.Now().UTC()
	return a.AnalyzeRange(ctx, lat, lon, end.AddDate(-YearsOfHistory, 0, 0), end)
}

// AnalyzeRange is Analyze over an explicit observation window. Zero bounds
// fall back to the five-year default.
func (a *Analyzer) AnalyzeRange(ctx context.Context, lat, lon float64, start, end time.Time) (*Metrics, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(-YearsOfHistory, 0, 0)
	}

	series, err := a.archive.Hourly(ctx, lat, lon, start, end)
	if err != nil {
		return nil, fmt.Errorf("precipitation series: %w", err)
	}
	return Compute(ctx, RecordsFromSeries(series), DefaultFieldSlopeDeg)
}

// Compute derives all metrics from an ordered record stream. The
// independent derivations (annual, seasonal, trends) run concurrently; the
// dependent ones (extremes, recharge, reliability) follow sequentially.
func Compute(ctx context.Context, records []Record, fieldSlopeDeg float64) (*Metrics, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no precipitation records", gateway.ErrDataInsufficient)
	}

	groups := Group(records)
	monthly := monthlyAverages(groups)
	means := recordMeans(groups)

	m := &Metrics{MonthlyAverages: monthly}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.Annual = annualMetrics(groups)
		return nil
	})
	g.Go(func() error {
		m.Seasonal = seasonalPattern(monthly)
		return nil
	})
	g.Go(func() error {
		m.Trends = trendSummary(yearlyTotals(groups))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.Extremes = findExtremes(records, means)
	m.Recharge = findRecharge(records, means, fieldSlopeDeg)
	m.Reliability = reliability(m.Seasonal, m.Trends, m.Recharge)

	return m, nil
}

func annualMetrics(groups map[int]map[int][]Record) []AnnualSummary {
	out := make([]AnnualSummary, 0, len(groups))
	for _, y := range years(groups) {
		months := groups[y]
		totals := make([]float64, 0, len(months))
		var yearTotal float64
		var dry int
		for m := 0; m < 12; m++ {
			recs, ok := months[m]
			if !ok {
				continue
			}
			t := monthTotal(recs)
			totals = append(totals, t)
			yearTotal += t
			if t < DryMonthThresholdMM {
				dry++
			}
		}

		mean, std := meanStd(totals)
		summary := AnnualSummary{
			Year:          y,
			TotalMM:       yearTotal,
			MonthlyMeanMM: mean,
			DryMonths:     dry,
		}
		if mean > 0 {
			summary.CV = std / mean
		}
		out = append(out, summary)
	}
	return out
}

// reliability folds the seasonal, trend and recharge signals into [0,1]
// scores and their mean.
func reliability(seasonal SeasonalPattern, trends TrendSummary, recharge RechargeSummary) ReliabilityScores {
	scores := ReliabilityScores{
		Seasonal: clamp01(1 - seasonal.SeasonalityIndex),
		Trend:    clamp01(1 - math.Abs(trends.Slope)),
		Recharge: clamp01(recharge.Efficiency),
	}
	scores.Overall = (scores.Seasonal + scores.Trend + scores.Recharge) / 3
	return scores
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
