package groundwater

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/AgriSight/AS-Backend/internal/geo"
	"github.com/AgriSight/AS-Backend/internal/precip"
	"github.com/AgriSight/AS-Backend/internal/upstream/earthengine"
)

type mockEngine struct {
	ready    bool
	stats    earthengine.Stats
	statsErr error
	url      string
	urlErr   error
}

func (m *mockEngine) Ready() bool { return m.ready }

func (m *mockEngine) RegionStats(context.Context, geo.Polygon) (earthengine.Stats, error) {
	return m.stats, m.statsErr
}

func (m *mockEngine) PotentialThumbnail(context.Context, geo.Polygon, map[string]float64) (string, error) {
	return m.url, m.urlErr
}

type mockLithology struct {
	liths []string
	err   error
}

func (m *mockLithology) Lithologies(context.Context, float64, float64) ([]string, error) {
	return m.liths, m.err
}

type mockOverlay struct {
	tags []string
	err  error
}

func (m *mockOverlay) GeologyNear(context.Context, float64, float64) ([]string, error) {
	return m.tags, m.err
}

func squareAround(lat, lon float64) geo.Polygon {
	d := 0.005
	p, _ := geo.NewPolygon([][]float64{
		{lon - d, lat - d}, {lon + d, lat - d}, {lon + d, lat + d}, {lon - d, lat + d}, {lon - d, lat - d},
	})
	return p
}

func metricsWith(overall, efficiency float64) *precip.Metrics {
	return &precip.Metrics{
		Reliability: precip.ReliabilityScores{Overall: overall},
		Recharge:    precip.RechargeSummary{Efficiency: efficiency},
	}
}

func TestDynamicWeights_HighReliabilityShiftsToPrecipitation(t *testing.T) {
	w := DynamicWeights(0.9)
	if math.Abs(w[FactorPrecipitation]-0.25) > 1e-9 {
		t.Errorf("precipitation weight = %f, want 0.25", w[FactorPrecipitation])
	}
	if math.Abs(w[FactorElevation]-(0.15-0.05/6)) > 1e-9 {
		t.Errorf("elevation weight = %f, want %f", w[FactorElevation], 0.15-0.05/6)
	}
	assertWeightSum(t, w)
}

func TestDynamicWeights_LowReliabilityShiftsAway(t *testing.T) {
	w := DynamicWeights(0.2)
	if math.Abs(w[FactorPrecipitation]-0.15) > 1e-9 {
		t.Errorf("precipitation weight = %f, want 0.15", w[FactorPrecipitation])
	}
	assertWeightSum(t, w)
}

func TestDynamicWeights_MidReliabilityKeepsBase(t *testing.T) {
	w := DynamicWeights(0.6)
	if w[FactorPrecipitation] != 0.20 {
		t.Errorf("precipitation weight = %f, want 0.20", w[FactorPrecipitation])
	}
	assertWeightSum(t, w)
}

func assertWeightSum(t *testing.T, w map[string]float64) {
	t.Helper()
	var sum float64
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weight sum = %f, want 1", sum)
	}
}

func TestDepthRange_DefaultsWithoutEstimate(t *testing.T) {
	d := depthRange(0, false, 0, false, 0)
	if d.MinimumM != 30 || d.MaximumM != 200 {
		t.Errorf("range = [%f, %f], want [30, 200]", d.MinimumM, d.MaximumM)
	}
	if d.RecommendedM != 98 {
		t.Errorf("recommended = %f, want 98", d.RecommendedM)
	}
}

func TestDepthRange_CentresOnEstimate(t *testing.T) {
	d := depthRange(80, true, 0, false, 0)
	if d.MinimumM != 60 || d.MaximumM != 130 || d.RecommendedM != 80 {
		t.Errorf("range = %+v, want [60, 80, 130]", d)
	}
}

func TestDepthRange_ConfiningLayerCanInvert(t *testing.T) {
	// A shallow estimate under a deep confining layer would put the minimum
	// above the maximum without the re-clamp.
	d := depthRange(25, true, 120, false, 0)
	assertDepthInvariants(t, d)
	d = depthRange(25, true, 120, true, 0)
	assertDepthInvariants(t, d)
	if d.MinimumM != 75 {
		t.Errorf("minimum = %f, want the swapped bound 75", d.MinimumM)
	}
}

func TestDepthRange_RechargeRelaxesMinimum(t *testing.T) {
	d := depthRange(100, true, 0, false, 0.8)
	if d.MinimumM != 70 {
		t.Errorf("minimum = %f, want 80-10", d.MinimumM)
	}
	assertDepthInvariants(t, d)
}

func TestDepthRange_InvariantsAcrossInputs(t *testing.T) {
	cases := []struct {
		estimate      float64
		haveEstimate  bool
		confining     float64
		haveConfining bool
		efficiency    float64
	}{
		{0, false, 0, false, 0},
		{20, true, 0, false, 0},
		{20, true, 240, true, 0.9},
		{300, true, 0, false, 0},
		{50, true, 49, true, 0.75},
		{100, true, 260, true, 0},
	}
	for _, c := range cases {
		d := depthRange(c.estimate, c.haveEstimate, c.confining, c.haveConfining, c.efficiency)
		assertDepthInvariants(t, d)
	}
}

func assertDepthInvariants(t *testing.T, d DepthRange) {
	t.Helper()
	if d.MinimumM > d.RecommendedM || d.RecommendedM > d.MaximumM {
		t.Errorf("ordering violated: %+v", d)
	}
	for _, v := range []float64{d.MinimumM, d.RecommendedM, d.MaximumM} {
		if v < 20 || v > 250 {
			t.Errorf("depth %f outside [20, 250]: %+v", v, d)
		}
	}
}

func TestHardnessScore_UnknownFallsBackAndReclassifies(t *testing.T) {
	if got := hardnessScore(nil, nil); got != 0.5 {
		t.Errorf("no data score = %f, want 0.5", got)
	}
	if got := hardnessScore([]string{"saprolite"}, nil); got != 0.5 {
		t.Errorf("unknown rock score = %f, want 0.5", got)
	}
	// Unknown label reclassified from a nearby overlay tag.
	got := hardnessScore([]string{"saprolite"}, []string{"weathered granite"})
	if got != rockTable["granite"].Score {
		t.Errorf("reclassified score = %f, want %f", got, rockTable["granite"].Score)
	}
	// Qualified labels match by substring.
	if got := hardnessScore([]string{"fine-grained sandstone"}, nil); got != rockTable["sandstone"].Score {
		t.Errorf("qualified label score = %f, want %f", got, rockTable["sandstone"].Score)
	}
}

func TestAssess_NoCentroidReturnsDefaultProbability(t *testing.T) {
	s := NewScorer(&mockEngine{}, &mockLithology{}, &mockOverlay{})
	a, err := s.Assess(context.Background(), geo.Polygon{}, metricsWith(0.5, 0))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if a.SuccessProbability != DefaultSuccessProbability {
		t.Errorf("probability = %f, want %f", a.SuccessProbability, DefaultSuccessProbability)
	}
	if a.Depth.MinimumM != 30 || a.Depth.MaximumM != 200 {
		t.Errorf("depth = %+v, want defaults", a.Depth)
	}
}

func TestAssess_DegradesWithoutEngine(t *testing.T) {
	s := NewScorer(&mockEngine{ready: false}, &mockLithology{err: errors.New("down")}, &mockOverlay{err: errors.New("down")})
	a, err := s.Assess(context.Background(), squareAround(-17.83, 31.05), metricsWith(0.5, 0))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	// Raster factors contribute zero; geology and reliability carry the
	// probability: 100*(geology*0.25 + 0.5*0.25).
	wantGeology := geologyScore(0.5, 0.5, 0.5, 0, 0)
	if math.Abs(a.GeologyScore-wantGeology) > 1e-9 {
		t.Errorf("geology score = %f, want %f", a.GeologyScore, wantGeology)
	}
	want := 100 * (wantGeology*0.25 + 0.5*0.25)
	if math.Abs(a.SuccessProbability-want) > 1e-9 {
		t.Errorf("probability = %f, want %f", a.SuccessProbability, want)
	}
	if a.Depth.RecommendedM != 98 {
		t.Errorf("recommended depth = %f, want the default 98", a.Depth.RecommendedM)
	}
	if a.PotentialMapURL != "" {
		t.Errorf("map url = %q, want empty without credentials", a.PotentialMapURL)
	}
}

func TestAssess_FusesStatsAndLithology(t *testing.T) {
	eng := &mockEngine{
		ready: true,
		stats: earthengine.Stats{
			FactorElevation:    1500, // normalises to 0.5
			FactorSlope:        9,    // 0.2
			FactorSoilMoisture: 0.4,
			FactorTemperature:  300, // 0.5
			FactorLandCover:    40,  // 0.4
		},
		url: "https://engine.example/v1/maps/abc:getPixels",
	}
	s := NewScorer(eng, &mockLithology{liths: []string{"sandstone"}}, &mockOverlay{})
	m := metricsWith(0.6, 0.2)

	a, err := s.Assess(context.Background(), squareAround(-17.83, 31.05), m)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	wantGeology := geologyScore(0.5, rockTable["sandstone"].Score, 0.5, 0.5, 0.2)
	if math.Abs(a.GeologyScore-wantGeology) > 1e-9 {
		t.Errorf("geology score = %f, want %f", a.GeologyScore, wantGeology)
	}

	statSum := 0.5*0.15 + 0.2*0.10 + 0.4*0.10 + 0.4*0.15 + 0.5*0.10
	want := 100 * (statSum + wantGeology*0.25 + 0.6*0.25)
	if math.Abs(a.SuccessProbability-want) > 1e-9 {
		t.Errorf("probability = %f, want %f", a.SuccessProbability, want)
	}

	// Aquifer estimate: 50 + 1500/100 + 2*9 = 83.
	if a.Depth.RecommendedM != 83 || a.Depth.MinimumM != 63 || a.Depth.MaximumM != 133 {
		t.Errorf("depth = %+v, want [63, 83, 133]", a.Depth)
	}
	assertDepthInvariants(t, a.Depth)

	// Geology present and spread exactly 70: confidence 0.5 + 0.2.
	if math.Abs(a.Depth.Confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %f, want 0.7", a.Depth.Confidence)
	}
	if a.PotentialMapURL != eng.url {
		t.Errorf("map url = %q, want %q", a.PotentialMapURL, eng.url)
	}
}

func TestAssess_EngineFailureIsFatal(t *testing.T) {
	eng := &mockEngine{ready: true, statsErr: errors.New("upstream exploded")}
	s := NewScorer(eng, &mockLithology{}, &mockOverlay{})
	if _, err := s.Assess(context.Background(), squareAround(-17.83, 31.05), metricsWith(0.5, 0)); err == nil {
		t.Fatal("want error when region stats fail")
	}
}
