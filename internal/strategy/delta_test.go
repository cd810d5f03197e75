package strategy

import (
	"math"
	"testing"

	"github.com/borsetrader/rotation-backend/internal/market"
	"github.com/borsetrader/rotation-backend/internal/models"
)

func testRegistry(t *testing.T) *market.Registry {
	t.Helper()
	r, err := market.NewRegistry([]models.Instrument{
		{Symbol: "IWDA", ISIN: "IE00B4L5Y983"},
		{Symbol: "VWCE", ISIN: "IE00BK5BQT80"},
		{Symbol: "MEUD", ISIN: "LU0908500753"},
		{Symbol: "IMAE", ISIN: "IE00B4K48X80"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func quoteWith(price, variation float64) *models.Quote {
	return &models.Quote{Price: &price, ChangePercent: &variation}
}

func setQuote(t *testing.T, r *market.Registry, symbol string, price, variation float64) {
	t.Helper()
	if err := r.SetQuote(symbol, quoteWith(price, variation)); err != nil {
		t.Fatalf("set quote %s: %v", symbol, err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeDeltas_SortedDescending(t *testing.T) {
	r := testRegistry(t)
	setQuote(t, r, "VWCE", 100, 1.0)
	setQuote(t, r, "IWDA", 80, -0.6)
	setQuote(t, r, "MEUD", 200, 0.2)
	setQuote(t, r, "IMAE", 60, 0.3)

	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})
	deltas := engine.ComputeDeltas("VWCE", 100000)

	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(deltas))
	}

	wantOrder := []string{"IWDA", "MEUD", "IMAE"}
	wantDelta := []float64{1.6, 0.8, 0.7}
	for i, d := range deltas {
		if d.TargetETF != wantOrder[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantOrder[i], d.TargetETF)
		}
		if !almostEqual(d.Delta, wantDelta[i]) {
			t.Fatalf("%s: expected delta %.2f, got %.4f", d.TargetETF, wantDelta[i], d.Delta)
		}
	}
}

func TestComputeDeltas_GainProjection(t *testing.T) {
	r := testRegistry(t)
	setQuote(t, r, "VWCE", 100, 1.0)
	setQuote(t, r, "IWDA", 80, -0.6)

	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})
	deltas := engine.ComputeDeltas("VWCE", 100000)

	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	d := deltas[0]
	if !almostEqual(d.PotentialGain, 1600) {
		t.Fatalf("potential gain: expected 1600, got %.4f", d.PotentialGain)
	}
	if !almostEqual(d.NetGain, 1550) {
		t.Fatalf("net gain: expected 1550, got %.4f", d.NetGain)
	}
}

func TestComputeDeltas_SkipsInstrumentsWithoutVariation(t *testing.T) {
	r := testRegistry(t)
	setQuote(t, r, "VWCE", 100, 0.5)
	setQuote(t, r, "IWDA", 80, -0.1)

	price := 60.0
	if err := r.SetQuote("IMAE", &models.Quote{Price: &price}); err != nil {
		t.Fatalf("set quote: %v", err)
	}
	// MEUD never received a quote at all.

	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})
	deltas := engine.ComputeDeltas("VWCE", 100000)

	if len(deltas) != 1 {
		t.Fatalf("expected only IWDA, got %d deltas", len(deltas))
	}
	if deltas[0].TargetETF != "IWDA" {
		t.Fatalf("expected IWDA, got %s", deltas[0].TargetETF)
	}
}

func TestComputeDeltas_UnusableReference(t *testing.T) {
	r := testRegistry(t)
	setQuote(t, r, "IWDA", 80, -0.1)

	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})
	if deltas := engine.ComputeDeltas("VWCE", 100000); deltas != nil {
		t.Fatalf("expected nil deltas for reference without data, got %d", len(deltas))
	}
}

func TestComputeDeltas_Symmetry(t *testing.T) {
	r := testRegistry(t)
	setQuote(t, r, "VWCE", 100, 1.2)
	setQuote(t, r, "IWDA", 80, -0.4)

	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})

	fromV := engine.ComputeDeltas("VWCE", 100000)
	fromI := engine.ComputeDeltas("IWDA", 100000)
	if len(fromV) != 1 || len(fromI) != 1 {
		t.Fatalf("expected 1 delta each, got %d and %d", len(fromV), len(fromI))
	}
	if !almostEqual(fromV[0].Delta, -fromI[0].Delta) {
		t.Fatalf("deltas not antisymmetric: %.4f vs %.4f", fromV[0].Delta, fromI[0].Delta)
	}
}

func TestConfidence(t *testing.T) {
	cases := []struct {
		name       string
		delta      float64
		currentVar float64
		targetVar  float64
		expected   float64
	}{
		{"opposite signs and large delta", 1.6, 1.0, -0.6, 0.8 + 20 + 15},
		{"opposite signs only", 0.4, 0.2, -0.2, 0.2 + 20},
		{"zero variation is not opposite", 0.5, 0.5, 0, 0.25},
		{"same sign", 0.6, 1.0, 0.4, 0.3},
		{"clamped to 100", 300, 5, -5, 100},
	}

	for _, tc := range cases {
		got := Confidence(tc.delta, tc.currentVar, tc.targetVar)
		if !almostEqual(got, tc.expected) {
			t.Fatalf("%s: expected %.2f, got %.4f", tc.name, tc.expected, got)
		}
	}
}

func TestRecommend_ThresholdIsStrict(t *testing.T) {
	r := testRegistry(t)
	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})

	// Delta exactly at the threshold must not trigger.
	setQuote(t, r, "VWCE", 100, 0.5)
	setQuote(t, r, "IWDA", 80, 0.0)

	rec := engine.Recommend("VWCE", 100000)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.Action != ActionHold {
		t.Fatalf("delta equal to threshold should hold, got %s", rec.Action)
	}
	if !almostEqual(rec.BestDelta, 0.5) {
		t.Fatalf("best delta: expected 0.5, got %.4f", rec.BestDelta)
	}

	// Slightly above triggers.
	setQuote(t, r, "VWCE", 100, 0.51)
	rec = engine.Recommend("VWCE", 100000)
	if rec.Action != ActionTrade {
		t.Fatalf("delta above threshold should trade, got %s", rec.Action)
	}
	if rec.FromETF != "VWCE" || rec.ToETF != "IWDA" {
		t.Fatalf("unexpected pair %s -> %s", rec.FromETF, rec.ToETF)
	}
}

func TestRecommend_PicksBestDelta(t *testing.T) {
	r := testRegistry(t)
	setQuote(t, r, "VWCE", 100, 1.0)
	setQuote(t, r, "IWDA", 80, -0.6)
	setQuote(t, r, "MEUD", 200, 0.2)

	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})
	rec := engine.Recommend("VWCE", 100000)

	if rec == nil || rec.Action != ActionTrade {
		t.Fatalf("expected trade recommendation, got %+v", rec)
	}
	if rec.ToETF != "IWDA" {
		t.Fatalf("expected rotation into IWDA, got %s", rec.ToETF)
	}
}

func TestRecommend_NoData(t *testing.T) {
	r := testRegistry(t)
	engine := NewEngine(r, Params{Threshold: 0.5, Fee: 50})
	if rec := engine.Recommend("VWCE", 100000); rec != nil {
		t.Fatalf("expected nil recommendation without data, got %+v", rec)
	}
}

func TestMarketStats(t *testing.T) {
	engine := NewEngine(testRegistry(t), Params{Threshold: 0.5, Fee: 50})

	deltas := []Delta{
		{Delta: 1.0},
		{Delta: 2.0},
		{Delta: 3.0},
	}
	stats := engine.MarketStats(deltas)

	if !almostEqual(stats.AverageDelta, 2.0) {
		t.Fatalf("average: expected 2.0, got %.4f", stats.AverageDelta)
	}
	if !almostEqual(stats.MaxDelta, 3.0) || !almostEqual(stats.MinDelta, 1.0) {
		t.Fatalf("min/max: got %.2f/%.2f", stats.MinDelta, stats.MaxDelta)
	}
	if stats.TradeOpportunities != 3 {
		t.Fatalf("opportunities: expected 3, got %d", stats.TradeOpportunities)
	}
	if !almostEqual(stats.Volatility, math.Sqrt(2.0/3.0)) {
		t.Fatalf("volatility: expected %.4f, got %.4f", math.Sqrt(2.0/3.0), stats.Volatility)
	}
	if stats.TotalETFs != 4 {
		t.Fatalf("total ETFs: expected 4, got %d", stats.TotalETFs)
	}
}

func TestMarketStats_Empty(t *testing.T) {
	engine := NewEngine(testRegistry(t), Params{Threshold: 0.5, Fee: 50})
	stats := engine.MarketStats(nil)
	if stats != (MarketStats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
