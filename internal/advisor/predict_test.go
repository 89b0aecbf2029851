package advisor

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"simarket/internal/market"
)

// neutralTag is absent from every daily-effects table, so the sector sum
// contributes nothing and the projection depends only on the series.
const neutralTag = market.Sector("neutral")

func mkInstrument(arch market.Archetype, upper int64, series []int64) *market.Instrument {
	return &market.Instrument{
		ID:           "TESTER",
		DisplayName:  "Tester Industries",
		Tags:         []market.Sector{neutralTag},
		Archetype:    arch,
		RTLow:        0.98,
		RTHigh:       1.02,
		InitialPrice: series[0],
		LowerBand:    1,
		UpperBand:    upper,
		Series:       series,
	}
}

func steppedSeries(start, step int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = start + step*int64(i)
	}
	return out
}

func TestPredictShortSeries(t *testing.T) {
	in := mkInstrument(market.ArchetypeBull, 10000, []int64{1000})
	p := Predict(in, 1, 0, market.GenerateDailyEffects(1), 0)
	if p.Trend != TrendFlat || p.Status != StatusStagnant {
		t.Fatalf("trend %s status %s, want flat/stagnant", p.Trend, p.Status)
	}
	if p.Reason != "series too short to classify" {
		t.Fatalf("reason %q", p.Reason)
	}
	if p.RiskLevel != 0.5 {
		t.Fatalf("risk %f, want 0.5", p.RiskLevel)
	}
	if p.CurrentPrice != 1000 {
		t.Fatalf("current price %d", p.CurrentPrice)
	}
}

func TestPredictStrongUpEarlyStage(t *testing.T) {
	in := mkInstrument(market.ArchetypeBull, 10000, steppedSeries(1000, 10, 13))
	p := Predict(in, 1, 12, market.GenerateDailyEffects(1), 0)

	if p.Trend != TrendStrongUp {
		t.Fatalf("trend %s, want strong-up", p.Trend)
	}
	if p.Status != StatusEarlyStage {
		t.Fatalf("status %s, want early-stage", p.Status)
	}
	if p.CurrentPrice != 1120 {
		t.Fatalf("current price %d, want 1120", p.CurrentPrice)
	}
	// Steady +10/hour cannot cover 8880 units by end of day.
	if p.LimitHour < 0 || p.LimitReachable {
		t.Fatalf("limit hour %d reachable=%v", p.LimitHour, p.LimitReachable)
	}
	if math.Abs(p.RiskLevel-0.1) > 1e-9 {
		t.Fatalf("risk %f, want 0.1", p.RiskLevel)
	}
	if p.BuyWindow != "hour 12-15" {
		t.Fatalf("buy window %q", p.BuyWindow)
	}
	if p.RemainingGoodHours != 11 {
		t.Fatalf("remaining good hours %d, want 11", p.RemainingGoodHours)
	}
}

func TestPredictFlatStagnant(t *testing.T) {
	in := mkInstrument(market.ArchetypeSideways, 10000, steppedSeries(1000, 0, 13))
	p := Predict(in, 1, 12, market.GenerateDailyEffects(1), 0)
	if p.Trend != TrendFlat || p.Status != StatusStagnant {
		t.Fatalf("trend %s status %s", p.Trend, p.Status)
	}
	if p.BuyWindow != "wait and watch" {
		t.Fatalf("buy window %q", p.BuyWindow)
	}
}

func TestPredictLimitUp(t *testing.T) {
	in := mkInstrument(market.ArchetypeMoonshot, 10000, steppedSeries(9780, 10, 13))
	p := Predict(in, 1, 12, market.GenerateDailyEffects(1), 0)
	if p.Status != StatusLimitUp {
		t.Fatalf("status %s, want limit-up", p.Status)
	}
	if p.SafeExpectedGain != 0 {
		t.Fatalf("safe gain %f, want 0 at the ceiling", p.SafeExpectedGain)
	}
	if p.RemainingGoodHours != 0 {
		t.Fatalf("remaining good hours %d", p.RemainingGoodHours)
	}
	if p.BuyWindow != "not recommended" {
		t.Fatalf("buy window %q", p.BuyWindow)
	}
}

func TestPredictNearLimitCapsGain(t *testing.T) {
	in := mkInstrument(market.ArchetypeBull, 10000, steppedSeries(9380, 10, 13))
	p := Predict(in, 1, 12, market.GenerateDailyEffects(1), 0)
	if p.Status != StatusNearLimit {
		t.Fatalf("status %s, want near-limit", p.Status)
	}
	if p.SafeExpectedGain != 0.5 {
		t.Fatalf("safe gain %f, want capped at 0.5", p.SafeExpectedGain)
	}
	if p.BuyWindow != "not recommended" {
		t.Fatalf("buy window %q", p.BuyWindow)
	}
}

func TestPredictRiskGrowsNearTheBand(t *testing.T) {
	effects := market.GenerateDailyEffects(1)
	far := Predict(mkInstrument(market.ArchetypeBull, 10000, steppedSeries(1000, 10, 13)), 1, 12, effects, 0)
	near := Predict(mkInstrument(market.ArchetypeBull, 10000, steppedSeries(9380, 10, 13)), 1, 12, effects, 0)
	atLimit := Predict(mkInstrument(market.ArchetypeBull, 10000, steppedSeries(9780, 10, 13)), 1, 12, effects, 0)

	if !(far.RiskLevel < near.RiskLevel && near.RiskLevel < atLimit.RiskLevel) {
		t.Fatalf("risk not monotone in band distance: %f %f %f",
			far.RiskLevel, near.RiskLevel, atLimit.RiskLevel)
	}
}

func TestPredictBuffEffect(t *testing.T) {
	effects := market.GenerateDailyEffects(1)
	in := mkInstrument(market.ArchetypeBull, 10000, steppedSeries(1000, 10, 13))
	plain := Predict(in, 1, 12, effects, 0)
	boosted := Predict(in, 1, 12, effects, 0.5)

	if boosted.RiskLevel >= plain.RiskLevel {
		t.Fatalf("buff should lower risk: %f vs %f", boosted.RiskLevel, plain.RiskLevel)
	}
	if boosted.SafeExpectedGain <= plain.SafeExpectedGain {
		t.Fatalf("buff should lift the safe gain: %f vs %f",
			boosted.SafeExpectedGain, plain.SafeExpectedGain)
	}
}

func TestPredictUsesOnlyCurrentDay(t *testing.T) {
	// Flat through day 1, falling in day 2; day-2 classification must not see
	// the earlier hours.
	series := steppedSeries(1000, 0, 24)
	series = append(series, 990, 980, 970)
	in := mkInstrument(market.ArchetypeSideways, 10000, series)
	p := Predict(in, 2, 26, market.GenerateDailyEffects(1), 0)
	if p.Trend != TrendStrongDown {
		t.Fatalf("trend %s, want strong-down", p.Trend)
	}
	if p.Status != StatusFalling {
		t.Fatalf("status %s, want falling", p.Status)
	}
	if p.BuyWindow != "avoid" {
		t.Fatalf("buy window %q", p.BuyWindow)
	}
}

func TestPredictIsPure(t *testing.T) {
	effects := market.GenerateDailyEffects(42)
	in := mkInstrument(market.ArchetypeMoonshot, 20000, steppedSeries(5000, 25, 13))
	before := append([]int64(nil), in.Series...)

	a := Predict(in, 1, 12, effects, 0.2)
	b := Predict(in, 1, 12, effects, 0.2)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("repeated predictions differ")
	}
	if !reflect.DeepEqual(before, in.Series) {
		t.Fatal("prediction mutated the series")
	}
}

func TestWindowTextGuard(t *testing.T) {
	if got := windowText(5, 3); got != "hour 5-7" {
		t.Fatalf("inverted window %q", got)
	}
	if got := windowText(-2, 1); !strings.HasPrefix(got, "hour 0-") {
		t.Fatalf("negative start %q", got)
	}
}
