package advisor

import (
	"math"
	"testing"

	"simarket/internal/market"
)

func mkPrediction(id string, status Status, safeGain, risk float64, remaining int) Prediction {
	return Prediction{
		InstrumentID:       id,
		Status:             status,
		StatusLabel:        status.String(),
		SafeExpectedGain:   safeGain,
		RiskLevel:          risk,
		RemainingGoodHours: remaining,
	}
}

func TestRankOrdersByScore(t *testing.T) {
	preds := []Prediction{
		mkPrediction("LOW", StatusStagnant, 1, 0.6, 2),
		mkPrediction("HIGH", StatusEarlyStage, 40, 0.1, 10),
		mkPrediction("MID", StatusRising, 10, 0.4, 6),
	}
	entries := Rank(preds, nil, DefaultWeights, 0)
	if len(entries) != 3 {
		t.Fatalf("entries %d, want 3", len(entries))
	}
	want := []string{"HIGH", "MID", "LOW"}
	for i, id := range want {
		if entries[i].InstrumentID != id {
			t.Fatalf("position %d: got %s, want %s", i, entries[i].InstrumentID, id)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestRankTruncatesToTopN(t *testing.T) {
	preds := []Prediction{
		mkPrediction("A", StatusRising, 10, 0.4, 6),
		mkPrediction("B", StatusRising, 20, 0.4, 6),
		mkPrediction("C", StatusRising, 30, 0.4, 6),
	}
	entries := Rank(preds, nil, DefaultWeights, 2)
	if len(entries) != 2 {
		t.Fatalf("entries %d, want 2", len(entries))
	}
	if entries[0].InstrumentID != "C" {
		t.Fatalf("top entry %s, want C", entries[0].InstrumentID)
	}
}

func TestRankResolvesDisplayName(t *testing.T) {
	insts := map[string]*market.Instrument{
		"KNOWN": {ID: "KNOWN", DisplayName: "Known Goods Co"},
	}
	preds := []Prediction{
		mkPrediction("KNOWN", StatusRising, 10, 0.4, 6),
		mkPrediction("GHOSTY", StatusRising, 10, 0.4, 6),
	}
	entries := Rank(preds, insts, DefaultWeights, 0)
	for _, e := range entries {
		switch e.InstrumentID {
		case "KNOWN":
			if e.DisplayName != "Known Goods Co" {
				t.Fatalf("display name %q", e.DisplayName)
			}
		case "GHOSTY":
			if e.DisplayName != "GHOSTY" {
				t.Fatalf("fallback display name %q", e.DisplayName)
			}
		}
	}
}

func TestCompositeScoreComponents(t *testing.T) {
	// gain 100 (capped), risk 80, time 80, status 100 with default weights.
	p := mkPrediction("X", StatusEarlyStage, 60, 0.2, 8)
	entries := Rank([]Prediction{p}, nil, DefaultWeights, 0)
	if got := entries[0].Score; math.Abs(got-90) > 1e-9 {
		t.Fatalf("score %f, want 90", got)
	}
	if entries[0].Tier != "strong-recommend" {
		t.Fatalf("tier %q", entries[0].Tier)
	}

	// Zero everything at the ceiling: only the risk term survives.
	worst := mkPrediction("Y", StatusLimitUp, 0, 1, 0)
	entries = Rank([]Prediction{worst}, nil, DefaultWeights, 0)
	if got := entries[0].Score; got != 0 {
		t.Fatalf("score %f, want 0", got)
	}
	if entries[0].Tier != "avoid" {
		t.Fatalf("tier %q", entries[0].Tier)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		tier  string
	}{
		{80, "strong-recommend"},
		{75, "strong-recommend"},
		{60, "recommend"},
		{45, "cautious"},
		{30, "watch"},
		{10, "avoid"},
	}
	for _, tc := range cases {
		tier, _ := tierFor(tc.score)
		if tier != tc.tier {
			t.Fatalf("score %.0f: tier %q, want %q", tc.score, tier, tc.tier)
		}
	}
}

func TestBuyableFilters(t *testing.T) {
	preds := []Prediction{
		mkPrediction("GOOD", StatusEarlyStage, 40, 0.1, 10),
		mkPrediction("CEIL", StatusLimitUp, 0, 0.9, 0),
		mkPrediction("DROP", StatusFalling, 0, 0.8, 0),
		mkPrediction("STALE", StatusRising, 30, 0.2, 0),
		mkPrediction("WEAK", StatusStagnant, 0, 0.9, 2),
	}
	entries := Rank(preds, nil, DefaultWeights, 0)
	buyable := Buyable(entries, BuyableThreshold)
	if len(buyable) != 1 || buyable[0].InstrumentID != "GOOD" {
		t.Fatalf("buyable %+v, want only GOOD", buyable)
	}
}

func TestSellCandidatesOrder(t *testing.T) {
	preds := []Prediction{
		mkPrediction("F", StatusFalling, 0, 0.8, 0),
		mkPrediction("R", StatusRising, 10, 0.3, 5),
		mkPrediction("L", StatusLimitUp, 0, 0.9, 0),
		mkPrediction("N", StatusNearLimit, 0.5, 0.7, 1),
	}
	got := SellCandidates(preds)
	want := []string{"L", "N", "F"}
	if len(got) != len(want) {
		t.Fatalf("candidates %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].InstrumentID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].InstrumentID, id)
		}
	}
}
