package advisor

import (
	"sort"

	"simarket/internal/market"
)

// Weights are the composite-score weights. They should sum to 1 but are not
// normalized; callers own the tradeoff.
type Weights struct {
	Gain  float64 `json:"gain"`
	Risk  float64 `json:"risk"`
	Time  float64 `json:"time"`
	Trend float64 `json:"trend"`
}

// DefaultWeights favors expected gain, then safety.
var DefaultWeights = Weights{Gain: 0.4, Risk: 0.3, Time: 0.2, Trend: 0.1}

// Entry is one row of the ranked advisory list.
type Entry struct {
	InstrumentID string     `json:"instrument_id"`
	DisplayName  string     `json:"display_name"`
	Score        float64    `json:"score"`
	Tier         string     `json:"tier"`
	Advice       string     `json:"advice"`
	Prediction   Prediction `json:"prediction"`
}

// statusScore is the fixed trend/status sub-score lookup.
var statusScore = map[Status]float64{
	StatusEarlyStage: 100,
	StatusRising:     80,
	StatusNearLimit:  40,
	StatusStagnant:   15,
	StatusFalling:    10,
	StatusLimitUp:    0,
}

// Rank aggregates predictions into a composite-scored, descending advisory
// list, truncated to topN when topN > 0.
func Rank(preds []Prediction, insts map[string]*market.Instrument, w Weights, topN int) []Entry {
	out := make([]Entry, 0, len(preds))
	for _, p := range preds {
		name := p.InstrumentID
		if in, ok := insts[p.InstrumentID]; ok {
			name = in.DisplayName
		}
		score := compositeScore(p, w)
		tier, advice := tierFor(score)
		out = append(out, Entry{
			InstrumentID: p.InstrumentID,
			DisplayName:  name,
			Score:        score,
			Tier:         tier,
			Advice:       advice,
			Prediction:   p,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func compositeScore(p Prediction, w Weights) float64 {
	gain := p.SafeExpectedGain * 2
	if gain > 100 {
		gain = 100
	}
	risk := (1 - p.RiskLevel) * 100
	timeScore := float64(p.RemainingGoodHours) * 10
	if timeScore > 100 {
		timeScore = 100
	}
	score := gain*w.Gain + risk*w.Risk + timeScore*w.Time + statusScore[p.Status]*w.Trend
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func tierFor(score float64) (tier, advice string) {
	switch {
	case score >= 75:
		return "strong-recommend", "prime entry; buy early in the window"
	case score >= 60:
		return "recommend", "good entry; size normally"
	case score >= 45:
		return "cautious", "possible entry; keep the position small"
	case score >= 30:
		return "watch", "no entry yet; re-check next hour"
	default:
		return "avoid", "skip; risk outweighs the projected gain"
	}
}

// BuyableThreshold is the default minimum score for the buyable filter.
const BuyableThreshold = 45.0

// Buyable filters the ranked list down to actionable entries: a minimum
// score, a status that still has room, and time left in the window.
func Buyable(entries []Entry, minScore float64) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Score < minScore {
			continue
		}
		if e.Prediction.Status == StatusLimitUp || e.Prediction.Status == StatusFalling {
			continue
		}
		if e.Prediction.RemainingGoodHours <= 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sellPriority orders sell candidates: ceiling first, then crowding the
// band, then active decline.
var sellPriority = map[Status]int{
	StatusLimitUp:   0,
	StatusNearLimit: 1,
	StatusFalling:   2,
}

// SellCandidates returns predictions whose status argues for exiting,
// ordered LimitUp, NearLimit, Falling.
func SellCandidates(preds []Prediction) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if _, ok := sellPriority[p.Status]; ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sellPriority[out[i].Status] < sellPriority[out[j].Status]
	})
	return out
}
