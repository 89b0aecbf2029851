package advisor

import (
	"fmt"
	"math"

	"simarket/internal/market"
)

// Trend is the short-term trajectory classification of a series slice.
type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendStrongUp
	TrendDown
	TrendStrongDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendStrongUp:
		return "strong-up"
	case TrendDown:
		return "down"
	case TrendStrongDown:
		return "strong-down"
	default:
		return "flat"
	}
}

// Status is the price-position classification relative to the upper band.
type Status int

const (
	StatusStagnant Status = iota
	StatusEarlyStage
	StatusRising
	StatusNearLimit
	StatusLimitUp
	StatusFalling
)

func (s Status) String() string {
	switch s {
	case StatusEarlyStage:
		return "early-stage"
	case StatusRising:
		return "rising"
	case StatusNearLimit:
		return "near-limit"
	case StatusLimitUp:
		return "limit-up"
	case StatusFalling:
		return "falling"
	default:
		return "stagnant"
	}
}

// Prediction is derived fresh per query and never persisted.
type Prediction struct {
	InstrumentID string  `json:"instrument_id"`
	Day          int     `json:"day"`
	Hour         int     `json:"hour"`
	Trend        Trend   `json:"-"`
	TrendLabel   string  `json:"trend"`
	Status       Status  `json:"-"`
	StatusLabel  string  `json:"status"`
	CurrentPrice int64   `json:"current_price"`
	UpperBand    int64   `json:"upper_band"`
	DistToLimit  float64 `json:"dist_to_limit"`

	LimitHour      int  `json:"limit_hour"`
	LimitReachable bool `json:"limit_reachable"`

	MaxPotentialGain float64 `json:"max_potential_gain"`
	SafeExpectedGain float64 `json:"safe_expected_gain"`
	RiskLevel        float64 `json:"risk_level"`

	BuyWindow          string `json:"buy_window"`
	SellWindow         string `json:"sell_window"`
	RemainingGoodHours int    `json:"remaining_good_hours"`
	Reason             string `json:"reason"`
}

const (
	// Slice fraction of no-change hours above which the trend is Flat
	// regardless of up/down counts.
	flatDominance = 0.70
	// Up/down ratio above which a trend counts as Strong.
	strongRatio = 1.5

	distLimitUp    = 0.02
	distNearLimit  = 0.10
	distEarlyStage = 0.30

	minWindowHours = 2
)

// trendConfidence scales maxPotentialGain into safeExpectedGain.
var trendConfidence = map[Trend]float64{
	TrendStrongUp:   0.8,
	TrendUp:         0.6,
	TrendFlat:       0.3,
	TrendDown:       0.1,
	TrendStrongDown: 0.0,
}

// archetypeProjection scales the hours-to-limit extrapolation.
var archetypeProjection = map[market.Archetype]float64{
	market.ArchetypeBear:     0.5,
	market.ArchetypeSideways: 0.8,
	market.ArchetypeBull:     1.2,
	market.ArchetypeMoonshot: 1.8,
}

// Predict classifies an instrument's trajectory from the start of day through
// hour and projects whether it can reach its upper band. It is pure: the
// instrument is never mutated and repeated calls return identical results.
//
// The evaluation order (trend, status, projection, gains, risk, reason) is a
// contract; later stages read earlier classifications.
func Predict(in *market.Instrument, day, hour int, effects *market.DailyEffects, buff float64) Prediction {
	p := Prediction{
		InstrumentID: in.ID,
		Day:          day,
		Hour:         hour,
		LimitHour:    -1,
		UpperBand:    in.UpperBand,
	}

	start := (day - 1) * market.HoursPerDay
	end := hour
	if end >= len(in.Series) {
		end = len(in.Series) - 1
	}
	if end < 0 || start < 0 || end-start < 1 {
		p.Trend = TrendFlat
		p.Status = StatusStagnant
		p.Reason = "series too short to classify"
		p.RiskLevel = 0.5
		if len(in.Series) > 0 {
			price, _ := in.PriceAt(end)
			p.CurrentPrice = price
		}
		p.finishWindows(day, hour)
		p.label()
		return p
	}
	slice := in.Series[start : end+1]
	p.CurrentPrice = slice[len(slice)-1]
	p.DistToLimit = float64(in.UpperBand-p.CurrentPrice) / float64(in.UpperBand)

	// trend
	ups, downs, flats := countMoves(slice)
	p.Trend = classifyTrend(ups, downs, flats)

	// status (priority order matters)
	p.Status = classifyStatus(p.DistToLimit, p.Trend)

	// limit-hour projection
	avgGain := averagePositiveMove(slice)
	scaled := avgGain * archetypeProjection[in.Archetype]
	if sum := market.SectorSum(effects.ForDay(day), in.Tags); sum > 0 {
		scaled *= 1 + sum
	}
	if buff > 0.1 {
		scaled *= 1 + buff
	}
	endOfDay := day*market.HoursPerDay - 1
	if scaled > 0 && p.CurrentPrice < in.UpperBand {
		need := float64(in.UpperBand - p.CurrentPrice)
		p.LimitHour = hour + int(math.Ceil(need/scaled))
		p.LimitReachable = p.LimitHour <= endOfDay
	}

	// gains
	p.MaxPotentialGain = float64(in.UpperBand-p.CurrentPrice) / float64(p.CurrentPrice) * 100
	buffMult := 1.0
	if buff > 0.1 {
		buffMult = 1 + buff*0.5
	}
	p.SafeExpectedGain = p.MaxPotentialGain * trendConfidence[p.Trend] * buffMult
	switch p.Status {
	case StatusLimitUp:
		p.SafeExpectedGain = 0
	case StatusNearLimit:
		if p.SafeExpectedGain > 0.5 {
			p.SafeExpectedGain = 0.5
		}
	}

	// risk
	p.RiskLevel = riskLevel(p.DistToLimit, p.Trend, in.Archetype, buff)

	// windows + reason
	p.finishWindows(day, hour)
	p.Reason = reasonText(p)
	p.label()
	return p
}

func (p *Prediction) label() {
	p.TrendLabel = p.Trend.String()
	p.StatusLabel = p.Status.String()
}

func countMoves(slice []int64) (ups, downs, flats int) {
	for i := 1; i < len(slice); i++ {
		switch {
		case slice[i] > slice[i-1]:
			ups++
		case slice[i] < slice[i-1]:
			downs++
		default:
			flats++
		}
	}
	return ups, downs, flats
}

func classifyTrend(ups, downs, flats int) Trend {
	total := ups + downs + flats
	if total == 0 {
		return TrendFlat
	}
	if float64(flats) > flatDominance*float64(total) {
		return TrendFlat
	}
	switch {
	case ups > downs:
		if downs == 0 || float64(ups)/float64(downs) > strongRatio {
			return TrendStrongUp
		}
		return TrendUp
	case downs > ups:
		if ups == 0 || float64(downs)/float64(ups) > strongRatio {
			return TrendStrongDown
		}
		return TrendDown
	default:
		return TrendFlat
	}
}

func classifyStatus(dist float64, trend Trend) Status {
	switch {
	case dist < distLimitUp:
		return StatusLimitUp
	case dist < distNearLimit:
		return StatusNearLimit
	case trend == TrendFlat:
		return StatusStagnant
	case trend == TrendUp || trend == TrendStrongUp:
		if dist > distEarlyStage {
			return StatusEarlyStage
		}
		return StatusRising
	case trend == TrendDown || trend == TrendStrongDown:
		return StatusFalling
	default:
		return StatusStagnant
	}
}

// averagePositiveMove returns the mean minor-unit gain over hours that moved
// up, zero when none did.
func averagePositiveMove(slice []int64) float64 {
	var sum int64
	var n int
	for i := 1; i < len(slice); i++ {
		if d := slice[i] - slice[i-1]; d > 0 {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func riskLevel(dist float64, trend Trend, arch market.Archetype, buff float64) float64 {
	risk := 0.5
	switch {
	case dist < distLimitUp:
		risk += 0.4
	case dist < distNearLimit:
		risk += 0.2
	case dist > distEarlyStage:
		risk -= 0.1
	}
	switch trend {
	case TrendStrongUp:
		risk -= 0.3
	case TrendUp:
		risk -= 0.2
	case TrendStrongDown:
		risk += 0.3
	}
	switch arch {
	case market.ArchetypeMoonshot:
		risk += 0.2
	case market.ArchetypeBear:
		risk += 0.1
	}
	switch {
	case buff > 0.3:
		risk -= 0.2
	case buff > 0.1:
		risk -= 0.1
	}
	if risk < 0 {
		return 0
	}
	if risk > 1 {
		return 1
	}
	return risk
}

// finishWindows fills the buy/sell windows and remaining-good-hours for the
// already-classified status. Every computed end hour is guarded to exceed its
// start, falling back to a minimum window otherwise.
func (p *Prediction) finishWindows(day, hour int) {
	endOfDay := day*market.HoursPerDay - 1
	switch p.Status {
	case StatusEarlyStage:
		p.BuyWindow = windowText(hour, hour+3)
		sellAt := endOfDay
		if p.LimitReachable {
			sellAt = p.LimitHour
		}
		p.SellWindow = windowText(sellAt-1, sellAt+1)
		p.RemainingGoodHours = clampHours(sellAt - hour)
	case StatusRising:
		p.BuyWindow = windowText(hour, hour+2)
		sellAt := endOfDay
		if p.LimitReachable && p.LimitHour < endOfDay {
			sellAt = p.LimitHour
		}
		p.SellWindow = windowText(sellAt-1, sellAt+1)
		p.RemainingGoodHours = clampHours(sellAt - hour)
	case StatusNearLimit:
		p.BuyWindow = "not recommended"
		p.SellWindow = windowText(hour, hour+2)
		p.RemainingGoodHours = 1
	case StatusLimitUp:
		p.BuyWindow = "not recommended"
		p.SellWindow = windowText(hour, hour+1)
		p.RemainingGoodHours = 0
	case StatusFalling:
		p.BuyWindow = "avoid"
		p.SellWindow = windowText(hour, hour+1)
		p.RemainingGoodHours = 0
	default: // Stagnant
		p.BuyWindow = "wait and watch"
		p.SellWindow = windowText(endOfDay-1, endOfDay+1)
		p.RemainingGoodHours = minWindowHours
	}
}

func windowText(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end <= start {
		end = start + minWindowHours
	}
	return fmt.Sprintf("hour %d-%d", start, end)
}

func clampHours(h int) int {
	if h < 0 {
		return 0
	}
	return h
}

func reasonText(p Prediction) string {
	switch p.Status {
	case StatusLimitUp:
		return fmt.Sprintf("price is at the ceiling (%.1f%% below band); no upside left", p.DistToLimit*100)
	case StatusNearLimit:
		return fmt.Sprintf("within %.1f%% of the upper band; late to enter", p.DistToLimit*100)
	case StatusEarlyStage:
		return fmt.Sprintf("%s trend with %.0f%% of headroom remaining", p.Trend, p.DistToLimit*100)
	case StatusRising:
		return fmt.Sprintf("%s trend approaching the band", p.Trend)
	case StatusFalling:
		return fmt.Sprintf("%s trend; expected gain %.1f%%", p.Trend, p.SafeExpectedGain)
	default:
		return "no meaningful movement today"
	}
}
