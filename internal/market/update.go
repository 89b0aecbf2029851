package market

import "math"

// Anti-stagnation thresholds: when the combined multiplicative factor is
// farther from 1.0 than the threshold, the price must visibly move by at
// least one minor unit. The hourly-effect path and the daily-once fold use
// distinct literals on purpose; they were tuned independently.
const (
	stagnationEpsHourly = 1e-4
	stagnationEpsDaily  = 1e-3
)

// sectorSumFloor keeps the (1+sd) multiplier strictly positive.
const sectorSumFloor = -0.99

const (
	// Per-tick probability of an extra shock outside the archetype's band.
	shockChance = 0.25
	shockSpan   = 0.15
)

// SectorSum adds up the day's effect for each of the instrument's tags,
// floored so the resulting multiplier can never go non-positive.
func SectorSum(effects map[Sector]float64, tags []Sector) float64 {
	sum := 0.0
	for _, tag := range tags {
		sum += effects[tag]
	}
	if sum < sectorSumFloor {
		sum = sectorSumFloor
	}
	return sum
}

// DrawFactor samples the hourly factor rt from a normal distribution whose
// mean is the range midpoint and whose deviation makes the range cover ±3σ,
// clamped back into [low, high]. With a fixed per-tick probability an
// independent perturbation is added and the result re-clamped to the global
// feasible interval.
func DrawFactor(rng *Stream, low, high float64) float64 {
	mean := (low + high) / 2
	stddev := (high - low) / 6
	rt := clampFloat(rng.Norm(mean, stddev), low, high)
	if rng.Float64() < shockChance {
		rt += rng.Range(-shockSpan, shockSpan)
		rt = clampFloat(rt, FactorFloor, FactorCeil)
	}
	return rt
}

// NextPrice applies one multiplicative update to a minor-unit price.
//
// The real-valued result is clamped to the global feasibility bounds before
// integer conversion so prices near the caps cannot overflow. When the
// rounded result equals p but the factor implies change beyond eps, a minimum
// one-unit move is forced in the implied direction. Finally a band bounce
// keeps the result strictly inside (lowerBand, upperBand) by one unit.
func NextPrice(p int64, rt, sd float64, lowerBand, upperBand int64, eps float64) int64 {
	factor := rt * (1 + sd)
	raw := float64(p) / 100 * factor * 100
	if raw > float64(GlobalMaxPrice) {
		raw = float64(GlobalMaxPrice)
	}
	if raw < float64(GlobalMinPrice) {
		raw = float64(GlobalMinPrice)
	}
	next := roundHalfAway(raw)

	if next == p && math.Abs(factor-1) > eps {
		if factor > 1 {
			next = p + 1
		} else {
			next = p - 1
		}
	}

	if next > upperBand {
		next = upperBand - 1
		if next < lowerBand {
			next = lowerBand
		}
	} else if next < lowerBand {
		next = lowerBand + 1
		if next > upperBand {
			next = upperBand
		}
	}
	return next
}

// roundHalfAway rounds half away from zero, matching math.Round.
func roundHalfAway(v float64) int64 {
	return int64(math.Round(v))
}
