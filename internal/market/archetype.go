package market

// Archetype is an instrument's behavioral volatility class. It fixes the base
// hourly multiplicative range and the initial-price range.
type Archetype int

const (
	ArchetypeBear Archetype = iota // low volatility, declining
	ArchetypeSideways
	ArchetypeBull
	ArchetypeMoonshot // high volatility, rising
)

func (a Archetype) String() string {
	switch a {
	case ArchetypeBear:
		return "bear"
	case ArchetypeSideways:
		return "sideways"
	case ArchetypeBull:
		return "bull"
	case ArchetypeMoonshot:
		return "moonshot"
	default:
		return "unknown"
	}
}

const (
	// Feasible interval for any hourly multiplicative factor. Jittered range
	// endpoints and shock-perturbed factors are clamped back into it.
	FactorFloor = 0.75
	FactorCeil  = 1.30

	// Signed uniform jitter applied independently to each range endpoint.
	rangeJitter = 0.006
)

// archetypeWeights is the categorical distribution for SampleArchetype. The
// cumulative comparison order (first boundary crossed wins) is a contract;
// do not reorder.
var archetypeOrder = []Archetype{ArchetypeBear, ArchetypeSideways, ArchetypeBull, ArchetypeMoonshot}

var archetypeWeights = []float64{0.25, 0.30, 0.30, 0.15}

// baseRange is the archetype's base hourly multiplicative range [low, high].
var baseRange = map[Archetype][2]float64{
	ArchetypeBear:     {0.962, 1.020},
	ArchetypeSideways: {0.980, 1.022},
	ArchetypeBull:     {0.988, 1.042},
	ArchetypeMoonshot: {0.965, 1.085},
}

// initialPriceRange is the archetype's initial price range in minor units.
// Higher expected volatility gets a lower starting range so the series has
// room to run toward the upper band.
var initialPriceRange = map[Archetype][2]int64{
	ArchetypeBear:     {9_000, 16_000},
	ArchetypeSideways: {6_000, 12_000},
	ArchetypeBull:     {3_500, 8_000},
	ArchetypeMoonshot: {1_200, 4_500},
}

// SampleArchetype draws an archetype from the configured weights.
func SampleArchetype(rng *Stream) Archetype {
	return archetypeOrder[rng.WeightedIndex(archetypeWeights)]
}

// BaseRange returns the archetype's base hourly factor range.
func (a Archetype) BaseRange() (low, high float64) {
	r := baseRange[a]
	return r[0], r[1]
}

// JitteredRange perturbs each endpoint of the base range by a signed uniform
// amount, clamps both ends to the feasible interval, and swaps them if the
// perturbation inverted their order.
func (a Archetype) JitteredRange(rng *Stream) (low, high float64) {
	low, high = a.BaseRange()
	low += rng.Range(-rangeJitter, rangeJitter)
	high += rng.Range(-rangeJitter, rangeJitter)
	low = clampFloat(low, FactorFloor, FactorCeil)
	high = clampFloat(high, FactorFloor, FactorCeil)
	if low > high {
		low, high = high, low
	}
	return low, high
}

// InitialPrice draws a starting price in minor units for the archetype.
func (a Archetype) InitialPrice(rng *Stream) int64 {
	r := initialPriceRange[a]
	return rng.Range64(r[0], r[1])
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
