package market

// EffectCycleDays is the base length of the daily sector-effect table. Days
// beyond it reuse entries cyclically (index modulo cycle length).
const EffectCycleDays = 30

const (
	minEffectTags = 3
	maxEffectTags = 5
)

// effectBand is one weighted magnitude band for daily effect sampling.
type effectBand struct {
	min, max, weight float64
}

// effectBands spans large-negative to large-positive daily sentiment. A band
// is picked by weight first, then the magnitude is uniform within the band.
var effectBands = []effectBand{
	{-0.50, -0.25, 0.04},
	{-0.25, -0.10, 0.10},
	{-0.10, -0.03, 0.16},
	{-0.03, 0.03, 0.24},
	{0.03, 0.10, 0.22},
	{0.10, 0.25, 0.16},
	{0.25, 0.60, 0.08},
}

// DailyEffects holds the per-day sector shock tables for one session.
// Generated once at session start and immutable thereafter.
type DailyEffects struct {
	cycle []map[Sector]float64
}

// GenerateDailyEffects builds the full base cycle from the seed.
func GenerateDailyEffects(seed int64) *DailyEffects {
	rng := NewStream(StreamSeed(seed, "daily-effects"))
	catalog := Sectors()
	weights := make([]float64, len(effectBands))
	for i, b := range effectBands {
		weights[i] = b.weight
	}

	cycle := make([]map[Sector]float64, EffectCycleDays)
	for day := 0; day < EffectCycleDays; day++ {
		n := rng.IntRange(minEffectTags, maxEffectTags)
		entry := make(map[Sector]float64, n)
		taken := make(map[int]bool, n)
		for len(entry) < n {
			idx := rng.Intn(len(catalog))
			if taken[idx] {
				continue
			}
			taken[idx] = true
			band := effectBands[rng.WeightedIndex(weights)]
			entry[catalog[idx]] = rng.Range(band.min, band.max)
		}
		cycle[day] = entry
	}
	return &DailyEffects{cycle: cycle}
}

// ForDay returns the effect table for a 1-based day index, reusing the base
// cycle modulo its length for days beyond it.
func (d *DailyEffects) ForDay(day int) map[Sector]float64 {
	if day < 1 {
		day = 1
	}
	return d.cycle[(day-1)%len(d.cycle)]
}

// CycleLength returns the base cycle length in days.
func (d *DailyEffects) CycleLength() int {
	return len(d.cycle)
}

// Snapshot copies the full cycle for export; mutation of the copy cannot
// touch the session table.
func (d *DailyEffects) Snapshot() []map[Sector]float64 {
	out := make([]map[Sector]float64, len(d.cycle))
	for i, entry := range d.cycle {
		cp := make(map[Sector]float64, len(entry))
		for tag, eff := range entry {
			cp[tag] = eff
		}
		out[i] = cp
	}
	return out
}
