package market

import "math"

const (
	MinorUnitsPerCredit = int64(100)

	// Hard feasibility bounds for any stored price, in minor units.
	GlobalMinPrice = int64(10)
	GlobalMaxPrice = int64(10_000_000)

	// Band multipliers applied once to the initial price.
	lowerBandMult = 0.55
	upperBandMult = 3.0

	minTagsPerInstrument = 2
	maxTagsPerInstrument = 3

	// DefaultCandidateCount is the size of the generated candidate population.
	DefaultCandidateCount = 100
)

// Instrument is one simulated security. Series is append-only and indexed by
// absolute hour; it is never truncated or rewritten.
type Instrument struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Tags         []Sector  `json:"tags"`
	Archetype    Archetype `json:"archetype"`
	RTLow        float64   `json:"rt_low"`
	RTHigh       float64   `json:"rt_high"`
	InitialPrice int64     `json:"initial_price"`
	LowerBand    int64     `json:"lower_band"`
	UpperBand    int64     `json:"upper_band"`

	// Series holds minor-unit prices; Series[h] is the price at absolute hour h.
	Series []int64 `json:"-"`
}

// PriceAt returns the series value at the given hour, clamped to the last
// generated entry. ok is false when the series is empty.
func (in *Instrument) PriceAt(hour int) (int64, bool) {
	if len(in.Series) == 0 {
		return 0, false
	}
	if hour < 0 {
		hour = 0
	}
	if hour >= len(in.Series) {
		hour = len(in.Series) - 1
	}
	return in.Series[hour], true
}

var namePrefixes = []string{
	"Ember", "Gloam", "Thorn", "Frost", "Drake", "Cinder", "Aster", "Vale",
	"Mire", "Bryn", "Kiln", "Oath", "Runic", "Sable", "Tide", "Warden",
	"Hollow", "Gilded", "Storm", "Quill",
}

var nameSuffixes = []string{
	"Holdings", "Works", "Guild", "Combine", "Syndicate", "Forge", "Caravans",
	"Mills", "Ventures", "Charter", "Consortium", "Depot",
}

const symbolLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateCandidates deterministically builds a candidate population from the
// seed. Candidates carry no price series; series generation belongs to the
// engine.
func GenerateCandidates(seed int64, count int) []*Instrument {
	rng := NewStream(StreamSeed(seed, "library"))
	catalog := Sectors()

	usedIDs := make(map[string]bool, count)
	usedNames := make(map[string]bool, count)
	out := make([]*Instrument, 0, count)
	for i := 0; i < count; i++ {
		id := drawSymbol(rng, usedIDs)
		name := drawName(rng, usedNames)
		tags := drawTags(rng, catalog)
		arch := SampleArchetype(rng)
		low, high := arch.JitteredRange(rng)
		initial := arch.InitialPrice(rng)

		inst := &Instrument{
			ID:           id,
			DisplayName:  name,
			Tags:         tags,
			Archetype:    arch,
			RTLow:        low,
			RTHigh:       high,
			InitialPrice: initial,
		}
		inst.LowerBand, inst.UpperBand = bandsFor(initial)
		out = append(out, inst)
	}
	return out
}

// PickSessionInstruments deterministically shuffles the candidates and takes
// a subset. Returned instruments still have empty series.
func PickSessionInstruments(candidates []*Instrument, count int, seed int64) []*Instrument {
	rng := NewStream(StreamSeed(seed, "session-pick"))
	shuffled := make([]*Instrument, len(candidates))
	copy(shuffled, candidates)
	// Fisher-Yates with the session stream
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// bandsFor computes the fixed price band from an initial price, kept inside
// the global feasibility bounds.
func bandsFor(initial int64) (lower, upper int64) {
	lower = int64(math.Round(float64(initial) * lowerBandMult))
	upper = int64(math.Round(float64(initial) * upperBandMult))
	if lower < GlobalMinPrice {
		lower = GlobalMinPrice
	}
	if upper > GlobalMaxPrice {
		upper = GlobalMaxPrice
	}
	return lower, upper
}

func drawSymbol(rng *Stream, used map[string]bool) string {
	for {
		buf := make([]byte, 6)
		for i := range buf {
			buf[i] = symbolLetters[rng.Intn(len(symbolLetters))]
		}
		id := string(buf)
		if !used[id] {
			used[id] = true
			return id
		}
	}
}

func drawName(rng *Stream, used map[string]bool) string {
	for {
		name := namePrefixes[rng.Intn(len(namePrefixes))] + " " + nameSuffixes[rng.Intn(len(nameSuffixes))]
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

func drawTags(rng *Stream, catalog []Sector) []Sector {
	n := rng.IntRange(minTagsPerInstrument, maxTagsPerInstrument)
	picked := make([]Sector, 0, n)
	taken := make(map[int]bool, n)
	for len(picked) < n {
		idx := rng.Intn(len(catalog))
		if taken[idx] {
			continue
		}
		taken[idx] = true
		picked = append(picked, catalog[idx])
	}
	return picked
}
