package market

import (
	"errors"
	"log/slog"

	"simarket/internal/ledger"
)

const (
	HoursPerDay     = 24
	BaseHorizonDays = 30

	// DefaultSessionInstruments is how many candidates a session trades.
	DefaultSessionInstruments = 24
)

var (
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)

// EffectMode controls how daily sector effects are folded into the hourly
// update.
type EffectMode string

const (
	// EffectModeHourly applies the day's effect on every hourly update.
	EffectModeHourly EffectMode = "hourly"
	// EffectModeDailyOnce applies the pure rt update each hour and folds the
	// full-day effect in once, at the hour that crosses into a new day.
	EffectModeDailyOnce EffectMode = "daily-once"
)

// ParseEffectMode normalizes a configured mode, defaulting to hourly.
func ParseEffectMode(s string) EffectMode {
	if EffectMode(s) == EffectModeDailyOnce {
		return EffectModeDailyOnce
	}
	return EffectModeHourly
}

// Engine owns one session: the selected instruments, the daily-effects table,
// one persistent random stream per instrument, and the current hour. It is a
// single logical writer; callers must serialize AdvanceTo against queries.
type Engine struct {
	seed    int64
	mode    EffectMode
	insts   []*Instrument
	byID    map[string]*Instrument
	effects *DailyEffects
	streams map[string]*Stream
	book    *ledger.Book
	hour    int
	log     *slog.Logger
}

// NewEngine builds a session deterministically from the seed and pre-generates
// every series for the base horizon.
func NewEngine(seed int64, instrumentCount int, mode EffectMode, book *ledger.Book, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if instrumentCount <= 0 {
		instrumentCount = DefaultSessionInstruments
	}
	candidates := GenerateCandidates(seed, DefaultCandidateCount)
	picked := PickSessionInstruments(candidates, instrumentCount, seed)

	e := &Engine{
		seed:    seed,
		mode:    mode,
		insts:   picked,
		byID:    make(map[string]*Instrument, len(picked)),
		effects: GenerateDailyEffects(seed),
		streams: make(map[string]*Stream, len(picked)),
		book:    book,
		log:     logger,
	}
	horizon := BaseHorizonDays*HoursPerDay - 1
	for _, in := range picked {
		e.byID[in.ID] = in
		e.streams[in.ID] = NewStream(StreamSeed(seed, in.ID))
		in.Series = append(in.Series, in.InitialPrice)
		e.extendInstrument(in, horizon)
	}
	logger.Info("session initialized",
		"seed", seed,
		"instruments", len(picked),
		"effect_mode", string(mode),
		"horizon_hours", horizon+1)
	return e
}

// extendInstrument appends hourly prices up to and including hour, drawing
// from the instrument's persistent stream. The same loop serves both the
// initial horizon and lazy extension, so the stream continues seamlessly.
func (e *Engine) extendInstrument(in *Instrument, hour int) {
	rng := e.streams[in.ID]
	for h := len(in.Series); h <= hour; h++ {
		day := h/HoursPerDay + 1
		rt := DrawFactor(rng, in.RTLow, in.RTHigh)
		prev := in.Series[h-1]

		var next int64
		if e.mode == EffectModeDailyOnce {
			sd := 0.0
			if h%HoursPerDay == 0 {
				sd = SectorSum(e.effects.ForDay(day), in.Tags)
			}
			next = NextPrice(prev, rt, sd, in.LowerBand, in.UpperBand, stagnationEpsDaily)
		} else {
			sd := SectorSum(e.effects.ForDay(day), in.Tags)
			next = NextPrice(prev, rt, sd, in.LowerBand, in.UpperBand, stagnationEpsHourly)
		}
		in.Series = append(in.Series, next)
	}
}

// AdvanceTo extends every series lazily up to hour and moves the clock. The
// clock never rewinds; an hour at or before the current one is a no-op.
func (e *Engine) AdvanceTo(hour int) {
	if hour <= e.hour {
		return
	}
	for _, in := range e.insts {
		e.extendInstrument(in, hour)
	}
	e.hour = hour
}

// CurrentHour returns the absolute hour of the last completed advancement.
func (e *Engine) CurrentHour() int { return e.hour }

// CurrentDay returns the 1-based day index of the current hour.
func (e *Engine) CurrentDay() int { return e.hour/HoursPerDay + 1 }

// Seed returns the session seed.
func (e *Engine) Seed() int64 { return e.seed }

// Instruments returns the session population in selection order.
func (e *Engine) Instruments() []*Instrument { return e.insts }

// Instrument resolves an id; ok is false for unknown ids.
func (e *Engine) Instrument(id string) (*Instrument, bool) {
	in, ok := e.byID[id]
	return in, ok
}

// Effects returns the session's immutable daily-effects table.
func (e *Engine) Effects() *DailyEffects { return e.effects }

// Book returns the holding ledger.
func (e *Engine) Book() *ledger.Book { return e.book }

// Price returns the instrument's price at the clamped current hour.
func (e *Engine) Price(id string) (int64, bool) {
	in, ok := e.byID[id]
	if !ok {
		return 0, false
	}
	return in.PriceAt(e.hour)
}

// Buy checks the caller-supplied balance covers qty at the current price and
// records the position. The engine never owns currency; the trade's CashDelta
// is the adjustment the caller must apply to its own balance.
func (e *Engine) Buy(id string, qty, externalBalance int64) (ledger.Trade, error) {
	in, ok := e.byID[id]
	if !ok {
		return ledger.Trade{}, ErrInstrumentNotFound
	}
	if qty <= 0 {
		return ledger.Trade{}, ledger.ErrInvalidQuantity
	}
	price, _ := in.PriceAt(e.hour)
	cost, err := ledger.Notional(qty, price)
	if err != nil {
		return ledger.Trade{}, err
	}
	if cost > externalBalance {
		return ledger.Trade{}, ErrInsufficientFunds
	}
	return e.book.RecordBuy(e.hour, id, qty, price)
}

// Sell reduces a held position at the current price and reports proceeds.
func (e *Engine) Sell(id string, qty int64) (ledger.Trade, error) {
	in, ok := e.byID[id]
	if !ok {
		return ledger.Trade{}, ErrInstrumentNotFound
	}
	price, _ := in.PriceAt(e.hour)
	return e.book.RecordSell(e.hour, id, qty, price)
}

// ExportSnapshot is the serialized boundary for non-core tooling: the daily
// effect cycle and each instrument's tags.
type ExportSnapshot struct {
	Seed        int64                      `json:"seed"`
	CycleDays   int                        `json:"cycle_days"`
	Effects     map[int]map[Sector]float64 `json:"effects"`
	Instruments map[string][]Sector        `json:"instruments"`
}

// Export builds the snapshot fresh on every call.
func (e *Engine) Export() ExportSnapshot {
	days := e.effects.Snapshot()
	eff := make(map[int]map[Sector]float64, len(days))
	for i, entry := range days {
		eff[i+1] = entry
	}
	tags := make(map[string][]Sector, len(e.insts))
	for _, in := range e.insts {
		tags[in.ID] = append([]Sector(nil), in.Tags...)
	}
	return ExportSnapshot{
		Seed:        e.seed,
		CycleDays:   e.effects.CycleLength(),
		Effects:     eff,
		Instruments: tags,
	}
}
