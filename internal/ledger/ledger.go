package ledger

import (
	"errors"
	"math/big"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrInsufficientShares = errors.New("insufficient shares held")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrNotionalOverflow   = errors.New("notional exceeds representable range")
)

// Notional multiplies quantity by unit price through big.Int so an
// adversarial quantity cannot wrap int64 past a balance check.
func Notional(qty, unitPrice int64) (int64, error) {
	v := new(big.Int).Mul(big.NewInt(qty), big.NewInt(unitPrice))
	if !v.IsInt64() {
		return 0, ErrNotionalOverflow
	}
	return v.Int64(), nil
}

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Trade is an immutable ledger entry. CashDelta is negative for buys and
// positive for sells, expressed in minor units against the caller's balance.
type Trade struct {
	ID           string    `json:"id"`
	Hour         int       `json:"hour"`
	InstrumentID string    `json:"instrument_id"`
	Direction    Direction `json:"direction"`
	Quantity     int64     `json:"quantity"`
	UnitPrice    int64     `json:"unit_price"`
	CashDelta    int64     `json:"cash_delta"`
}

// Holding is a per-instrument position with a running average cost per unit.
type Holding struct {
	InstrumentID string `json:"instrument_id"`
	Quantity     int64  `json:"quantity"`
	AvgCost      int64  `json:"avg_cost"`
}

// Book owns holdings and trade history. It is separate from price simulation
// and mutated only through RecordBuy/RecordSell.
type Book struct {
	holdings map[string]*Holding
	trades   []Trade
}

func NewBook() *Book {
	return &Book{holdings: make(map[string]*Holding)}
}

// Quantity returns the held quantity for an instrument, zero when none.
func (b *Book) Quantity(instrumentID string) int64 {
	h, ok := b.holdings[instrumentID]
	if !ok {
		return 0
	}
	return h.Quantity
}

// RecordBuy applies a fill and folds the price into the running average cost.
func (b *Book) RecordBuy(hour int, instrumentID string, qty, unitPrice int64) (Trade, error) {
	if qty <= 0 {
		return Trade{}, ErrInvalidQuantity
	}
	cost, err := Notional(qty, unitPrice)
	if err != nil {
		return Trade{}, err
	}
	h, ok := b.holdings[instrumentID]
	var heldQty, heldAvg int64
	if ok {
		heldQty, heldAvg = h.Quantity, h.AvgCost
	}
	newQty := heldQty + qty
	if newQty < heldQty {
		return Trade{}, ErrNotionalOverflow
	}
	weighted := new(big.Int).Mul(big.NewInt(heldQty), big.NewInt(heldAvg))
	weighted.Add(weighted, big.NewInt(cost))
	weighted.Add(weighted, big.NewInt(newQty/2))
	if !ok {
		h = &Holding{InstrumentID: instrumentID}
		b.holdings[instrumentID] = h
	}
	h.AvgCost = new(big.Int).Quo(weighted, big.NewInt(newQty)).Int64()
	h.Quantity = newQty

	t := Trade{
		ID:           uuid.NewString(),
		Hour:         hour,
		InstrumentID: instrumentID,
		Direction:    Buy,
		Quantity:     qty,
		UnitPrice:    unitPrice,
		CashDelta:    -cost,
	}
	b.trades = append(b.trades, t)
	return t, nil
}

// RecordSell reduces a position; the average cost is left untouched so the
// remaining lot keeps its basis. Positions that reach zero are removed.
func (b *Book) RecordSell(hour int, instrumentID string, qty, unitPrice int64) (Trade, error) {
	if qty <= 0 {
		return Trade{}, ErrInvalidQuantity
	}
	h, ok := b.holdings[instrumentID]
	if !ok || h.Quantity < qty {
		return Trade{}, ErrInsufficientShares
	}
	proceeds, err := Notional(qty, unitPrice)
	if err != nil {
		return Trade{}, err
	}
	h.Quantity -= qty
	if h.Quantity == 0 {
		delete(b.holdings, instrumentID)
	}

	t := Trade{
		ID:           uuid.NewString(),
		Hour:         hour,
		InstrumentID: instrumentID,
		Direction:    Sell,
		Quantity:     qty,
		UnitPrice:    unitPrice,
		CashDelta:    proceeds,
	}
	b.trades = append(b.trades, t)
	return t, nil
}

// Holdings returns positions sorted by instrument id.
func (b *Book) Holdings() []Holding {
	out := make([]Holding, 0, len(b.holdings))
	for _, h := range b.holdings {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out
}

// Trades returns the full trade history in record order.
func (b *Book) Trades() []Trade {
	out := make([]Trade, len(b.trades))
	copy(out, b.trades)
	return out
}
