package types

import "time"

// Side identifies which side of the book (or tape) a market data event
// belongs to.
type Side int

const (
	SideBid Side = iota
	SideAsk
	SideTrade
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	case SideTrade:
		return "TRADE"
	default:
		return "UNKNOWN"
	}
}

// MarketDataEvent is a single tick delivered by the market data collaborator.
// Bid/Ask events refresh the top of book; Trade events carry executed volume.
// The wire format is owned by the distribution layer, not this core.
type MarketDataEvent struct {
	SymbolID  uint32
	Price     float64
	Quantity  float64
	Side      Side
	Timestamp time.Time
}

// Ticker is the latest aggregated market state a strategy keeps per symbol.
type Ticker struct {
	SymbolID  uint32
	BidPrice  float64
	AskPrice  float64
	LastPrice float64
	Volume    float64
	Timestamp time.Time
}

// Mid returns the midpoint of the current touch, or 0 if the book is not
// two-sided yet.
func (t *Ticker) Mid() float64 {
	if t.BidPrice <= 0 || t.AskPrice <= 0 {
		return 0
	}
	return (t.BidPrice + t.AskPrice) / 2
}

// Spread returns the current bid/ask spread, or 0 if the book is one-sided.
func (t *Ticker) Spread() float64 {
	if t.BidPrice <= 0 || t.AskPrice <= 0 {
		return 0
	}
	return t.AskPrice - t.BidPrice
}

// Apply folds a market data event into the ticker.
func (t *Ticker) Apply(event *MarketDataEvent) {
	t.SymbolID = event.SymbolID
	switch event.Side {
	case SideBid:
		t.BidPrice = event.Price
	case SideAsk:
		t.AskPrice = event.Price
	case SideTrade:
		t.LastPrice = event.Price
		t.Volume += event.Quantity
	}
	t.Timestamp = event.Timestamp
}
