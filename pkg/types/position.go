package types

import "time"

// Position is a strategy's running signed holding in one symbol. Positions
// are owned exclusively by the strategy that trades the symbol; two
// strategies on the same symbol keep independent, non-netted views.
type Position struct {
	SymbolID      uint32
	Quantity      float64 // signed: positive long, negative short
	AvgPrice      float64
	UnrealizedPnL float64
	UpdatedAt     time.Time
}

// MarkToMarket recomputes unrealized PnL against the given price.
func (p *Position) MarkToMarket(price float64) {
	if p.Quantity == 0 || p.AvgPrice <= 0 {
		p.UnrealizedPnL = 0
		return
	}
	p.UnrealizedPnL = (price - p.AvgPrice) * p.Quantity
}

// OrderFill is the execution collaborator's notification that part of a
// strategy's order traded. Fills are routed back to the owning strategy by
// StrategyID.
type OrderFill struct {
	OrderID    string
	StrategyID uint32
	SymbolID   uint32
	Price      float64
	Quantity   float64
	Side       Side // SideBid = bought, SideAsk = sold
	Timestamp  time.Time
}

// SignedQuantity returns the fill quantity with buy positive, sell negative.
func (f *OrderFill) SignedQuantity() float64 {
	if f.Side == SideAsk {
		return -f.Quantity
	}
	return f.Quantity
}
