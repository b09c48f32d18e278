package types

import "time"

// SignalType distinguishes position-opening from position-closing signals.
type SignalType int

const (
	SignalEntry SignalType = iota
	SignalExit
)

func (st SignalType) String() string {
	switch st {
	case SignalEntry:
		return "ENTRY"
	case SignalExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// Urgency is the execution budget a strategy attaches to a signal. Urgent
// signals expect fill-guaranteed handling from the execution collaborator.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyHigh
	UrgencyImmediate
)

// TradingSignal is a strategy's directional trade recommendation. Signals are
// ephemeral: they live from creation until the manager drains them in one
// collection cycle.
type TradingSignal struct {
	Timestamp  time.Time
	SymbolID   uint32
	StrategyID uint32
	Strength   float64 // signed: direction + magnitude
	Confidence float64 // [0, 1]
	Quantity   float64
	PriceTicks float64 // suggested price expressed in ticks
	Urgency    Urgency
	Type       SignalType
}

// IsBuy reports whether the signal recommends accumulating the symbol.
func (s *TradingSignal) IsBuy() bool {
	return s.Strength > 0
}
