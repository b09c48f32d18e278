package portfolio

import "time"

// PortfolioRisk is the aggregate risk view recomputed from the live
// strategies. Per-strategy metrics are relaxed atomics, so the aggregate
// is eventually consistent with individual fills rather than linearizable.
type PortfolioRisk struct {
	GrossExposure    float64
	NetExposure      float64
	RealizedPnL      float64
	UnrealizedPnL    float64
	ActiveStrategies int
	OpenPositions    int

	// EmergencyStop is sticky: once true it stays true until external,
	// manual intervention resets the whole manager.
	EmergencyStop bool
}

// TotalPnL returns realized plus unrealized PnL.
func (r *PortfolioRisk) TotalPnL() float64 {
	return r.RealizedPnL + r.UnrealizedPnL
}

// StrategyPerformance is one strategy's line in a portfolio summary.
type StrategyPerformance struct {
	StrategyID    uint32
	Name          string
	State         string
	Enabled       bool
	Allocation    float64
	DailyPnL      float64
	RealizedPnL   float64
	UnrealizedPnL float64
	MaxDrawdown   float64
	SharpeRatio   float64
	WinRate       float64
	SignalsToday  uint64
	Signals       uint64
	Orders        uint64
}

// PortfolioSummary is a read-only snapshot of aggregate performance plus
// the best and worst performing strategies by today's PnL.
type PortfolioSummary struct {
	Timestamp     time.Time
	TotalCapital  float64
	Risk          PortfolioRisk
	MaxDrawdown   float64
	Strategies    []StrategyPerformance
	BestStrategy  string
	WorstStrategy string
}
