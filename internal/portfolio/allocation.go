package portfolio

import (
	"time"

	"github.com/quantlab/tradecore/internal/indicators"
	"github.com/quantlab/tradecore/internal/strategy"
)

const (
	defaultStrategyDrawdown  = 0.03 // fraction of the capital allocation
	defaultDailyLossFraction = 0.01 // of the capital allocation
	returnSampleWindow       = 64
)

// DisableReason labels why an allocation was automatically disabled.
type DisableReason string

const (
	ReasonDailyLoss     DisableReason = "daily_loss"
	ReasonDrawdown      DisableReason = "drawdown"
	ReasonSignalFlood   DisableReason = "signal_flood"
	ReasonEmergencyStop DisableReason = "emergency_stop"
	ReasonAdmin         DisableReason = "admin"
)

// StrategyAllocation pairs one strategy instance with its capital and risk
// accounting. The allocation exclusively owns its strategy; no mutable
// strategy reference crosses allocation boundaries. All fields are guarded
// by the manager's mutex except what the strategy keeps in its own atomics.
type StrategyAllocation struct {
	Strategy strategy.Strategy

	CapitalAllocation float64
	MaxDrawdown       float64 // fraction of allocation, default 3%
	DailyLossLimit    float64 // absolute, default 1% of allocation
	Enabled           bool
	SignalsToday      uint64
	LastSignalTime    time.Time

	// dailyBaseline is the strategy's realized PnL at the start of the
	// current trading day; today's PnL is measured against it.
	dailyBaseline float64
	// peakPnL is the running high-water mark of total (realized +
	// unrealized) PnL, for the per-strategy drawdown limit.
	peakPnL float64
	// returnSamples holds daily-return observations gathered by the
	// rebalancing pass; it feeds the Sharpe estimate.
	returnSamples *indicators.RollingWindow
	disableReason DisableReason
}

func newAllocation(s strategy.Strategy, capital float64) *StrategyAllocation {
	return &StrategyAllocation{
		Strategy:          s,
		CapitalAllocation: capital,
		MaxDrawdown:       defaultStrategyDrawdown,
		DailyLossLimit:    capital * defaultDailyLossFraction,
		Enabled:           true,
		returnSamples:     indicators.NewRollingWindow(returnSampleWindow),
	}
}

// DailyPnL returns today's realized PnL for the strategy.
func (a *StrategyAllocation) DailyPnL() float64 {
	return a.Strategy.Metrics().RealizedPnL() - a.dailyBaseline
}

// DailyReturn returns today's PnL as a fraction of the capital allocation.
func (a *StrategyAllocation) DailyReturn() float64 {
	if a.CapitalAllocation <= 0 {
		return 0
	}
	return a.DailyPnL() / a.CapitalAllocation
}

// TotalPnL returns realized plus latest unrealized PnL.
func (a *StrategyAllocation) TotalPnL() float64 {
	m := a.Strategy.Metrics()
	return m.RealizedPnL() + m.UnrealizedPnL()
}

// Drawdown returns the fractional decline from the PnL high-water mark,
// relative to the capital allocation.
func (a *StrategyAllocation) Drawdown() float64 {
	if a.CapitalAllocation <= 0 {
		return 0
	}
	dd := (a.peakPnL - a.TotalPnL()) / a.CapitalAllocation
	if dd < 0 {
		return 0
	}
	return dd
}

// updatePeak advances the PnL high-water mark and refreshes the strategy's
// drawdown metric.
func (a *StrategyAllocation) updatePeak() {
	total := a.TotalPnL()
	if total > a.peakPnL {
		a.peakPnL = total
	}
	a.Strategy.Metrics().SetMaxDrawdown(a.Drawdown())
}

// sampleReturn records today's return and refreshes the Sharpe estimate.
// Called by the rebalancing pass.
func (a *StrategyAllocation) sampleReturn() {
	a.returnSamples.Push(a.DailyReturn())
	if sd := a.returnSamples.StdDev(); sd > 0 {
		a.Strategy.Metrics().SetSharpeRatio(a.returnSamples.Mean() / sd)
	}
}

// rolloverDay resets the daily counters against the current realized PnL.
func (a *StrategyAllocation) rolloverDay() {
	a.dailyBaseline = a.Strategy.Metrics().RealizedPnL()
	a.SignalsToday = 0
}

// DisabledReason returns why the allocation was last automatically or
// administratively disabled.
func (a *StrategyAllocation) DisabledReason() DisableReason {
	return a.disableReason
}
