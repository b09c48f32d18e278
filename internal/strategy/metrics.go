package strategy

import (
	"math"
	"sync/atomic"
)

// Metrics holds per-strategy performance counters. Every field is an
// independent atomic: the data path and the periodic recompute path write
// concurrently without sharing a lock, and readers (the monitoring loop,
// portfolio summaries) get relaxed, eventually consistent values. Do not add
// a mutex here; the manager relies on metrics reads never contending with
// the data path.
type Metrics struct {
	signalsGenerated atomic.Uint64
	ordersExecuted   atomic.Uint64
	winningTrades    atomic.Uint64
	losingTrades     atomic.Uint64

	realizedPnL   atomicFloat64
	unrealizedPnL atomicFloat64
	maxDrawdown   atomicFloat64
	sharpeRatio   atomicFloat64
	winRate       atomicFloat64
}

// atomicFloat64 is a float64 stored in an atomic.Uint64 via its bit pattern.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat64) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// IncSignals increments the generated-signal counter.
func (m *Metrics) IncSignals() {
	m.signalsGenerated.Add(1)
}

// IncOrders increments the executed-order counter.
func (m *Metrics) IncOrders() {
	m.ordersExecuted.Add(1)
}

// RecordTradeResult updates the win/loss counters and the derived win rate.
func (m *Metrics) RecordTradeResult(pnl float64) {
	if pnl >= 0 {
		m.winningTrades.Add(1)
	} else {
		m.losingTrades.Add(1)
	}
	wins := m.winningTrades.Load()
	total := wins + m.losingTrades.Load()
	if total > 0 {
		m.winRate.Store(float64(wins) / float64(total))
	}
}

// AddRealizedPnL adds to the realized PnL counter and returns the new total.
func (m *Metrics) AddRealizedPnL(delta float64) float64 {
	return m.realizedPnL.Add(delta)
}

// SetUnrealizedPnL replaces the unrealized PnL reading.
func (m *Metrics) SetUnrealizedPnL(v float64) {
	m.unrealizedPnL.Store(v)
}

// SetMaxDrawdown replaces the max drawdown reading.
func (m *Metrics) SetMaxDrawdown(v float64) {
	m.maxDrawdown.Store(v)
}

// SetSharpeRatio replaces the Sharpe ratio reading.
func (m *Metrics) SetSharpeRatio(v float64) {
	m.sharpeRatio.Store(v)
}

// SignalsGenerated returns the total number of signals generated.
func (m *Metrics) SignalsGenerated() uint64 { return m.signalsGenerated.Load() }

// OrdersExecuted returns the total number of fills processed.
func (m *Metrics) OrdersExecuted() uint64 { return m.ordersExecuted.Load() }

// WinningTrades returns the number of closed trades with non-negative PnL.
func (m *Metrics) WinningTrades() uint64 { return m.winningTrades.Load() }

// LosingTrades returns the number of closed trades with negative PnL.
func (m *Metrics) LosingTrades() uint64 { return m.losingTrades.Load() }

// RealizedPnL returns the cumulative realized PnL.
func (m *Metrics) RealizedPnL() float64 { return m.realizedPnL.Load() }

// UnrealizedPnL returns the latest unrealized PnL reading.
func (m *Metrics) UnrealizedPnL() float64 { return m.unrealizedPnL.Load() }

// MaxDrawdown returns the latest max drawdown reading.
func (m *Metrics) MaxDrawdown() float64 { return m.maxDrawdown.Load() }

// SharpeRatio returns the latest Sharpe ratio reading.
func (m *Metrics) SharpeRatio() float64 { return m.sharpeRatio.Load() }

// WinRate returns the fraction of closed trades that won.
func (m *Metrics) WinRate() float64 { return m.winRate.Load() }
