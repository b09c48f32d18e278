package strategy

import (
	"time"

	"github.com/quantlab/tradecore/pkg/types"
)

// Strategy is the contract shared by all strategy variants. A strategy is a
// per-symbol statistical engine: it consumes market data and fill
// notifications, and emits risk-gated trading signals into its own FIFO
// queue for the manager to drain.
type Strategy interface {
	// Initialize prepares variant state. Invoked by Start.
	Initialize() error

	// OnMarketData processes one market data tick for a symbol the strategy
	// trades. Only called while the strategy is running.
	OnMarketData(event *types.MarketDataEvent)

	// OnOrderFill processes an execution notification for one of this
	// strategy's orders.
	OnOrderFill(fill *types.OrderFill)

	// OnTick drives time-based behavior (quote refresh, hold timeouts).
	OnTick(now time.Time)

	// Shutdown flushes outstanding strategy-owned state (e.g. resting
	// quotes). Invoked by Stop before the state transition completes.
	Shutdown() error

	// Lifecycle controls. Transitions outside the valid source state are
	// no-ops (see State).
	Start() error
	Stop() error
	Pause()
	Resume()
	State() State

	// Signal queue. GetSignal drains in FIFO order relative to creation.
	HasSignal() bool
	GetSignal() (*types.TradingSignal, bool)
	ClearSignals()

	// Position book. Quantities are signed; fills add algebraically.
	UpdatePosition(symbolID uint32, quantity, price float64)
	GetPosition(symbolID uint32) types.Position
	Positions() []types.Position
	GetUnrealizedPnL() float64

	// Pre-signal risk gate. Rejections here are expected outcomes, not
	// errors.
	ShouldTrade(symbolID uint32, strength float64) bool
	CalculatePositionSize(symbolID uint32, price float64) float64
	CheckRiskLimits() bool

	Name() string
	ID() uint32
	Config() *Config
	Metrics() *Metrics
}
