package strategy

import (
	"sync"
	"time"

	"github.com/quantlab/tradecore/internal/monitoring"
	"github.com/quantlab/tradecore/pkg/types"
)

// variantHooks are the per-variant lifecycle callbacks driven by the shared
// state machine.
type variantHooks interface {
	Initialize() error
	Shutdown() error
}

// BaseStrategy implements the parts of the Strategy contract that are
// identical across variants: the lifecycle state machine, the FIFO signal
// queue, the position book, parameter parsing, and metrics. Variants embed
// it and bind their lifecycle hooks at construction.
type BaseStrategy struct {
	cfg     *Config
	params  Parameters
	metrics Metrics
	hooks   variantHooks

	mu        sync.Mutex
	state     State
	signals   []*types.TradingSignal
	positions map[uint32]*types.Position
	tickers   map[uint32]*types.Ticker
	symbols   map[uint32]bool
}

// NewBaseStrategy creates the shared strategy core for a config.
func NewBaseStrategy(cfg *Config) *BaseStrategy {
	symbols := make(map[uint32]bool, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols[s] = true
	}
	return &BaseStrategy{
		cfg:       cfg,
		params:    ParseParams(cfg.Params),
		state:     StateStopped,
		positions: make(map[uint32]*types.Position),
		tickers:   make(map[uint32]*types.Ticker),
		symbols:   symbols,
	}
}

// bindHooks wires the embedding variant's lifecycle callbacks. Must be
// called exactly once, from the variant constructor.
func (b *BaseStrategy) bindHooks(h variantHooks) {
	b.hooks = h
}

// Name returns the configured strategy name.
func (b *BaseStrategy) Name() string { return b.cfg.Name }

// ID returns the numeric strategy id.
func (b *BaseStrategy) ID() uint32 { return b.cfg.ID }

// Config returns the immutable construction-time configuration.
func (b *BaseStrategy) Config() *Config { return b.cfg }

// Metrics returns the lock-free metrics block.
func (b *BaseStrategy) Metrics() *Metrics { return &b.metrics }

// Params returns the parsed parameter table.
func (b *BaseStrategy) Params() Parameters { return b.params }

// TradesSymbol reports whether the strategy is configured for the symbol. An
// empty symbol set means all symbols.
func (b *BaseStrategy) TradesSymbol(symbolID uint32) bool {
	if len(b.symbols) == 0 {
		return true
	}
	return b.symbols[symbolID]
}

// State returns the current lifecycle state.
func (b *BaseStrategy) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start transitions Stopped -> Running, invoking the variant's Initialize.
// A failed Initialize leaves the strategy in StateError. No-op from any
// other state. Lifecycle calls are serialized by the owning manager, so the
// hook runs outside the strategy mutex.
func (b *BaseStrategy) Start() error {
	b.mu.Lock()
	if b.state != StateStopped {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.hooks.Initialize(); err != nil {
		b.mu.Lock()
		b.state = StateError
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	b.state = StateRunning
	b.mu.Unlock()
	return nil
}

// Stop transitions Running/Paused/Error -> Stopped, invoking the variant's
// Shutdown first so outstanding state (resting quotes, hold timers) is
// flushed before the transition completes. The hook runs before the state
// changes so cancel signals it emits still land in the queue. No-op when
// already stopped.
func (b *BaseStrategy) Stop() error {
	b.mu.Lock()
	if b.state == StateStopped {
		b.mu.Unlock()
		return nil
	}
	if b.state == StatePaused {
		// Let the shutdown hook emit flush signals.
		b.state = StateRunning
	}
	b.mu.Unlock()

	err := b.hooks.Shutdown()

	b.mu.Lock()
	b.state = StateStopped
	b.mu.Unlock()
	return err
}

// Pause transitions Running -> Paused. No-op from any other state.
func (b *BaseStrategy) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRunning {
		b.state = StatePaused
	}
}

// Resume transitions Paused -> Running. No-op from any other state.
func (b *BaseStrategy) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePaused {
		b.state = StateRunning
	}
}

// IsRunning reports whether the strategy is in the Running state.
func (b *BaseStrategy) IsRunning() bool {
	return b.State() == StateRunning
}

// EmitSignal appends a signal to the FIFO queue. Signals emitted while not
// running are discarded.
func (b *BaseStrategy) EmitSignal(sig *types.TradingSignal) {
	b.mu.Lock()
	if b.state != StateRunning {
		b.mu.Unlock()
		return
	}
	sig.StrategyID = b.cfg.ID
	b.signals = append(b.signals, sig)
	b.mu.Unlock()

	b.metrics.IncSignals()
	monitoring.RecordSignal(b.cfg.Name, sig.Type.String())
}

// HasSignal reports whether the signal queue is non-empty.
func (b *BaseStrategy) HasSignal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.signals) > 0
}

// GetSignal pops the oldest pending signal, preserving FIFO order relative
// to creation.
func (b *BaseStrategy) GetSignal() (*types.TradingSignal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.signals) == 0 {
		return nil, false
	}
	sig := b.signals[0]
	b.signals = b.signals[1:]
	return sig, true
}

// ClearSignals discards all pending signals.
func (b *BaseStrategy) ClearSignals() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signals = nil
}

// ApplyTicker folds a market data event into the strategy's per-symbol view
// and marks the symbol's position to the new mid/last price.
func (b *BaseStrategy) ApplyTicker(event *types.MarketDataEvent) *types.Ticker {
	b.mu.Lock()
	defer b.mu.Unlock()

	tk, ok := b.tickers[event.SymbolID]
	if !ok {
		tk = &types.Ticker{SymbolID: event.SymbolID}
		b.tickers[event.SymbolID] = tk
	}
	tk.Apply(event)

	if pos, ok := b.positions[event.SymbolID]; ok {
		mark := tk.Mid()
		if mark == 0 {
			mark = tk.LastPrice
		}
		if mark > 0 {
			pos.MarkToMarket(mark)
		}
	}
	return tk
}

// Ticker returns the current market view for a symbol, or nil if none has
// been seen yet.
func (b *BaseStrategy) Ticker(symbolID uint32) *types.Ticker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tickers[symbolID]
}

// UpdatePosition applies a signed fill to the symbol's position.
func (b *BaseStrategy) UpdatePosition(symbolID uint32, quantity, price float64) {
	b.ApplyFill(symbolID, quantity, price)
}

// ApplyFill applies a signed fill quantity at the given price, realizing PnL
// on any reduction, and returns the realized delta. A position that flattens
// or flips counts as one closed trade.
func (b *BaseStrategy) ApplyFill(symbolID uint32, quantity, price float64) float64 {
	b.mu.Lock()

	pos, ok := b.positions[symbolID]
	if !ok {
		pos = &types.Position{SymbolID: symbolID}
		b.positions[symbolID] = pos
	}

	realized := 0.0
	closedTrade := false
	switch {
	case pos.Quantity == 0 || (pos.Quantity > 0) == (quantity > 0):
		// Opening or adding: volume-weighted average entry.
		total := pos.Quantity + quantity
		if total != 0 {
			pos.AvgPrice = (pos.AvgPrice*pos.Quantity + price*quantity) / total
		}
		pos.Quantity = total
	default:
		// Reducing, flattening, or flipping.
		closing := quantity
		if absFloat(quantity) > absFloat(pos.Quantity) {
			closing = -pos.Quantity
		}
		realized = (price - pos.AvgPrice) * -closing
		pos.Quantity += quantity
		if pos.Quantity == 0 {
			pos.AvgPrice = 0
			closedTrade = true
		} else if (pos.Quantity > 0) != (closing < 0) {
			// Flipped through zero: remainder opens at the fill price.
			pos.AvgPrice = price
			closedTrade = true
		}
	}
	pos.MarkToMarket(price)
	pos.UpdatedAt = time.Now()
	b.mu.Unlock()

	if realized != 0 || closedTrade {
		b.metrics.AddRealizedPnL(realized)
	}
	if closedTrade {
		b.metrics.RecordTradeResult(realized)
	}
	return realized
}

// GetPosition returns a copy of the symbol's position.
func (b *BaseStrategy) GetPosition(symbolID uint32) types.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos, ok := b.positions[symbolID]; ok {
		return *pos
	}
	return types.Position{SymbolID: symbolID}
}

// Positions returns a snapshot copy of all non-flat positions.
func (b *BaseStrategy) Positions() []types.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		if pos.Quantity != 0 {
			out = append(out, *pos)
		}
	}
	return out
}

// GetUnrealizedPnL sums unrealized PnL across all open positions and
// refreshes the metrics reading.
func (b *BaseStrategy) GetUnrealizedPnL() float64 {
	b.mu.Lock()
	total := 0.0
	for _, pos := range b.positions {
		total += pos.UnrealizedPnL
	}
	b.mu.Unlock()

	b.metrics.SetUnrealizedPnL(total)
	return total
}

// GrossExposure returns the sum of absolute position notionals.
func (b *BaseStrategy) GrossExposure() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0.0
	for _, pos := range b.positions {
		total += absFloat(pos.Quantity) * pos.AvgPrice
	}
	return total
}

// CheckRiskLimits is the default risk gate: aggregate exposure within the
// configured max position size and realized PnL above the daily loss limit.
// Variants layer their own conditions on top.
func (b *BaseStrategy) CheckRiskLimits() bool {
	if b.cfg.MaxPositionSize > 0 && b.GrossExposure() > b.cfg.MaxPositionSize {
		return false
	}
	if b.cfg.MaxDailyLoss > 0 && b.metrics.RealizedPnL() < -b.cfg.MaxDailyLoss {
		return false
	}
	return true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
