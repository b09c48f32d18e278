package strategy

import (
	"sync"
	"time"

	"github.com/quantlab/tradecore/internal/indicators"
	"github.com/quantlab/tradecore/internal/monitoring"
	"github.com/quantlab/tradecore/pkg/types"
)

const (
	defaultScalpWindowTicks   = 20
	defaultScalpMomentumGate  = 0.0005
	defaultVolumeRateGate     = 1.5
	defaultMinSpreadRatio     = 0.00005
	defaultMaxSpreadRatio     = 0.002
	defaultProfitTargetTicks  = 5.0
	defaultStopLossTicks      = 3.0
	defaultScalpHoldSeconds   = 30
	defaultScalpQuantity      = 10.0
	volumeRateSampleCount     = 5
	winRateLockoutMinTrades   = 20
	winRateLockoutThreshold   = 0.4
)

// scSymbolState is the per-symbol state of the scalper.
type scSymbolState struct {
	prices  *indicators.RollingWindow // short tick window for momentum + S/R
	volumes *indicators.RollingWindow

	entrySide  float64 // +1 long, -1 short, 0 flat
	entryPrice float64
	entryTime  time.Time
	lastPrice  float64
}

// ScalpingStrategy takes sub-30-second trades on short-window momentum and
// support/resistance breakouts, gated by a spread-to-price band and a
// volume-rate surge. Exits are always urgent: fixed tick profit target,
// fixed tick stop, or timeout.
type ScalpingStrategy struct {
	*BaseStrategy

	windowTicks    int
	momentumGate   float64
	volumeRateGate float64
	minSpreadRatio float64
	maxSpreadRatio float64
	profitTicks    float64
	stopTicks      float64
	maxHold        time.Duration
	quantity       float64
	tickSize       float64

	stateMu sync.Mutex
	symbols map[uint32]*scSymbolState
}

// NewScalpingStrategy creates a scalping strategy from a config.
func NewScalpingStrategy(cfg *Config) *ScalpingStrategy {
	s := &ScalpingStrategy{
		BaseStrategy: NewBaseStrategy(cfg),
		symbols:      make(map[uint32]*scSymbolState),
	}
	s.bindHooks(s)
	return s
}

// Initialize parses the strategy's whitelisted parameters.
func (s *ScalpingStrategy) Initialize() error {
	p := s.Params()
	s.windowTicks = p.Int("window_ticks", defaultScalpWindowTicks)
	if s.windowTicks < volumeRateSampleCount*2 {
		s.windowTicks = defaultScalpWindowTicks
	}
	s.momentumGate = p.Float("momentum_threshold", defaultScalpMomentumGate)
	s.volumeRateGate = p.Float("volume_rate_threshold", defaultVolumeRateGate)
	s.minSpreadRatio = p.Float("min_spread_ratio", defaultMinSpreadRatio)
	s.maxSpreadRatio = p.Float("max_spread_ratio", defaultMaxSpreadRatio)
	s.profitTicks = p.Float("profit_target_ticks", defaultProfitTargetTicks)
	s.stopTicks = p.Float("stop_loss_ticks", defaultStopLossTicks)
	s.maxHold = time.Duration(p.Int("max_hold_seconds", defaultScalpHoldSeconds)) * time.Second
	s.quantity = p.Float("quantity", defaultScalpQuantity)
	s.tickSize = p.Float("tick_size", defaultTickSize)
	if s.tickSize <= 0 {
		s.tickSize = defaultTickSize
	}
	return nil
}

// Shutdown flushes any open scalp with an urgent exit.
func (s *ScalpingStrategy) Shutdown() error {
	now := time.Now()
	for _, pos := range s.Positions() {
		s.stateMu.Lock()
		price := s.symbolState(pos.SymbolID).lastPrice
		s.stateMu.Unlock()
		s.emitExit(pos.SymbolID, pos.Quantity, price, now)
	}
	return nil
}

// OnMarketData folds the tick into the short window and evaluates the scalp
// entry and exit conditions.
func (s *ScalpingStrategy) OnMarketData(event *types.MarketDataEvent) {
	if !s.IsRunning() || !s.TradesSymbol(event.SymbolID) {
		return
	}
	tk := s.ApplyTicker(event)
	price := tk.Mid()
	if price == 0 {
		price = tk.LastPrice
	}
	if price <= 0 {
		return
	}

	s.stateMu.Lock()
	st := s.symbolState(event.SymbolID)
	prevHigh := st.prices.Max()
	prevLow := st.prices.Min()
	windowFull := st.prices.Full()
	st.prices.Push(price)
	if event.Side == types.SideTrade && event.Quantity > 0 {
		st.volumes.Push(event.Quantity)
	}
	st.lastPrice = price
	side := st.entrySide
	entryPrice := st.entryPrice
	s.stateMu.Unlock()

	if side != 0 {
		s.evaluateExit(event.SymbolID, st, side, entryPrice, price, event.Timestamp)
		return
	}
	if !windowFull {
		return
	}
	s.evaluateEntry(event.SymbolID, st, tk, price, prevHigh, prevLow, event.Timestamp)
}

// evaluateEntry fires a scalp when the spread gate, volume-rate surge,
// short momentum, and a breakout of the window's extremes line up.
func (s *ScalpingStrategy) evaluateEntry(symbolID uint32, st *scSymbolState, tk *types.Ticker, price, prevHigh, prevLow float64, now time.Time) {
	spread := tk.Spread()
	if spread <= 0 {
		return
	}
	spreadRatio := spread / price
	if spreadRatio < s.minSpreadRatio || spreadRatio > s.maxSpreadRatio {
		return
	}

	s.stateMu.Lock()
	momentum := 0.0
	if first := st.prices.At(0); first > 0 {
		momentum = price/first - 1
	}
	volumeRate := s.volumeRate(st)
	s.stateMu.Unlock()

	if volumeRate < s.volumeRateGate {
		return
	}

	direction := 0.0
	switch {
	case momentum > s.momentumGate && price > prevHigh:
		// Resistance breakout.
		direction = 1
	case momentum < -s.momentumGate && price < prevLow:
		// Support breakdown.
		direction = -1
	default:
		return
	}

	if !s.ShouldTrade(symbolID, direction) || !s.CheckRiskLimits() {
		return
	}

	s.stateMu.Lock()
	st.entrySide = direction
	st.entryPrice = price
	st.entryTime = now
	s.stateMu.Unlock()

	s.EmitSignal(&types.TradingSignal{
		Timestamp:  now,
		SymbolID:   symbolID,
		Strength:   direction * clamp01(absFloat(momentum)/(s.momentumGate*4)),
		Confidence: clamp01(volumeRate / (s.volumeRateGate * 2)),
		Quantity:   s.CalculatePositionSize(symbolID, price),
		PriceTicks: price / s.tickSize,
		Urgency:    types.UrgencyHigh,
		Type:       types.SignalEntry,
	})
}

// evaluateExit closes the scalp at the fixed tick profit target, the fixed
// tick stop, or the hold timeout. Scalp exits are always fill-guaranteed.
func (s *ScalpingStrategy) evaluateExit(symbolID uint32, st *scSymbolState, side, entryPrice, price float64, now time.Time) {
	moveTicks := (price - entryPrice) / s.tickSize * side

	s.stateMu.Lock()
	entryTime := st.entryTime
	s.stateMu.Unlock()

	exit := moveTicks >= s.profitTicks ||
		moveTicks <= -s.stopTicks ||
		(s.maxHold > 0 && !entryTime.IsZero() && now.Sub(entryTime) > s.maxHold)
	if !exit {
		return
	}

	pos := s.GetPosition(symbolID)
	if pos.Quantity != 0 {
		s.emitExit(symbolID, pos.Quantity, price, now)
	}
	s.stateMu.Lock()
	st.entrySide = 0
	s.stateMu.Unlock()
}

// OnOrderFill books the fill; closed trades feed the win/loss counters that
// drive the win-rate lockout.
func (s *ScalpingStrategy) OnOrderFill(fill *types.OrderFill) {
	if !s.TradesSymbol(fill.SymbolID) {
		return
	}
	s.ApplyFill(fill.SymbolID, fill.SignedQuantity(), fill.Price)
	s.Metrics().IncOrders()
	monitoring.RecordFill(s.Name(), fill.Side.String())

	if s.GetPosition(fill.SymbolID).Quantity == 0 {
		s.stateMu.Lock()
		s.symbolState(fill.SymbolID).entrySide = 0
		s.stateMu.Unlock()
	}
}

// OnTick enforces the hold timeout between ticks.
func (s *ScalpingStrategy) OnTick(now time.Time) {
	if !s.IsRunning() || s.maxHold <= 0 {
		return
	}
	for _, pos := range s.Positions() {
		s.stateMu.Lock()
		st := s.symbolState(pos.SymbolID)
		expired := st.entrySide != 0 && !st.entryTime.IsZero() && now.Sub(st.entryTime) > s.maxHold
		price := st.lastPrice
		s.stateMu.Unlock()
		if expired {
			s.emitExit(pos.SymbolID, pos.Quantity, price, now)
			s.stateMu.Lock()
			st.entrySide = 0
			s.stateMu.Unlock()
		}
	}
}

// ShouldTrade allows entries only while the strategy is flat on the symbol.
func (s *ScalpingStrategy) ShouldTrade(symbolID uint32, strength float64) bool {
	return s.GetPosition(symbolID).Quantity == 0
}

// CalculatePositionSize returns the fixed scalp quantity scaled by the risk
// multiplier.
func (s *ScalpingStrategy) CalculatePositionSize(symbolID uint32, price float64) float64 {
	qty := s.quantity
	if m := s.Config().RiskMultiplier; m > 0 {
		qty *= m
	}
	return qty
}

// CheckRiskLimits layers the win-rate lockout over the base limits: once 20
// or more trades have closed, a win rate under 40% disables further trading.
func (s *ScalpingStrategy) CheckRiskLimits() bool {
	if !s.BaseStrategy.CheckRiskLimits() {
		return false
	}
	m := s.Metrics()
	total := m.WinningTrades() + m.LosingTrades()
	if total >= winRateLockoutMinTrades && m.WinRate() < winRateLockoutThreshold {
		return false
	}
	return true
}

// volumeRate returns the ratio of the newest five volume samples to the
// oldest five in the window. Callers hold stateMu.
func (s *ScalpingStrategy) volumeRate(st *scSymbolState) float64 {
	n := st.volumes.Len()
	if n < volumeRateSampleCount*2 {
		return 0
	}
	oldest := st.volumes.SumRange(0, volumeRateSampleCount)
	newest := st.volumes.SumRange(n-volumeRateSampleCount, n)
	if oldest <= 0 {
		return 0
	}
	return newest / oldest
}

func (s *ScalpingStrategy) emitExit(symbolID uint32, positionQty, price float64, now time.Time) {
	if positionQty == 0 {
		return
	}
	strength := -1.0
	if positionQty < 0 {
		strength = 1.0
	}
	s.EmitSignal(&types.TradingSignal{
		Timestamp:  now,
		SymbolID:   symbolID,
		Strength:   strength,
		Confidence: 1,
		Quantity:   absFloat(positionQty),
		PriceTicks: price / s.tickSize,
		Urgency:    types.UrgencyImmediate,
		Type:       types.SignalExit,
	})
}

// symbolState returns (creating if needed) the per-symbol state. Callers
// hold stateMu.
func (s *ScalpingStrategy) symbolState(symbolID uint32) *scSymbolState {
	st, ok := s.symbols[symbolID]
	if !ok {
		st = &scSymbolState{
			prices:  indicators.NewRollingWindow(s.windowTicks),
			volumes: indicators.NewRollingWindow(s.windowTicks),
		}
		s.symbols[symbolID] = st
	}
	return st
}
