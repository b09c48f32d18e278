package strategy

import (
	"math"
	"sync"
	"time"

	"github.com/quantlab/tradecore/internal/indicators"
	"github.com/quantlab/tradecore/internal/monitoring"
	"github.com/quantlab/tradecore/pkg/types"
)

const (
	defaultFastPeriod      = 10
	defaultSlowPeriod      = 30
	defaultMomentumPeriod  = 14
	defaultMomentumGate    = 0.003
	defaultVolumeSurgeMult = 2.0
	defaultVolumeMAPeriod  = 20
	defaultMaxVWAPDistance = 0.02
	defaultATRPeriod       = 14
	defaultATRBarTicks     = 10
	defaultATRStopMult     = 2.0
	defaultRewardRatio     = 2.0
	defaultRiskBudget      = 1000.0
	defaultMaxQuantity     = 100.0
	maxConsecutiveLosses   = 3
)

// Trend classifies the prevailing direction of a symbol.
type Trend int

const (
	TrendNone Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "UP"
	case TrendDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// moSymbolState is the per-symbol state of the momentum strategy.
type moSymbolState struct {
	fast     *indicators.SMA
	slow     *indicators.SMA
	prices   *indicators.RollingWindow // momentum lookback
	volumeMA *indicators.SMA
	vwap     *indicators.VWAP
	atr      *indicators.ATR

	prevFast    float64
	prevSlow    float64
	lastVolume  float64
	lastPrice   float64
	volumeSurge bool

	// open trade management
	stopLevel    float64
	stopDistance float64
	takeProfit   float64
	entrySide    float64 // +1 long, -1 short, 0 flat

	lossStreak int
}

// MomentumStrategy trades moving-average crossovers confirmed by momentum,
// volume surge and VWAP-distance filters, with ATR-based sizing and a
// ratcheting trailing stop. Three consecutive losing trades on a symbol
// lock out new entries until a win resets the counter.
type MomentumStrategy struct {
	*BaseStrategy

	fastPeriod      int
	slowPeriod      int
	momentumPeriod  int
	momentumGate    float64
	volumeSurgeMult float64
	maxVWAPDistance float64
	atrStopMult     float64
	rewardRatio     float64
	riskBudget      float64
	maxQuantity     float64
	tickSize        float64

	stateMu sync.Mutex
	symbols map[uint32]*moSymbolState
}

// NewMomentumStrategy creates a momentum strategy from a config.
func NewMomentumStrategy(cfg *Config) *MomentumStrategy {
	s := &MomentumStrategy{
		BaseStrategy: NewBaseStrategy(cfg),
		symbols:      make(map[uint32]*moSymbolState),
	}
	s.bindHooks(s)
	return s
}

// Initialize parses the strategy's whitelisted parameters.
func (s *MomentumStrategy) Initialize() error {
	p := s.Params()
	s.fastPeriod = p.Int("fast_period", defaultFastPeriod)
	s.slowPeriod = p.Int("slow_period", defaultSlowPeriod)
	s.momentumPeriod = p.Int("momentum_period", defaultMomentumPeriod)
	s.momentumGate = p.Float("momentum_threshold", defaultMomentumGate)
	s.volumeSurgeMult = p.Float("volume_surge_multiplier", defaultVolumeSurgeMult)
	s.maxVWAPDistance = p.Float("max_vwap_distance", defaultMaxVWAPDistance)
	s.atrStopMult = p.Float("atr_stop_multiplier", defaultATRStopMult)
	s.rewardRatio = p.Float("reward_ratio", defaultRewardRatio)
	s.riskBudget = p.Float("risk_budget", defaultRiskBudget)
	s.maxQuantity = p.Float("max_quantity", defaultMaxQuantity)
	s.tickSize = p.Float("tick_size", defaultTickSize)
	if s.tickSize <= 0 {
		s.tickSize = defaultTickSize
	}
	if s.fastPeriod >= s.slowPeriod {
		s.fastPeriod = defaultFastPeriod
		s.slowPeriod = defaultSlowPeriod
	}
	return nil
}

// Shutdown flushes any open position with an urgent exit signal.
func (s *MomentumStrategy) Shutdown() error {
	now := time.Now()
	for _, pos := range s.Positions() {
		s.stateMu.Lock()
		price := s.symbolState(pos.SymbolID).lastPrice
		s.stateMu.Unlock()
		s.emitExit(pos.SymbolID, pos.Quantity, price, now, types.UrgencyImmediate)
	}
	return nil
}

// OnMarketData folds the tick into the moving averages and evaluates entry
// or exit conditions.
func (s *MomentumStrategy) OnMarketData(event *types.MarketDataEvent) {
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

	st.prevFast = st.fast.Value()
	st.prevSlow = st.slow.Value()
	fast := st.fast.Update(price)
	slow := st.slow.Update(price)
	st.prices.Push(price)
	st.atr.Update(price)
	st.lastPrice = price

	if event.Side == types.SideTrade && event.Quantity > 0 {
		volMA := st.volumeMA.Update(event.Quantity)
		st.vwap.Update(event.Price, event.Quantity)
		st.lastVolume = event.Quantity
		st.volumeSurge = st.volumeMA.Ready() && event.Quantity > s.volumeSurgeMult*volMA
	}

	ready := st.slow.Ready() && st.prices.Full() && st.atr.Ready()
	momentum := s.momentum(st)
	atr := st.atr.Value()
	vwap := st.vwap.Value()
	volumeSurge := st.volumeSurge
	prevFast, prevSlow := st.prevFast, st.prevSlow
	side := st.entrySide
	s.stateMu.Unlock()

	if !ready {
		return
	}

	pos := s.GetPosition(event.SymbolID)
	if pos.Quantity != 0 && side != 0 {
		s.evaluateExit(event.SymbolID, st, pos, price, momentum, event.Timestamp)
		return
	}

	s.evaluateEntry(event.SymbolID, st, entryInputs{
		price:       price,
		fast:        fast,
		slow:        slow,
		prevFast:    prevFast,
		prevSlow:    prevSlow,
		momentum:    momentum,
		atr:         atr,
		vwap:        vwap,
		volumeSurge: volumeSurge,
	}, event.Timestamp)
}

type entryInputs struct {
	price       float64
	fast        float64
	slow        float64
	prevFast    float64
	prevSlow    float64
	momentum    float64
	atr         float64
	vwap        float64
	volumeSurge bool
}

// evaluateEntry fires an entry on an MA crossover, or on a retracement into
// the fast-MA/ATR band while the trend stays aligned.
func (s *MomentumStrategy) evaluateEntry(symbolID uint32, st *moSymbolState, in entryInputs, now time.Time) {
	trend := s.classifyTrend(in.fast, in.slow, in.momentum)

	goldenCross := in.prevFast > 0 && in.prevFast <= in.prevSlow && in.fast > in.slow
	deathCross := in.prevFast > 0 && in.prevFast >= in.prevSlow && in.fast < in.slow
	retracement := in.atr > 0 && math.Abs(in.price-in.fast) <= in.atr

	direction := 0.0
	switch {
	case goldenCross && in.momentum > s.momentumGate:
		direction = 1
	case deathCross && in.momentum < -s.momentumGate:
		direction = -1
	case trend == TrendUp && retracement:
		direction = 1
	case trend == TrendDown && retracement:
		direction = -1
	default:
		return
	}

	if !in.volumeSurge {
		return
	}
	if in.vwap > 0 && math.Abs(in.price-in.vwap)/in.vwap > s.maxVWAPDistance {
		return
	}
	if !s.ShouldTrade(symbolID, direction) || !s.CheckRiskLimits() {
		return
	}

	qty := s.CalculatePositionSize(symbolID, in.price)
	if qty <= 0 {
		return
	}

	stopDistance := in.atr * s.atrStopMult
	s.stateMu.Lock()
	st.entrySide = direction
	st.stopDistance = stopDistance
	st.stopLevel = in.price - direction*stopDistance
	st.takeProfit = in.price + direction*stopDistance*s.rewardRatio
	s.stateMu.Unlock()

	s.EmitSignal(&types.TradingSignal{
		Timestamp:  now,
		SymbolID:   symbolID,
		Strength:   direction * clamp01(math.Abs(in.momentum)/(s.momentumGate*3)),
		Confidence: clamp01(math.Abs(in.momentum) / (s.momentumGate * 2)),
		Quantity:   qty,
		PriceTicks: in.price / s.tickSize,
		Urgency:    types.UrgencyNormal,
		Type:       types.SignalEntry,
	})
}

// evaluateExit manages the open trade: a trailing stop that only ratchets
// favorably, a fixed take-profit, and momentum exhaustion.
func (s *MomentumStrategy) evaluateExit(symbolID uint32, st *moSymbolState, pos types.Position, price, momentum float64, now time.Time) {
	s.stateMu.Lock()
	side := st.entrySide
	// Ratchet the trailing stop in the favorable direction only.
	if side > 0 {
		if level := price - st.stopDistance; level > st.stopLevel {
			st.stopLevel = level
		}
	} else if side < 0 {
		if level := price + st.stopDistance; level < st.stopLevel {
			st.stopLevel = level
		}
	}
	stop := st.stopLevel
	takeProfit := st.takeProfit
	s.stateMu.Unlock()

	exit := false
	urgency := types.UrgencyNormal
	switch {
	case side > 0 && price <= stop, side < 0 && price >= stop:
		exit = true
		urgency = types.UrgencyHigh
	case side > 0 && price >= takeProfit, side < 0 && price <= takeProfit:
		exit = true
	case momentum*side < 0:
		// Momentum flipped against the position.
		exit = true
	case math.Abs(momentum) < s.momentumGate/2:
		// Trend strength has decayed below half the entry gate.
		exit = true
	}

	if exit {
		s.emitExit(symbolID, pos.Quantity, price, now, urgency)
		s.stateMu.Lock()
		st.entrySide = 0
		s.stateMu.Unlock()
	}
}

// OnOrderFill books the fill and maintains the per-symbol loss streak.
func (s *MomentumStrategy) OnOrderFill(fill *types.OrderFill) {
	if !s.TradesSymbol(fill.SymbolID) {
		return
	}
	realized := s.ApplyFill(fill.SymbolID, fill.SignedQuantity(), fill.Price)
	s.Metrics().IncOrders()
	monitoring.RecordFill(s.Name(), fill.Side.String())

	if s.GetPosition(fill.SymbolID).Quantity == 0 {
		s.stateMu.Lock()
		st := s.symbolState(fill.SymbolID)
		if realized < 0 {
			st.lossStreak++
		} else {
			st.lossStreak = 0
		}
		st.entrySide = 0
		s.stateMu.Unlock()
	}
}

// OnTick is a no-op; all momentum exits are price driven.
func (s *MomentumStrategy) OnTick(now time.Time) {}

// ShouldTrade blocks new entries on a symbol after three consecutive losing
// trades, until a subsequent win resets the counter.
func (s *MomentumStrategy) ShouldTrade(symbolID uint32, strength float64) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.symbolState(symbolID).lossStreak < maxConsecutiveLosses
}

// CalculatePositionSize allocates a fixed fractional risk budget per unit of
// ATR stop distance, capped at the configured maximum.
func (s *MomentumStrategy) CalculatePositionSize(symbolID uint32, price float64) float64 {
	s.stateMu.Lock()
	atr := s.symbolState(symbolID).atr.Value()
	s.stateMu.Unlock()
	if atr <= 0 {
		return 0
	}
	qty := s.riskBudget / (atr * s.atrStopMult)
	if m := s.Config().RiskMultiplier; m > 0 {
		qty *= m
	}
	if qty > s.maxQuantity {
		qty = s.maxQuantity
	}
	return qty
}

// LossStreak returns the consecutive-loss counter for a symbol.
func (s *MomentumStrategy) LossStreak(symbolID uint32) int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.symbolState(symbolID).lossStreak
}

// classifyTrend labels the prevailing direction, gated on momentum
// exceeding the configured threshold.
func (s *MomentumStrategy) classifyTrend(fast, slow, momentum float64) Trend {
	switch {
	case fast > slow && momentum > s.momentumGate:
		return TrendUp
	case fast < slow && momentum < -s.momentumGate:
		return TrendDown
	default:
		return TrendNone
	}
}

// momentum returns the percent price change over the momentum period.
// Callers hold stateMu.
func (s *MomentumStrategy) momentum(st *moSymbolState) float64 {
	if st.prices.Len() < 2 {
		return 0
	}
	oldest := st.prices.At(0)
	if oldest <= 0 {
		return 0
	}
	return st.prices.Last()/oldest - 1
}

func (s *MomentumStrategy) emitExit(symbolID uint32, positionQty, price float64, now time.Time, urgency types.Urgency) {
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
		Urgency:    urgency,
		Type:       types.SignalExit,
	})
}

// symbolState returns (creating if needed) the per-symbol state. Callers
// hold stateMu.
func (s *MomentumStrategy) symbolState(symbolID uint32) *moSymbolState {
	st, ok := s.symbols[symbolID]
	if !ok {
		st = &moSymbolState{
			fast:     indicators.NewSMA(s.fastPeriod),
			slow:     indicators.NewSMA(s.slowPeriod),
			prices:   indicators.NewRollingWindow(s.momentumPeriod + 1),
			volumeMA: indicators.NewSMA(defaultVolumeMAPeriod),
			vwap:     indicators.NewVWAP(defaultVolumeMAPeriod),
			atr:      indicators.NewATR(defaultATRPeriod, defaultATRBarTicks),
		}
		s.symbols[symbolID] = st
	}
	return st
}
