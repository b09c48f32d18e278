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
	defaultLookback       = 20
	defaultEntryZ         = 2.0
	defaultExitZ          = 0.5
	defaultBandWidth      = 2.0
	defaultBaseQuantity   = 10.0
	defaultMaxHoldSeconds = 300
	zFlagClearLevel       = 1.0
	zStopOffset           = 1.0
	stopLossStdevMultiple = 3.0
	kalmanProcessVariance = 1e-5
	autocorrEntryGate     = -0.1
)

// mrSymbolState is the per-symbol statistical state of the mean reverter.
type mrSymbolState struct {
	stats   *indicators.RollingWindow // lookback prices for mean/stdev/bands
	raw     *indicators.RollingWindow // raw price buffer, 2x lookback
	returns *indicators.RollingWindow // simple returns for the autocorr gate
	kalman  *indicators.KalmanFilter

	lastPrice  float64
	oversold   bool // armed once z < -entry, cleared when |z| < 1
	overbought bool // armed once z > +entry, cleared when |z| < 1
	entryZ     float64
	entryTime  time.Time
	holding    bool
}

// PairsSnapshot is the read-only view of the pairs-trading spread analytics.
// The spread statistics are tracked but never emitted as signals.
type PairsSnapshot struct {
	SymbolA    uint32
	SymbolB    uint32
	HedgeRatio float64
	Spread     float64
	Mean       float64
	StdDev     float64
	ZScore     float64
	Samples    int
}

// MeanReversionStrategy trades deviations from a rolling (optionally
// Kalman-filtered) mean, confirmed by Bollinger bands and gated on the
// series actually exhibiting reverting behavior.
type MeanReversionStrategy struct {
	*BaseStrategy

	lookback     int
	entryZ       float64
	exitZ        float64
	bandWidth    float64
	baseQuantity float64
	maxHold      time.Duration
	useKalman    bool
	tickSize     float64

	pairsEnabled bool
	pairSymbolA  uint32
	pairSymbolB  uint32
	hedgeRatio   float64

	stateMu     sync.Mutex
	symbols     map[uint32]*mrSymbolState
	pairSpread  *indicators.RollingWindow
	pairLastA   float64
	pairLastB   float64
	pairCurrent float64
}

// NewMeanReversionStrategy creates a mean reversion strategy from a config.
func NewMeanReversionStrategy(cfg *Config) *MeanReversionStrategy {
	s := &MeanReversionStrategy{
		BaseStrategy: NewBaseStrategy(cfg),
		symbols:      make(map[uint32]*mrSymbolState),
	}
	s.bindHooks(s)
	return s
}

// Initialize parses the strategy's whitelisted parameters.
func (s *MeanReversionStrategy) Initialize() error {
	p := s.Params()
	s.lookback = p.Int("lookback", defaultLookback)
	if s.lookback < 2 {
		s.lookback = defaultLookback
	}
	s.entryZ = p.Float("entry_threshold", defaultEntryZ)
	s.exitZ = p.Float("exit_threshold", defaultExitZ)
	s.bandWidth = p.Float("band_width", defaultBandWidth)
	s.baseQuantity = p.Float("base_quantity", defaultBaseQuantity)
	s.maxHold = time.Duration(p.Int("max_hold_seconds", defaultMaxHoldSeconds)) * time.Second
	s.useKalman = p.Bool("use_kalman", false)
	s.tickSize = p.Float("tick_size", defaultTickSize)
	if s.tickSize <= 0 {
		s.tickSize = defaultTickSize
	}

	s.pairsEnabled = p.Bool("pairs_enabled", false)
	s.pairSymbolA = uint32(p.Int("pair_symbol_a", 0))
	s.pairSymbolB = uint32(p.Int("pair_symbol_b", 0))
	s.hedgeRatio = p.Float("hedge_ratio", 1.0)
	if s.pairsEnabled {
		s.pairSpread = indicators.NewRollingWindow(s.lookback * 2)
	}
	return nil
}

// Shutdown flushes any open position with an urgent exit signal.
func (s *MeanReversionStrategy) Shutdown() error {
	now := time.Now()
	for _, pos := range s.Positions() {
		s.emitExit(pos.SymbolID, pos.Quantity, s.lastKnownPrice(pos.SymbolID), now, types.UrgencyImmediate)
	}
	return nil
}

// OnMarketData folds the tick into the rolling statistics and evaluates
// entry or exit conditions for the symbol.
func (s *MeanReversionStrategy) OnMarketData(event *types.MarketDataEvent) {
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
	if st.lastPrice > 0 && price != st.lastPrice {
		st.returns.Push(price/st.lastPrice - 1)
	}
	st.lastPrice = price
	st.stats.Push(price)
	st.raw.Push(price)

	ready := st.stats.Full()
	mean := st.stats.Mean()
	stdev := st.stats.StdDev()
	if s.useKalman {
		mean = st.kalman.Update(price, stdev*stdev)
	}
	s.stateMu.Unlock()

	s.updatePairSpread(event.SymbolID, price)

	if !ready || stdev == 0 {
		return
	}
	z := (price - mean) / stdev
	upper := mean + s.bandWidth*stdev
	lower := mean - s.bandWidth*stdev

	pos := s.GetPosition(event.SymbolID)
	if pos.Quantity != 0 {
		s.evaluateExit(event.SymbolID, st, pos, price, z, stdev, event.Timestamp)
		return
	}
	s.evaluateEntry(event.SymbolID, st, price, z, upper, lower, event.Timestamp)
}

// evaluateEntry fires an entry once |z| exceeds the threshold with band
// confirmation and the corresponding flag is not already armed. Flags
// implement hysteresis: they clear only once |z| drops back under 1.
func (s *MeanReversionStrategy) evaluateEntry(symbolID uint32, st *mrSymbolState, price, z, upper, lower float64, now time.Time) {
	s.stateMu.Lock()
	if math.Abs(z) < zFlagClearLevel {
		st.oversold = false
		st.overbought = false
	}
	oversoldArmed := st.oversold
	overboughtArmed := st.overbought
	s.stateMu.Unlock()

	if !s.ShouldTrade(symbolID, -z) || !s.CheckRiskLimits() {
		return
	}

	switch {
	case z < -s.entryZ && price < lower && !oversoldArmed:
		qty := s.CalculatePositionSize(symbolID, price)
		s.EmitSignal(&types.TradingSignal{
			Timestamp:  now,
			SymbolID:   symbolID,
			Strength:   clamp01(math.Abs(z) / 3),
			Confidence: clamp01(math.Abs(z) / (s.entryZ * 1.5)),
			Quantity:   qty,
			PriceTicks: price / s.tickSize,
			Urgency:    types.UrgencyNormal,
			Type:       types.SignalEntry,
		})
		s.stateMu.Lock()
		st.oversold = true
		st.entryZ = z
		st.entryTime = now
		st.holding = true
		s.stateMu.Unlock()
	case z > s.entryZ && price > upper && !overboughtArmed:
		qty := s.CalculatePositionSize(symbolID, price)
		s.EmitSignal(&types.TradingSignal{
			Timestamp:  now,
			SymbolID:   symbolID,
			Strength:   -clamp01(math.Abs(z) / 3),
			Confidence: clamp01(math.Abs(z) / (s.entryZ * 1.5)),
			Quantity:   qty,
			PriceTicks: price / s.tickSize,
			Urgency:    types.UrgencyNormal,
			Type:       types.SignalEntry,
		})
		s.stateMu.Lock()
		st.overbought = true
		st.entryZ = z
		st.entryTime = now
		st.holding = true
		s.stateMu.Unlock()
	}
}

// evaluateExit checks exit conditions on every price update, in priority
// order: reversion, z-stop, stdev stop-loss, max hold time.
func (s *MeanReversionStrategy) evaluateExit(symbolID uint32, st *mrSymbolState, pos types.Position, price, z, stdev float64, now time.Time) {
	s.stateMu.Lock()
	entryZ := st.entryZ
	entryTime := st.entryTime
	s.stateMu.Unlock()

	exit := false
	urgency := types.UrgencyNormal

	switch {
	case math.Abs(z) <= s.exitZ:
		// Reverted to the mean: take profit.
		exit = true
	case entryZ < 0 && z < entryZ-zStopOffset,
		entryZ > 0 && z > entryZ+zStopOffset:
		// Deviation worsened past the entry z by a full unit: stop out.
		exit = true
		urgency = types.UrgencyHigh
	case s.adverseMove(pos, price) > stopLossStdevMultiple*stdev:
		exit = true
		urgency = types.UrgencyHigh
	case s.maxHold > 0 && !entryTime.IsZero() && now.Sub(entryTime) > s.maxHold:
		exit = true
	}

	if exit {
		s.emitExit(symbolID, pos.Quantity, price, now, urgency)
		s.stateMu.Lock()
		st.holding = false
		s.stateMu.Unlock()
	}
}

// OnOrderFill books the fill into the position.
func (s *MeanReversionStrategy) OnOrderFill(fill *types.OrderFill) {
	if !s.TradesSymbol(fill.SymbolID) {
		return
	}
	s.ApplyFill(fill.SymbolID, fill.SignedQuantity(), fill.Price)
	s.Metrics().IncOrders()
	monitoring.RecordFill(s.Name(), fill.Side.String())
}

// OnTick enforces the max hold time even when the market goes quiet.
func (s *MeanReversionStrategy) OnTick(now time.Time) {
	if !s.IsRunning() || s.maxHold <= 0 {
		return
	}
	for _, pos := range s.Positions() {
		s.stateMu.Lock()
		st := s.symbolState(pos.SymbolID)
		expired := !st.entryTime.IsZero() && now.Sub(st.entryTime) > s.maxHold
		price := st.lastPrice
		s.stateMu.Unlock()
		if expired {
			s.emitExit(pos.SymbolID, pos.Quantity, price, now, types.UrgencyNormal)
		}
	}
}

// ShouldTrade gates entries on the series actually mean-reverting: the
// 1-lag return autocorrelation must be below -0.1.
func (s *MeanReversionStrategy) ShouldTrade(symbolID uint32, strength float64) bool {
	s.stateMu.Lock()
	st := s.symbolState(symbolID)
	ac := st.returns.Autocorrelation(1)
	enough := st.returns.Len() >= s.lookback
	s.stateMu.Unlock()
	return enough && ac < autocorrEntryGate
}

// CalculatePositionSize scales the base quantity by the risk multiplier.
func (s *MeanReversionStrategy) CalculatePositionSize(symbolID uint32, price float64) float64 {
	qty := s.baseQuantity
	if m := s.Config().RiskMultiplier; m > 0 {
		qty *= m
	}
	return qty
}

// Pairs returns the current pairs-trading spread analytics, and false when
// the sub-feature is disabled. The spread is analytics only; it never feeds
// the signal queue.
func (s *MeanReversionStrategy) Pairs() (PairsSnapshot, bool) {
	if !s.pairsEnabled {
		return PairsSnapshot{}, false
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	snap := PairsSnapshot{
		SymbolA:    s.pairSymbolA,
		SymbolB:    s.pairSymbolB,
		HedgeRatio: s.hedgeRatio,
		Spread:     s.pairCurrent,
		Mean:       s.pairSpread.Mean(),
		StdDev:     s.pairSpread.StdDev(),
		Samples:    s.pairSpread.Len(),
	}
	snap.ZScore = s.pairSpread.ZScore(s.pairCurrent)
	return snap, true
}

func (s *MeanReversionStrategy) updatePairSpread(symbolID uint32, price float64) {
	if !s.pairsEnabled {
		return
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	switch symbolID {
	case s.pairSymbolA:
		s.pairLastA = price
	case s.pairSymbolB:
		s.pairLastB = price
	default:
		return
	}
	if s.pairLastA > 0 && s.pairLastB > 0 {
		s.pairCurrent = s.pairLastA - s.hedgeRatio*s.pairLastB
		s.pairSpread.Push(s.pairCurrent)
	}
}

func (s *MeanReversionStrategy) emitExit(symbolID uint32, positionQty, price float64, now time.Time, urgency types.Urgency) {
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

// adverseMove returns how far the price has moved against the position, in
// price terms, or 0 when the position is in profit.
func (s *MeanReversionStrategy) adverseMove(pos types.Position, price float64) float64 {
	if pos.AvgPrice <= 0 {
		return 0
	}
	move := price - pos.AvgPrice
	if pos.Quantity > 0 && move < 0 {
		return -move
	}
	if pos.Quantity < 0 && move > 0 {
		return move
	}
	return 0
}

func (s *MeanReversionStrategy) lastKnownPrice(symbolID uint32) float64 {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if st, ok := s.symbols[symbolID]; ok {
		return st.lastPrice
	}
	return 0
}

// symbolState returns (creating if needed) the per-symbol state. Callers
// hold stateMu.
func (s *MeanReversionStrategy) symbolState(symbolID uint32) *mrSymbolState {
	st, ok := s.symbols[symbolID]
	if !ok {
		st = &mrSymbolState{
			stats:   indicators.NewRollingWindow(s.lookback),
			raw:     indicators.NewRollingWindow(s.lookback * 2),
			returns: indicators.NewRollingWindow(s.lookback),
			kalman:  indicators.NewKalmanFilter(kalmanProcessVariance),
		}
		s.symbols[symbolID] = st
	}
	return st
}
