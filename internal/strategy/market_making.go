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
	defaultCaptureRatio      = 0.5
	defaultVolAdjustment     = 1.0
	defaultSkewCoefficient   = 0.5
	defaultMaxInventory      = 100.0
	defaultQuoteIntervalMs   = 100
	defaultTickSize          = 0.01
	defaultQuoteSize         = 10.0
	defaultAdverseThreshold  = 0.6
	volReturnWindowCap       = 100
	volReturnWindowMin       = 20
	adverseSelectionWindow   = 100
	inventoryPressureFrac    = 0.8
	minQuoteSizeFactor       = 0.1
)

// Quote is one side of a resting two-sided market.
type Quote struct {
	Price float64
	Size  float64
}

// mmSymbolState is the per-symbol quoting state of the market maker.
type mmSymbolState struct {
	returns       *indicators.RollingWindow // log returns of the mid
	adverse       *indicators.RollingWindow // fills observed per quote refresh
	lastMid       float64
	bid           Quote
	ask           Quote
	quoting       bool
	lastQuoteTime time.Time
	fillsSince    float64
}

// MarketMakingStrategy maintains a two-sided quote per symbol, refreshed on
// a fixed interval or immediately after a fill. The quoted spread widens
// with realized volatility, quotes skew away from accumulated inventory, and
// quoted size shrinks as inventory approaches its cap.
type MarketMakingStrategy struct {
	*BaseStrategy

	captureRatio     float64
	volAdjustment    float64
	skewCoefficient  float64
	maxInventory     float64
	quoteInterval    time.Duration
	tickSize         float64
	quoteSize        float64
	adverseThreshold float64

	stateMu sync.Mutex
	symbols map[uint32]*mmSymbolState
}

// NewMarketMakingStrategy creates a market making strategy from a config.
func NewMarketMakingStrategy(cfg *Config) *MarketMakingStrategy {
	s := &MarketMakingStrategy{
		BaseStrategy: NewBaseStrategy(cfg),
		symbols:      make(map[uint32]*mmSymbolState),
	}
	s.bindHooks(s)
	return s
}

// Initialize parses the strategy's whitelisted parameters. Unknown keys in
// the parameter list are ignored.
func (s *MarketMakingStrategy) Initialize() error {
	p := s.Params()
	s.captureRatio = p.Float("capture_ratio", defaultCaptureRatio)
	s.volAdjustment = p.Float("vol_adjustment", defaultVolAdjustment)
	s.skewCoefficient = p.Float("skew_coefficient", defaultSkewCoefficient)
	s.maxInventory = p.Float("max_inventory", defaultMaxInventory)
	s.quoteInterval = time.Duration(p.Int("quote_interval_ms", defaultQuoteIntervalMs)) * time.Millisecond
	s.tickSize = p.Float("tick_size", defaultTickSize)
	s.quoteSize = p.Float("quote_size", defaultQuoteSize)
	s.adverseThreshold = p.Float("adverse_selection_threshold", defaultAdverseThreshold)

	if s.tickSize <= 0 {
		s.tickSize = defaultTickSize
	}
	if s.maxInventory <= 0 {
		s.maxInventory = defaultMaxInventory
	}
	return nil
}

// Shutdown cancels any resting quotes by emitting urgent exit signals for
// both sides before the strategy stops.
func (s *MarketMakingStrategy) Shutdown() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	now := time.Now()
	for symbolID, st := range s.symbols {
		if !st.quoting {
			continue
		}
		s.EmitSignal(&types.TradingSignal{
			Timestamp:  now,
			SymbolID:   symbolID,
			Strength:   -1,
			Confidence: 1,
			Quantity:   st.bid.Size,
			PriceTicks: st.bid.Price / s.tickSize,
			Urgency:    types.UrgencyImmediate,
			Type:       types.SignalExit,
		})
		s.EmitSignal(&types.TradingSignal{
			Timestamp:  now,
			SymbolID:   symbolID,
			Strength:   1,
			Confidence: 1,
			Quantity:   st.ask.Size,
			PriceTicks: st.ask.Price / s.tickSize,
			Urgency:    types.UrgencyImmediate,
			Type:       types.SignalExit,
		})
		st.quoting = false
	}
	return nil
}

// OnMarketData updates the per-symbol mid/volatility view and refreshes the
// quote if the refresh interval has elapsed.
func (s *MarketMakingStrategy) OnMarketData(event *types.MarketDataEvent) {
	if !s.IsRunning() || !s.TradesSymbol(event.SymbolID) {
		return
	}
	tk := s.ApplyTicker(event)

	s.stateMu.Lock()
	st := s.symbolState(event.SymbolID)
	if mid := tk.Mid(); mid > 0 {
		if st.lastMid > 0 && mid != st.lastMid {
			st.returns.Push(math.Log(mid / st.lastMid))
		}
		st.lastMid = mid
	}
	due := !st.lastQuoteTime.IsZero() && event.Timestamp.Sub(st.lastQuoteTime) >= s.quoteInterval
	first := st.lastQuoteTime.IsZero()
	s.stateMu.Unlock()

	if first || due {
		s.refreshQuotes(event.SymbolID, event.Timestamp)
	}
}

// OnOrderFill books the fill and immediately re-quotes the symbol.
func (s *MarketMakingStrategy) OnOrderFill(fill *types.OrderFill) {
	if !s.TradesSymbol(fill.SymbolID) {
		return
	}
	s.ApplyFill(fill.SymbolID, fill.SignedQuantity(), fill.Price)
	s.Metrics().IncOrders()
	monitoring.RecordFill(s.Name(), fill.Side.String())

	s.stateMu.Lock()
	st := s.symbolState(fill.SymbolID)
	st.fillsSince++
	s.stateMu.Unlock()

	if s.IsRunning() {
		s.refreshQuotes(fill.SymbolID, fill.Timestamp)
	}
}

// OnTick refreshes any quote older than the configured interval.
func (s *MarketMakingStrategy) OnTick(now time.Time) {
	if !s.IsRunning() {
		return
	}
	s.stateMu.Lock()
	var due []uint32
	for symbolID, st := range s.symbols {
		if st.lastQuoteTime.IsZero() || now.Sub(st.lastQuoteTime) >= s.quoteInterval {
			due = append(due, symbolID)
		}
	}
	s.stateMu.Unlock()

	for _, symbolID := range due {
		s.refreshQuotes(symbolID, now)
	}
}

// ShouldTrade refuses new quotes when the rolling fill/quote ratio signals
// adverse selection, or when the proposed side would breach max inventory.
func (s *MarketMakingStrategy) ShouldTrade(symbolID uint32, strength float64) bool {
	s.stateMu.Lock()
	st := s.symbolState(symbolID)
	adverse := st.adverse.Mean()
	samples := st.adverse.Len()
	s.stateMu.Unlock()

	if samples >= volReturnWindowMin && adverse > s.adverseThreshold {
		return false
	}

	inventory := s.GetPosition(symbolID).Quantity
	if strength > 0 && inventory+s.quoteSize > s.maxInventory {
		return false
	}
	if strength < 0 && inventory-s.quoteSize < -s.maxInventory {
		return false
	}
	return true
}

// CalculatePositionSize returns the quoted size for one side given current
// inventory pressure.
func (s *MarketMakingStrategy) CalculatePositionSize(symbolID uint32, price float64) float64 {
	inventory := s.GetPosition(symbolID).Quantity
	factor := 1.0 - absFloat(inventory)/s.maxInventory
	if factor < minQuoteSizeFactor {
		factor = minQuoteSizeFactor
	}
	return s.quoteSize * factor
}

// refreshQuotes recomputes and emits the two-sided quote for a symbol.
func (s *MarketMakingStrategy) refreshQuotes(symbolID uint32, now time.Time) {
	tk := s.Ticker(symbolID)
	if tk == nil {
		return
	}
	bid, ask := tk.BidPrice, tk.AskPrice
	if bid <= 0 || ask <= 0 || ask <= bid {
		return
	}

	mid := (bid + ask) / 2
	spread := ask - bid

	s.stateMu.Lock()
	st := s.symbolState(symbolID)
	st.adverse.Push(st.fillsSince)
	st.fillsSince = 0

	vol := 0.0
	if st.returns.Len() >= volReturnWindowMin {
		vol = st.returns.StdDev()
	}
	adverseMean := st.adverse.Mean()
	s.stateMu.Unlock()

	targetSpread := s.captureRatio*spread + vol*s.volAdjustment*spread
	inventory := s.GetPosition(symbolID).Quantity
	skew := (inventory / s.maxInventory) * s.skewCoefficient * spread

	quoteBid := s.floorTick(mid - targetSpread/2 - skew)
	quoteAsk := s.ceilTick(mid + targetSpread/2 - skew)
	if quoteAsk < quoteBid {
		quoteAsk = quoteBid
	}

	size := s.CalculatePositionSize(symbolID, mid)
	bidSize, askSize := size, size
	if inventory > inventoryPressureFrac*s.maxInventory {
		bidSize /= 2
	} else if inventory < -inventoryPressureFrac*s.maxInventory {
		askSize /= 2
	}

	if !s.CheckRiskLimits() {
		return
	}

	emitted := false
	if s.ShouldTrade(symbolID, 1) {
		s.EmitSignal(&types.TradingSignal{
			Timestamp:  now,
			SymbolID:   symbolID,
			Strength:   0.5,
			Confidence: 1 - clamp01(adverseMean),
			Quantity:   bidSize,
			PriceTicks: quoteBid / s.tickSize,
			Urgency:    types.UrgencyNormal,
			Type:       types.SignalEntry,
		})
		emitted = true
	}
	if s.ShouldTrade(symbolID, -1) {
		s.EmitSignal(&types.TradingSignal{
			Timestamp:  now,
			SymbolID:   symbolID,
			Strength:   -0.5,
			Confidence: 1 - clamp01(adverseMean),
			Quantity:   askSize,
			PriceTicks: quoteAsk / s.tickSize,
			Urgency:    types.UrgencyNormal,
			Type:       types.SignalEntry,
		})
		emitted = true
	}

	s.stateMu.Lock()
	st.bid = Quote{Price: quoteBid, Size: bidSize}
	st.ask = Quote{Price: quoteAsk, Size: askSize}
	st.quoting = emitted
	st.lastQuoteTime = now
	s.stateMu.Unlock()
}

// ActiveQuotes returns the current resting quote for a symbol and whether
// the strategy is quoting it.
func (s *MarketMakingStrategy) ActiveQuotes(symbolID uint32) (bid, ask Quote, quoting bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	st, ok := s.symbols[symbolID]
	if !ok {
		return Quote{}, Quote{}, false
	}
	return st.bid, st.ask, st.quoting
}

// symbolState returns (creating if needed) the per-symbol state. Callers
// hold stateMu.
func (s *MarketMakingStrategy) symbolState(symbolID uint32) *mmSymbolState {
	st, ok := s.symbols[symbolID]
	if !ok {
		st = &mmSymbolState{
			returns: indicators.NewRollingWindow(volReturnWindowCap),
			adverse: indicators.NewRollingWindow(adverseSelectionWindow),
		}
		s.symbols[symbolID] = st
	}
	return st
}

func (s *MarketMakingStrategy) floorTick(price float64) float64 {
	return math.Floor(price/s.tickSize+1e-9) * s.tickSize
}

func (s *MarketMakingStrategy) ceilTick(price float64) float64 {
	return math.Ceil(price/s.tickSize-1e-9) * s.tickSize
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
