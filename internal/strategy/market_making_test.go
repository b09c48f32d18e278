package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/tradecore/pkg/types"
)

func newTestMarketMaker(t *testing.T, params ...string) *MarketMakingStrategy {
	t.Helper()
	s := NewMarketMakingStrategy(&Config{
		Name:    "market_making",
		ID:      1,
		Enabled: true,
		Params:  params,
	})
	require.NoError(t, s.Start())
	return s
}

func bookEvent(symbolID uint32, side types.Side, price float64, at time.Time) *types.MarketDataEvent {
	return &types.MarketDataEvent{
		SymbolID:  symbolID,
		Price:     price,
		Quantity:  50,
		Side:      side,
		Timestamp: at,
	}
}

func TestMarketMaking_QuotesCentersOnCapturedSpread(t *testing.T) {
	s := newTestMarketMaker(t, "tick_size=0.005", "capture_ratio=0.5", "quote_size=10")
	now := time.Now()

	s.OnMarketData(bookEvent(1, types.SideBid, 100.00, now))
	s.OnMarketData(bookEvent(1, types.SideAsk, 100.10, now))

	// Half the 0.10 spread captured around the 100.05 mid, rounded to tick:
	// bid 100.025, ask 100.075.
	bidSig, ok := s.GetSignal()
	require.True(t, ok)
	assert.Equal(t, types.SignalEntry, bidSig.Type)
	assert.Greater(t, bidSig.Strength, 0.0)
	assert.InDelta(t, 100.025, bidSig.PriceTicks*0.005, 1e-9)
	assert.InDelta(t, 10.0, bidSig.Quantity, 1e-9)

	askSig, ok := s.GetSignal()
	require.True(t, ok)
	assert.Less(t, askSig.Strength, 0.0)
	assert.InDelta(t, 100.075, askSig.PriceTicks*0.005, 1e-9)

	bid, ask, quoting := s.ActiveQuotes(1)
	assert.True(t, quoting)
	assert.LessOrEqual(t, bid.Price, ask.Price)
}

func TestMarketMaking_InventorySkewsQuotesDown(t *testing.T) {
	s := newTestMarketMaker(t, "tick_size=0.005", "capture_ratio=0.5", "quote_size=10", "max_inventory=100")
	now := time.Now()

	// Long inventory pushes both quotes down to favor unloading.
	s.ApplyFill(1, 85, 100.05)
	s.OnMarketData(bookEvent(1, types.SideBid, 100.00, now))
	s.OnMarketData(bookEvent(1, types.SideAsk, 100.10, now))

	bid, ask, quoting := s.ActiveQuotes(1)
	require.True(t, quoting)
	assert.Less(t, bid.Price, 100.025)
	assert.Less(t, ask.Price, 100.075)
	assert.LessOrEqual(t, bid.Price, ask.Price)

	// Bid size halves once inventory exceeds 80% of the cap.
	assert.InDelta(t, bid.Size*2, ask.Size, 1e-9)
}

func TestMarketMaking_InventoryCapBlocksOneSide(t *testing.T) {
	s := newTestMarketMaker(t, "quote_size=10", "max_inventory=50")
	s.ApplyFill(1, 45, 100)

	assert.False(t, s.ShouldTrade(1, 1))
	assert.True(t, s.ShouldTrade(1, -1))
}

func TestMarketMaking_QuoteSizeShrinksWithInventory(t *testing.T) {
	s := newTestMarketMaker(t, "quote_size=10", "max_inventory=100")

	assert.InDelta(t, 10.0, s.CalculatePositionSize(1, 100), 1e-9)

	s.ApplyFill(1, 50, 100)
	assert.InDelta(t, 5.0, s.CalculatePositionSize(1, 100), 1e-9)

	// The size factor floors at 10% of the base quote size.
	s.ApplyFill(1, 48, 100)
	assert.InDelta(t, 1.0, s.CalculatePositionSize(1, 100), 1e-9)
}

func TestMarketMaking_AdverseSelectionHaltsQuoting(t *testing.T) {
	s := newTestMarketMaker(t)

	// Saturate the fill/quote ratio window above the adverse threshold.
	s.stateMu.Lock()
	st := s.symbolState(1)
	for i := 0; i < volReturnWindowMin; i++ {
		st.adverse.Push(1)
	}
	s.stateMu.Unlock()

	assert.False(t, s.ShouldTrade(1, 1))
	assert.False(t, s.ShouldTrade(1, -1))
}

func TestMarketMaking_ShutdownCancelsRestingQuotes(t *testing.T) {
	s := newTestMarketMaker(t, "quote_size=10")
	now := time.Now()

	s.OnMarketData(bookEvent(1, types.SideBid, 100.00, now))
	s.OnMarketData(bookEvent(1, types.SideAsk, 100.10, now))
	for s.HasSignal() {
		s.GetSignal()
	}

	require.NoError(t, s.Stop())

	var cancels int
	for {
		sig, ok := s.GetSignal()
		if !ok {
			break
		}
		assert.Equal(t, types.SignalExit, sig.Type)
		assert.Equal(t, types.UrgencyImmediate, sig.Urgency)
		cancels++
	}
	assert.Equal(t, 2, cancels)

	_, _, quoting := s.ActiveQuotes(1)
	assert.False(t, quoting)
}

func TestMarketMaking_FillTriggersRequote(t *testing.T) {
	s := newTestMarketMaker(t, "quote_size=10")
	now := time.Now()

	s.OnMarketData(bookEvent(1, types.SideBid, 100.00, now))
	s.OnMarketData(bookEvent(1, types.SideAsk, 100.10, now))
	for s.HasSignal() {
		s.GetSignal()
	}

	s.OnOrderFill(&types.OrderFill{
		OrderID:    "F-1",
		StrategyID: 1,
		SymbolID:   1,
		Price:      100.02,
		Quantity:   10,
		Side:       types.SideBid,
		Timestamp:  now.Add(10 * time.Millisecond),
	})

	// The fill books the position and immediately refreshes the quote.
	assert.Equal(t, 10.0, s.GetPosition(1).Quantity)
	assert.True(t, s.HasSignal())
	assert.Equal(t, uint64(1), s.Metrics().OrdersExecuted())
}

func TestMarketMaking_IgnoresEventsWhenNotRunning(t *testing.T) {
	s := NewMarketMakingStrategy(&Config{Name: "market_making", ID: 1})
	now := time.Now()

	s.OnMarketData(bookEvent(1, types.SideBid, 100.00, now))
	s.OnMarketData(bookEvent(1, types.SideAsk, 100.10, now))

	assert.False(t, s.HasSignal())
}
