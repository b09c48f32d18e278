package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/tradecore/pkg/types"
)

func newTestScalper(t *testing.T, params ...string) *ScalpingStrategy {
	t.Helper()
	s := NewScalpingStrategy(&Config{
		Name:    "scalping",
		ID:      4,
		Enabled: true,
		Params:  params,
	})
	require.NoError(t, s.Start())
	return s
}

// feedQuoteAndTrade refreshes the touch around base and prints a trade at
// the mid.
func feedQuoteAndTrade(s *ScalpingStrategy, symbolID uint32, base, volume float64, at time.Time) {
	s.OnMarketData(bookEvent(symbolID, types.SideBid, base-0.01, at))
	s.OnMarketData(bookEvent(symbolID, types.SideAsk, base+0.01, at))
	s.OnMarketData(volumeEvent(symbolID, base, volume, at))
}

// driveScalpBreakout warms up a flat tape, then walks the book upward on
// surging volume until the scalper fires. Returns the entry signal.
func driveScalpBreakout(t *testing.T, s *ScalpingStrategy, at time.Time) (*types.TradingSignal, time.Time) {
	t.Helper()
	for i := 0; i < 10; i++ {
		feedQuoteAndTrade(s, 1, 100.0, 10, at)
		at = at.Add(100 * time.Millisecond)
	}
	require.False(t, s.HasSignal())

	base := 100.0
	for i := 0; i < 8; i++ {
		base += 0.06
		feedQuoteAndTrade(s, 1, base, 30, at)
		at = at.Add(100 * time.Millisecond)
		if sig, ok := s.GetSignal(); ok {
			return sig, at
		}
	}
	t.Fatal("expected a breakout entry")
	return nil, at
}

func TestScalping_BreakoutEntryIsUrgent(t *testing.T) {
	s := newTestScalper(t, "tick_size=0.01")

	entry, _ := driveScalpBreakout(t, s, time.Now())
	assert.Equal(t, types.SignalEntry, entry.Type)
	assert.Equal(t, types.UrgencyHigh, entry.Urgency)
	assert.Greater(t, entry.Strength, 0.0)
	assert.InDelta(t, 10.0, entry.Quantity, 1e-9)
}

func TestScalping_ProfitTargetExit(t *testing.T) {
	s := newTestScalper(t, "tick_size=0.01", "profit_target_ticks=5", "stop_loss_ticks=3")

	entry, at := driveScalpBreakout(t, s, time.Now())
	entryPrice := entry.PriceTicks * 0.01

	s.OnOrderFill(&types.OrderFill{
		OrderID:    "SC-1",
		StrategyID: 4,
		SymbolID:   1,
		Price:      entryPrice,
		Quantity:   entry.Quantity,
		Side:       types.SideBid,
		Timestamp:  at,
	})

	// Pop through the five-tick target.
	feedQuoteAndTrade(s, 1, entryPrice+0.10, 30, at.Add(100*time.Millisecond))

	exit, ok := s.GetSignal()
	require.True(t, ok)
	assert.Equal(t, types.SignalExit, exit.Type)
	assert.Equal(t, types.UrgencyImmediate, exit.Urgency)
	assert.Less(t, exit.Strength, 0.0)
}

func TestScalping_StopLossExit(t *testing.T) {
	s := newTestScalper(t, "tick_size=0.01", "profit_target_ticks=5", "stop_loss_ticks=3")

	entry, at := driveScalpBreakout(t, s, time.Now())
	entryPrice := entry.PriceTicks * 0.01

	s.OnOrderFill(&types.OrderFill{
		OrderID:    "SC-2",
		StrategyID: 4,
		SymbolID:   1,
		Price:      entryPrice,
		Quantity:   entry.Quantity,
		Side:       types.SideBid,
		Timestamp:  at,
	})

	feedQuoteAndTrade(s, 1, entryPrice-0.10, 30, at.Add(100*time.Millisecond))

	exit, ok := s.GetSignal()
	require.True(t, ok)
	assert.Equal(t, types.SignalExit, exit.Type)
	assert.Equal(t, types.UrgencyImmediate, exit.Urgency)
}

func TestScalping_HoldTimeoutExitViaOnTick(t *testing.T) {
	s := newTestScalper(t, "tick_size=0.01", "max_hold_seconds=30")

	entry, at := driveScalpBreakout(t, s, time.Now())
	s.OnOrderFill(&types.OrderFill{
		OrderID:    "SC-3",
		StrategyID: 4,
		SymbolID:   1,
		Price:      entry.PriceTicks * 0.01,
		Quantity:   entry.Quantity,
		Side:       types.SideBid,
		Timestamp:  at,
	})

	s.OnTick(at.Add(31 * time.Second))

	exit, ok := s.GetSignal()
	require.True(t, ok)
	assert.Equal(t, types.SignalExit, exit.Type)
	assert.Equal(t, types.UrgencyImmediate, exit.Urgency)
}

func TestScalping_OnlyTradesWhileFlat(t *testing.T) {
	s := newTestScalper(t)
	assert.True(t, s.ShouldTrade(1, 1))

	s.ApplyFill(1, 10, 100)
	assert.False(t, s.ShouldTrade(1, 1))
	assert.False(t, s.ShouldTrade(1, -1))
}

func TestScalping_WinRateLockout(t *testing.T) {
	s := newTestScalper(t)
	m := s.Metrics()

	// 7 wins out of 20 closed trades: 35% sits under the 40% lockout line.
	for i := 0; i < 7; i++ {
		m.RecordTradeResult(1)
	}
	for i := 0; i < 13; i++ {
		m.RecordTradeResult(-1)
	}

	assert.False(t, s.CheckRiskLimits())
}

func TestScalping_NoLockoutBeforeMinimumTrades(t *testing.T) {
	s := newTestScalper(t)
	m := s.Metrics()

	// A bad run that is still too short to be statistically damning.
	for i := 0; i < 10; i++ {
		m.RecordTradeResult(-1)
	}

	assert.True(t, s.CheckRiskLimits())
}

func TestScalping_VolumeRate(t *testing.T) {
	s := newTestScalper(t)

	s.stateMu.Lock()
	st := s.symbolState(1)
	for i := 0; i < 5; i++ {
		st.volumes.Push(10)
	}
	for i := 0; i < 5; i++ {
		st.volumes.Push(30)
	}
	rate := s.volumeRate(st)
	s.stateMu.Unlock()

	assert.InDelta(t, 3.0, rate, 1e-9)
}
