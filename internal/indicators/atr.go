package indicators

import "math"

// ATR measures volatility as the Wilder-smoothed average true range. Because
// this engine consumes raw ticks instead of candles, incoming prices are
// aggregated into fixed tick-count bars before the true range is taken.
type ATR struct {
	ema         *EMA
	barTicks    int
	tickCount   int
	barHigh     float64
	barLow      float64
	lastClose   float64
	initialized bool
}

// NewATR creates an ATR smoothed over period bars, each built from barTicks
// consecutive prices.
func NewATR(period, barTicks int) *ATR {
	if barTicks < 1 {
		barTicks = 1
	}
	return &ATR{
		ema:      NewEMA(period),
		barTicks: barTicks,
	}
}

// Update folds a new price into the current bar. When the bar completes, the
// true range is pushed into the smoothing average.
func (a *ATR) Update(price float64) {
	if a.tickCount == 0 {
		a.barHigh = price
		a.barLow = price
	} else {
		if price > a.barHigh {
			a.barHigh = price
		}
		if price < a.barLow {
			a.barLow = price
		}
	}
	a.tickCount++

	if a.tickCount < a.barTicks {
		return
	}

	tr := a.barHigh - a.barLow
	if a.initialized {
		// Wilder's true range: include the gap from the previous close.
		tr = math.Max(tr, math.Max(math.Abs(a.barHigh-a.lastClose), math.Abs(a.barLow-a.lastClose)))
	}
	a.ema.Update(tr)
	a.lastClose = price
	a.initialized = true
	a.tickCount = 0
}

// Value returns the current average true range.
func (a *ATR) Value() float64 {
	return a.ema.Value()
}

// Ready reports whether enough bars have completed for a stable reading.
func (a *ATR) Ready() bool {
	return a.ema.Ready()
}

// Reset discards all accumulated state.
func (a *ATR) Reset() {
	a.ema.Reset()
	a.tickCount = 0
	a.initialized = false
}
