package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestATR_FirstBarRange(t *testing.T) {
	atr := NewATR(1, 4)

	// One bar of four ticks spanning 100..103.
	for _, p := range []float64{100, 103, 101, 102} {
		atr.Update(p)
	}

	assert.InDelta(t, 3.0, atr.Value(), 1e-9)
	assert.True(t, atr.Ready())
}

func TestATR_GapFromPreviousClose(t *testing.T) {
	atr := NewATR(1, 2)

	// First bar: 100..101, closes at 101.
	atr.Update(100)
	atr.Update(101)

	// Second bar gaps up to 110..110.5; true range is the gap from the
	// previous close, not the bar range.
	atr.Update(110)
	atr.Update(110.5)

	assert.InDelta(t, 9.5, atr.Value(), 1e-9)
}

func TestATR_NotReadyMidBar(t *testing.T) {
	atr := NewATR(2, 3)
	atr.Update(100)
	atr.Update(101)

	assert.False(t, atr.Ready())
	assert.Equal(t, 0.0, atr.Value())
}

func TestATR_Reset(t *testing.T) {
	atr := NewATR(1, 2)
	atr.Update(100)
	atr.Update(105)
	atr.Reset()

	assert.False(t, atr.Ready())

	atr.Update(50)
	atr.Update(51)
	assert.InDelta(t, 1.0, atr.Value(), 1e-9)
}
