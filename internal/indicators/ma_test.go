package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA_Update(t *testing.T) {
	sma := NewSMA(3)

	assert.InDelta(t, 10.0, sma.Update(10), 1e-9)
	assert.InDelta(t, 15.0, sma.Update(20), 1e-9)
	assert.False(t, sma.Ready())

	assert.InDelta(t, 20.0, sma.Update(30), 1e-9)
	assert.True(t, sma.Ready())

	// Rolling: oldest sample drops out.
	assert.InDelta(t, 30.0, sma.Update(40), 1e-9)
	assert.InDelta(t, 30.0, sma.Value(), 1e-9)
}

func TestEMA_SeedsWithFirstPrice(t *testing.T) {
	ema := NewEMA(10)

	assert.InDelta(t, 100.0, ema.Update(100), 1e-9)

	// Second update uses multiplier 2/11.
	expected := 100.0 + (110.0-100.0)*(2.0/11.0)
	assert.InDelta(t, expected, ema.Update(110), 1e-9)
}

func TestEMA_Ready(t *testing.T) {
	ema := NewEMA(3)
	ema.Update(1)
	ema.Update(2)
	assert.False(t, ema.Ready())
	ema.Update(3)
	assert.True(t, ema.Ready())
}

func TestEMA_ConvergesToConstant(t *testing.T) {
	ema := NewEMA(5)
	ema.Update(0)
	for i := 0; i < 200; i++ {
		ema.Update(50)
	}
	assert.InDelta(t, 50.0, ema.Value(), 1e-6)
}

func TestEMA_Reset(t *testing.T) {
	ema := NewEMA(5)
	ema.Update(42)
	ema.Reset()

	assert.False(t, ema.Ready())
	assert.InDelta(t, 7.0, ema.Update(7), 1e-9)
}
