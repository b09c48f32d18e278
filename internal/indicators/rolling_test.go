package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingWindow_PushAndLen(t *testing.T) {
	w := NewRollingWindow(3)

	assert.Equal(t, 0, w.Len())
	assert.False(t, w.Full())

	w.Push(1)
	w.Push(2)
	assert.Equal(t, 2, w.Len())
	assert.False(t, w.Full())

	w.Push(3)
	assert.True(t, w.Full())

	// Fourth push evicts the oldest sample.
	w.Push(4)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 2.0, w.At(0))
	assert.Equal(t, 4.0, w.Last())
}

func TestRollingWindow_MeanAndStdDev(t *testing.T) {
	w := NewRollingWindow(5)
	for _, v := range []float64{2, 4, 4, 4, 5} {
		w.Push(v)
	}

	assert.InDelta(t, 3.8, w.Mean(), 1e-9)

	// Sample stddev of {2,4,4,4,5}: variance = 4.8/4 = 1.2.
	assert.InDelta(t, math.Sqrt(1.2), w.StdDev(), 1e-9)
}

func TestRollingWindow_StdDevAfterEviction(t *testing.T) {
	w := NewRollingWindow(3)
	for _, v := range []float64{100, 1, 2, 3} {
		w.Push(v)
	}

	// After evicting 100 the window holds {1,2,3}.
	assert.InDelta(t, 2.0, w.Mean(), 1e-9)
	assert.InDelta(t, 1.0, w.StdDev(), 1e-9)
}

func TestRollingWindow_StdDevInsufficientSamples(t *testing.T) {
	w := NewRollingWindow(10)
	assert.Equal(t, 0.0, w.StdDev())
	w.Push(5)
	assert.Equal(t, 0.0, w.StdDev())
}

func TestRollingWindow_ZScore(t *testing.T) {
	w := NewRollingWindow(4)
	for _, v := range []float64{1, 2, 3, 4} {
		w.Push(v)
	}

	// mean 2.5, sample stddev sqrt(5/3)
	sd := math.Sqrt(5.0 / 3.0)
	assert.InDelta(t, (5.0-2.5)/sd, w.ZScore(5), 1e-9)

	flat := NewRollingWindow(3)
	flat.Push(7)
	flat.Push(7)
	flat.Push(7)
	assert.Equal(t, 0.0, flat.ZScore(10))
}

func TestRollingWindow_MinMax(t *testing.T) {
	w := NewRollingWindow(3)
	for _, v := range []float64{5, 1, 9, 3} {
		w.Push(v)
	}

	// Window holds {1,9,3} after eviction.
	assert.Equal(t, 1.0, w.Min())
	assert.Equal(t, 9.0, w.Max())
}

func TestRollingWindow_SumRange(t *testing.T) {
	w := NewRollingWindow(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}

	assert.InDelta(t, 3.0, w.SumRange(0, 2), 1e-9)
	assert.InDelta(t, 12.0, w.SumRange(2, 5), 1e-9)
	// Bounds are clamped.
	assert.InDelta(t, 15.0, w.SumRange(-1, 10), 1e-9)
}

func TestRollingWindow_Autocorrelation(t *testing.T) {
	// Perfectly alternating series has strong negative lag-1 autocorrelation.
	w := NewRollingWindow(20)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			w.Push(1)
		} else {
			w.Push(-1)
		}
	}
	assert.Less(t, w.Autocorrelation(1), -0.8)

	// Monotonic trend has positive lag-1 autocorrelation.
	trend := NewRollingWindow(20)
	for i := 0; i < 20; i++ {
		trend.Push(float64(i))
	}
	assert.Greater(t, trend.Autocorrelation(1), 0.5)
}

func TestRollingWindow_AutocorrelationInsufficientSamples(t *testing.T) {
	w := NewRollingWindow(10)
	w.Push(1)
	w.Push(2)
	assert.Equal(t, 0.0, w.Autocorrelation(1))
}

func TestRollingWindow_Reset(t *testing.T) {
	w := NewRollingWindow(3)
	w.Push(1)
	w.Push(2)
	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0.0, w.Mean())

	w.Push(10)
	assert.Equal(t, 10.0, w.Mean())
}
