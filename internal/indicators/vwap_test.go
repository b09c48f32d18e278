package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVWAP_WeightsByVolume(t *testing.T) {
	v := NewVWAP(3)

	v.Update(100, 1)
	v.Update(200, 3)

	// (100*1 + 200*3) / 4
	assert.InDelta(t, 175.0, v.Value(), 1e-9)
	assert.False(t, v.Ready())

	v.Update(300, 0)
	assert.True(t, v.Ready())
	assert.InDelta(t, 175.0, v.Value(), 1e-9)
}

func TestVWAP_Rolling(t *testing.T) {
	v := NewVWAP(2)
	v.Update(100, 1)
	v.Update(200, 1)
	v.Update(300, 1)

	// Oldest trade evicted, window holds 200 and 300.
	assert.InDelta(t, 250.0, v.Value(), 1e-9)
}

func TestVWAP_ZeroVolumeFallsBackToMean(t *testing.T) {
	v := NewVWAP(3)
	v.Update(100, 0)
	v.Update(200, 0)

	assert.InDelta(t, 150.0, v.Value(), 1e-9)
}
