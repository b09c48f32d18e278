package strategy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	var m Metrics

	m.IncSignals()
	m.IncSignals()
	m.IncOrders()

	assert.Equal(t, uint64(2), m.SignalsGenerated())
	assert.Equal(t, uint64(1), m.OrdersExecuted())
}

func TestMetrics_WinRate(t *testing.T) {
	var m Metrics
	assert.Equal(t, 0.0, m.WinRate())

	m.RecordTradeResult(10)
	m.RecordTradeResult(-5)
	m.RecordTradeResult(20)
	m.RecordTradeResult(0) // break-even counts as a win

	assert.Equal(t, uint64(3), m.WinningTrades())
	assert.Equal(t, uint64(1), m.LosingTrades())
	assert.InDelta(t, 0.75, m.WinRate(), 1e-9)
}

func TestMetrics_RealizedPnLAccumulates(t *testing.T) {
	var m Metrics

	assert.InDelta(t, 12.5, m.AddRealizedPnL(12.5), 1e-9)
	assert.InDelta(t, 2.5, m.AddRealizedPnL(-10), 1e-9)
	assert.InDelta(t, 2.5, m.RealizedPnL(), 1e-9)
}

func TestMetrics_ConcurrentUpdates(t *testing.T) {
	var m Metrics
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.IncSignals()
				m.AddRealizedPnL(0.5)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8000), m.SignalsGenerated())
	assert.InDelta(t, 4000.0, m.RealizedPnL(), 1e-6)
}
