package reporting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quantlab/tradecore/internal/portfolio"
	"github.com/quantlab/tradecore/pkg/types"
)

func sampleSummary() *portfolio.PortfolioSummary {
	return &portfolio.PortfolioSummary{
		Timestamp:    time.Now(),
		TotalCapital: 100_000,
		Risk: portfolio.PortfolioRisk{
			RealizedPnL:      350,
			UnrealizedPnL:    -20,
			GrossExposure:    5000,
			NetExposure:      1200,
			ActiveStrategies: 2,
			OpenPositions:    3,
		},
		Strategies: []portfolio.StrategyPerformance{
			{StrategyID: 1, Name: "market_making", State: "RUNNING", Enabled: true, Allocation: 30_000, DailyPnL: 400, RealizedPnL: 400, WinRate: 0.6, Signals: 120, Orders: 40},
			{StrategyID: 2, Name: "momentum", State: "PAUSED", Enabled: false, Allocation: 25_000, DailyPnL: -50, RealizedPnL: -50, WinRate: 0.4, Signals: 30, Orders: 12},
		},
		BestStrategy:  "market_making",
		WorstStrategy: "momentum",
	}
}

func TestExcelReporter_WriteSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "session.xlsx")
	fills := []types.OrderFill{
		{OrderID: "PT-000001", StrategyID: 1, SymbolID: 1, Price: 100.02, Quantity: 10, Side: types.SideBid, Timestamp: time.Now()},
		{OrderID: "PT-000002", StrategyID: 2, SymbolID: 1, Price: 100.05, Quantity: 5, Side: types.SideAsk, Timestamp: time.Now()},
	}

	require.NoError(t, NewExcelReporter().WriteSession(sampleSummary(), fills, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	name, err := fx.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "market_making", name)

	orderID, err := fx.GetCellValue("Fills", "B3")
	require.NoError(t, err)
	assert.Equal(t, "PT-000002", orderID)

	side, err := fx.GetCellValue("Fills", "E3")
	require.NoError(t, err)
	assert.Equal(t, "ASK", side)
}

func TestConsoleReporter_PrintSummary(t *testing.T) {
	// Smoke test: rendering must not panic on a populated summary or on an
	// emergency-stopped portfolio.
	r := NewConsoleReporter()
	r.PrintSummary(sampleSummary())

	stopped := sampleSummary()
	stopped.Risk.EmergencyStop = true
	r.PrintSummary(stopped)
}
