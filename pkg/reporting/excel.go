package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantlab/tradecore/internal/portfolio"
	"github.com/quantlab/tradecore/pkg/types"
)

// ExcelReporter writes a session workbook with a per-strategy summary sheet
// and the full fill log.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteSession writes the session summary and fill log to an .xlsx file.
func (r *ExcelReporter) WriteSession(summary *portfolio.PortfolioSummary, fills []types.OrderFill, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const fillsSheet = "Fills"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(fillsSheet); err != nil {
		return fmt.Errorf("failed to create fills sheet: %w", err)
	}

	if err := r.writeSummarySheet(fx, summarySheet, summary); err != nil {
		return err
	}
	if err := r.writeFillsSheet(fx, fillsSheet, fills); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, summary *portfolio.PortfolioSummary) error {
	headers := []interface{}{"ID", "Strategy", "State", "Enabled", "Allocation", "Daily PnL", "Realized PnL", "Unrealized PnL", "Max Drawdown", "Sharpe", "Win Rate", "Signals", "Orders"}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	for i, s := range summary.Strategies {
		row := []interface{}{
			s.StrategyID, s.Name, s.State, s.Enabled, s.Allocation,
			s.DailyPnL, s.RealizedPnL, s.UnrealizedPnL,
			s.MaxDrawdown, s.SharpeRatio, s.WinRate,
			s.Signals, s.Orders,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}

	// Aggregate block below the table.
	base := len(summary.Strategies) + 3
	aggregates := [][]interface{}{
		{"Total Capital", summary.TotalCapital},
		{"Realized PnL", summary.Risk.RealizedPnL},
		{"Unrealized PnL", summary.Risk.UnrealizedPnL},
		{"Gross Exposure", summary.Risk.GrossExposure},
		{"Net Exposure", summary.Risk.NetExposure},
		{"Max Drawdown", summary.MaxDrawdown},
		{"Emergency Stop", summary.Risk.EmergencyStop},
		{"Best Strategy", summary.BestStrategy},
		{"Worst Strategy", summary.WorstStrategy},
	}
	for i, row := range aggregates {
		cell := fmt.Sprintf("A%d", base+i)
		r := row
		if err := fx.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write aggregate row: %w", err)
		}
	}
	return nil
}

func (r *ExcelReporter) writeFillsSheet(fx *excelize.File, sheet string, fills []types.OrderFill) error {
	headers := []interface{}{"Timestamp", "Order ID", "Strategy ID", "Symbol ID", "Side", "Price", "Quantity"}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write fills header: %w", err)
	}
	for i, f := range fills {
		row := []interface{}{
			f.Timestamp.Format("2006-01-02 15:04:05.000"),
			f.OrderID, f.StrategyID, f.SymbolID, f.Side.String(), f.Price, f.Quantity,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write fill row %d: %w", i, err)
		}
	}
	return nil
}
