package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantlab/tradecore/internal/portfolio"
)

// ConsoleReporter renders a portfolio session summary as a console table.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintSummary renders the portfolio summary to stdout.
func (r *ConsoleReporter) PrintSummary(summary *portfolio.PortfolioSummary) {
	fmt.Println()
	fmt.Println("PORTFOLIO SUMMARY")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Strategy", "State", "Enabled", "Allocation", "Daily PnL", "Realized", "Unrealized", "Drawdown", "Win Rate", "Signals", "Orders"})

	for _, s := range summary.Strategies {
		t.AppendRow(table.Row{
			s.StrategyID,
			s.Name,
			s.State,
			s.Enabled,
			fmt.Sprintf("$%.0f", s.Allocation),
			colorPnL(s.DailyPnL),
			colorPnL(s.RealizedPnL),
			colorPnL(s.UnrealizedPnL),
			fmt.Sprintf("%.2f%%", s.MaxDrawdown*100),
			fmt.Sprintf("%.1f%%", s.WinRate*100),
			s.Signals,
			s.Orders,
		})
	}
	t.Render()

	fmt.Printf("Total Capital:    $%.2f\n", summary.TotalCapital)
	fmt.Printf("Realized PnL:     $%.2f\n", summary.Risk.RealizedPnL)
	fmt.Printf("Unrealized PnL:   $%.2f\n", summary.Risk.UnrealizedPnL)
	fmt.Printf("Gross Exposure:   $%.2f\n", summary.Risk.GrossExposure)
	fmt.Printf("Net Exposure:     $%.2f\n", summary.Risk.NetExposure)
	fmt.Printf("Max Drawdown:     %.2f%%\n", summary.MaxDrawdown*100)
	fmt.Printf("Open Positions:   %d\n", summary.Risk.OpenPositions)
	fmt.Printf("Active:           %d strategies\n", summary.Risk.ActiveStrategies)
	if summary.BestStrategy != "" {
		fmt.Printf("Best Today:       %s\n", summary.BestStrategy)
		fmt.Printf("Worst Today:      %s\n", summary.WorstStrategy)
	}
	if summary.Risk.EmergencyStop {
		fmt.Println(text.FgRed.Sprint("EMERGENCY STOP ACTIVE - trading halted until manual reset"))
	}
}

func colorPnL(v float64) string {
	s := fmt.Sprintf("$%.2f", v)
	if v > 0 {
		return text.FgGreen.Sprint(s)
	}
	if v < 0 {
		return text.FgRed.Sprint(s)
	}
	return s
}
