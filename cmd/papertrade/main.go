// Command papertrade runs the strategy engine against a synthetic random
// walk market, fills every collected signal at its suggested price, and
// prints a session report on shutdown. It exists to exercise the full data
// flow without any external market data or execution collaborator.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantlab/tradecore/internal/config"
	"github.com/quantlab/tradecore/internal/logger"
	"github.com/quantlab/tradecore/internal/monitoring"
	"github.com/quantlab/tradecore/internal/portfolio"
	"github.com/quantlab/tradecore/internal/strategy"
	"github.com/quantlab/tradecore/pkg/reporting"
	"github.com/quantlab/tradecore/pkg/types"
)

const (
	symbolID   = 1
	tickSize   = 0.01
	startPrice = 100.0
)

func main() {
	duration := flag.Duration("duration", 30*time.Second, "how long to run the session")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random walk seed")
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewLogger("papertrade")
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	manager := portfolio.NewStrategyManager(portfolio.ManagerConfig{
		TotalCapital:            cfg.Portfolio.TotalCapital,
		MaxPortfolioDrawdown:    cfg.Portfolio.MaxPortfolioDrawdown,
		MaxConcurrentStrategies: cfg.Portfolio.MaxConcurrentStrategies,
		EmergencyStopLoss:       cfg.Portfolio.EmergencyStopLoss,
		RebalanceInterval:       cfg.Portfolio.RebalanceInterval,
		DynamicAllocation:       cfg.Portfolio.DynamicAllocation,
		MonitorInterval:         cfg.Portfolio.MonitorInterval,
	})

	if err := registerStrategies(manager); err != nil {
		fmt.Printf("failed to register strategies: %v\n", err)
		os.Exit(1)
	}
	if err := manager.Start(); err != nil {
		fmt.Printf("failed to start manager: %v\n", err)
		os.Exit(1)
	}
	defer manager.Stop()
	log.Info("paper trading session started, capital $%.0f", cfg.Portfolio.TotalCapital)

	// Prometheus endpoint.
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		http.Handle("/metrics", monitoring.Handler())
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Warn("metrics endpoint stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fills := runSession(manager, log, *duration, *seed, sigCh)

	summary := manager.GetPortfolioSummary()
	reporting.NewConsoleReporter().PrintSummary(&summary)

	if cfg.Reporting.ExcelReport {
		path := filepath.Join(cfg.Reporting.OutputDir, fmt.Sprintf("papertrade_%s.xlsx", time.Now().Format("20060102_150405")))
		if err := reporting.NewExcelReporter().WriteSession(&summary, fills, path); err != nil {
			log.Error("excel report failed: %v", err)
		} else {
			fmt.Printf("Session report written to %s\n", path)
		}
	}
	log.Info("session finished: realized $%.2f over %d fills", summary.Risk.RealizedPnL, len(fills))
}

// registerStrategies adds one allocation per strategy variant.
func registerStrategies(manager *portfolio.StrategyManager) error {
	specs := []struct {
		kind     string
		id       uint32
		fraction float64
		params   []string
	}{
		{"market_making", 1, 0.3, []string{
			fmt.Sprintf("tick_size=%v", tickSize),
			"capture_ratio=0.5",
			"max_inventory=200",
			"quote_size=20",
		}},
		{"mean_reversion", 2, 0.3, []string{
			fmt.Sprintf("tick_size=%v", tickSize),
			"lookback=20",
			"use_kalman=true",
		}},
		{"momentum", 3, 0.25, []string{
			fmt.Sprintf("tick_size=%v", tickSize),
			"risk_budget=500",
		}},
		{"scalping", 4, 0.15, []string{
			fmt.Sprintf("tick_size=%v", tickSize),
			"profit_target_ticks=4",
			"stop_loss_ticks=2",
		}},
	}

	for _, spec := range specs {
		cfg := &strategy.Config{
			Name:            spec.kind,
			ID:              spec.id,
			MaxPositionSize: 100_000,
			MaxDailyLoss:    5_000,
			RiskMultiplier:  1.0,
			Enabled:         true,
			Symbols:         []uint32{symbolID},
			Params:          spec.params,
		}
		if err := manager.AddStrategy(spec.kind, cfg, spec.fraction); err != nil {
			return err
		}
	}
	return nil
}

// runSession drives the random walk, collects signals, and simulates fills
// until the duration elapses or a shutdown signal arrives.
func runSession(manager *portfolio.StrategyManager, log *logger.Logger, duration time.Duration, seed int64, sigCh <-chan os.Signal) []types.OrderFill {
	rng := rand.New(rand.NewSource(seed))
	price := startPrice
	spread := 4 * tickSize
	deadline := time.After(duration)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var fills []types.OrderFill
	orderSeq := 0

	for {
		select {
		case <-sigCh:
			log.Info("shutdown signal received")
			return fills
		case <-deadline:
			return fills
		case now := <-ticker.C:
			// Random walk with occasional volume bursts.
			price += rng.NormFloat64() * tickSize
			price = math.Max(price, tickSize)
			volume := 10 + rng.Float64()*20
			if rng.Intn(20) == 0 {
				volume *= 5
			}

			bid := math.Floor((price-spread/2)/tickSize) * tickSize
			ask := math.Ceil((price+spread/2)/tickSize) * tickSize
			events := []types.MarketDataEvent{
				{SymbolID: symbolID, Price: bid, Quantity: 50, Side: types.SideBid, Timestamp: now},
				{SymbolID: symbolID, Price: ask, Quantity: 50, Side: types.SideAsk, Timestamp: now},
				{SymbolID: symbolID, Price: price, Quantity: volume, Side: types.SideTrade, Timestamp: now},
			}
			for i := range events {
				manager.OnMarketData(&events[i])
			}
			manager.OnTick(now)

			// Naive execution: every collected signal fills at its suggested
			// price.
			for _, sig := range manager.CollectSignals() {
				orderSeq++
				side := types.SideBid
				if sig.Strength < 0 {
					side = types.SideAsk
				}
				fill := types.OrderFill{
					OrderID:    fmt.Sprintf("PT-%06d", orderSeq),
					StrategyID: sig.StrategyID,
					SymbolID:   sig.SymbolID,
					Price:      sig.PriceTicks * tickSize,
					Quantity:   sig.Quantity,
					Side:       side,
					Timestamp:  now,
				}
				manager.OnOrderFill(&fill)
				fills = append(fills, fill)
			}
		}
	}
}
