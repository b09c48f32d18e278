package portfolio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantlab/tradecore/internal/monitoring"
	"github.com/quantlab/tradecore/internal/strategy"
	"github.com/quantlab/tradecore/pkg/types"
)

const signalFloodLimit = 1000 // signals per strategy per day

// ManagerConfig configures the strategy manager.
type ManagerConfig struct {
	TotalCapital            float64
	MaxPortfolioDrawdown    float64 // fraction of total capital
	MaxConcurrentStrategies int
	EmergencyStopLoss       float64 // loss fraction of total capital
	RebalanceInterval       time.Duration
	DynamicAllocation       bool
	MonitorInterval         time.Duration
}

// DefaultManagerConfig returns a conservative baseline configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TotalCapital:            1_000_000,
		MaxPortfolioDrawdown:    0.05,
		MaxConcurrentStrategies: 10,
		EmergencyStopLoss:       0.02,
		RebalanceInterval:       time.Hour,
		DynamicAllocation:       false,
		MonitorInterval:         time.Second,
	}
}

// StrategyManager owns the allocation set, fans market data and fills out to
// the strategies, collects and sizes their signals, and runs the background
// risk loop. One coarse mutex guards all structural access to the allocation
// set; per-strategy metrics stay lock-free so risk monitoring never contends
// with the data path.
type StrategyManager struct {
	cfg     ManagerConfig
	factory *strategy.Factory

	mu          sync.Mutex
	allocations []*StrategyAllocation
	risk        PortfolioRisk
	peakPnL     float64
	currentDay  time.Time
	lastRebal   time.Time

	running       atomic.Bool
	emergencyStop atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewStrategyManager creates a manager with the given configuration.
func NewStrategyManager(cfg ManagerConfig) *StrategyManager {
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = time.Second
	}
	if cfg.MaxConcurrentStrategies <= 0 {
		cfg.MaxConcurrentStrategies = 10
	}
	return &StrategyManager{
		cfg:        cfg,
		factory:    strategy.NewFactory(),
		currentDay: dayOf(time.Now()),
	}
}

// AddStrategy constructs a strategy of the named type and registers an
// enabled allocation holding fraction x total capital. Fails when the
// manager is at capacity or the factory cannot build the type.
func (m *StrategyManager) AddStrategy(name string, cfg *strategy.Config, fraction float64) error {
	if fraction <= 0 || fraction > 1 {
		return &ManagerError{
			Code:      ErrInvalidAllocation,
			Message:   fmt.Sprintf("allocation fraction %.4f outside (0, 1]", fraction),
			Timestamp: time.Now(),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.allocations) >= m.cfg.MaxConcurrentStrategies {
		return &ManagerError{
			Code:      ErrCapacityReached,
			Message:   fmt.Sprintf("already running %d of %d strategies", len(m.allocations), m.cfg.MaxConcurrentStrategies),
			Timestamp: time.Now(),
		}
	}

	s, err := m.factory.CreateByName(name, cfg)
	if err != nil {
		return &ManagerError{
			Code:       ErrConstructionFailed,
			Message:    err.Error(),
			Timestamp:  time.Now(),
			Underlying: err,
		}
	}

	alloc := newAllocation(s, fraction*m.cfg.TotalCapital)
	if m.running.Load() {
		if err := s.Start(); err != nil {
			return &ManagerError{
				Code:       ErrConstructionFailed,
				Message:    fmt.Sprintf("strategy failed to start: %v", err),
				StrategyID: cfg.ID,
				Timestamp:  time.Now(),
				Underlying: err,
			}
		}
	}
	m.allocations = append(m.allocations, alloc)
	return nil
}

// Start launches every strategy and the background monitoring task.
// Idempotent.
func (m *StrategyManager) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return nil
	}

	m.mu.Lock()
	for _, alloc := range m.allocations {
		if err := alloc.Strategy.Start(); err != nil {
			alloc.Enabled = false
			alloc.disableReason = ReasonAdmin
		}
	}
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.monitorLoop()
	return nil
}

// Stop stops every strategy and joins the monitoring task. Idempotent and
// safe to call from deferred cleanup.
func (m *StrategyManager) Stop() error {
	if !m.running.CompareAndSwap(true, false) {
		return nil
	}

	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		close(done)
	}
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, alloc := range m.allocations {
		if err := alloc.Strategy.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OnMarketData forwards a tick to every enabled strategy and refreshes the
// portfolio aggregates. No-op when not running or emergency-stopped.
func (m *StrategyManager) OnMarketData(event *types.MarketDataEvent) {
	if !m.running.Load() || m.emergencyStop.Load() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alloc := range m.allocations {
		if alloc.Enabled {
			alloc.Strategy.OnMarketData(event)
		}
	}
	m.updateRiskLocked()
}

// OnOrderFill routes a fill to exactly the strategy that owns it, matched
// by strategy id.
func (m *StrategyManager) OnOrderFill(fill *types.OrderFill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alloc := range m.allocations {
		if alloc.Strategy.ID() == fill.StrategyID {
			alloc.Strategy.OnOrderFill(fill)
			return
		}
	}
}

// OnTick drives time-based strategy behavior (quote refresh, hold
// timeouts).
func (m *StrategyManager) OnTick(now time.Time) {
	if !m.running.Load() || m.emergencyStop.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alloc := range m.allocations {
		if alloc.Enabled {
			alloc.Strategy.OnTick(now)
		}
	}
}

// CollectSignals drains pending signals from every allocation that passes
// its per-allocation risk check, rescales quantities by the allocation
// multiplier, and returns the merged list. Zero-quantity signals are
// dropped, never returned.
func (m *StrategyManager) CollectSignals() []*types.TradingSignal {
	if !m.running.Load() || m.emergencyStop.Load() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var collected []*types.TradingSignal
	now := time.Now()
	for _, alloc := range m.allocations {
		if !alloc.Enabled {
			continue
		}
		if !m.allocationHealthyLocked(alloc) {
			alloc.Strategy.ClearSignals()
			continue
		}

		multiplier := m.allocationMultiplier(alloc)
		for {
			sig, ok := alloc.Strategy.GetSignal()
			if !ok {
				break
			}
			sig.Quantity *= multiplier
			if sig.Quantity == 0 {
				monitoring.RecordDroppedSignal(alloc.Strategy.Name())
				continue
			}
			alloc.LastSignalTime = now
			alloc.SignalsToday++
			collected = append(collected, sig)
		}
	}
	return collected
}

// allocationHealthyLocked is the per-allocation gate applied before its
// signals are collected: today's loss within limit and exposure within 120%
// of the allocation.
func (m *StrategyManager) allocationHealthyLocked(alloc *StrategyAllocation) bool {
	if alloc.DailyPnL() < -alloc.DailyLossLimit {
		return false
	}
	exposure := 0.0
	for _, pos := range alloc.Strategy.Positions() {
		exposure += abs(pos.Quantity) * pos.AvgPrice
	}
	return exposure <= 1.2*alloc.CapitalAllocation
}

// allocationMultiplier sizes signals by capital share, tilted by today's
// performance with a floor of 0.5.
func (m *StrategyManager) allocationMultiplier(alloc *StrategyAllocation) float64 {
	if m.cfg.TotalCapital <= 0 {
		return 0
	}
	perf := 1 + alloc.DailyReturn()
	if perf < 0.5 {
		perf = 0.5
	}
	return (alloc.CapitalAllocation / m.cfg.TotalCapital) * perf
}

// SetStrategyEnabled is the administrative enable/disable override. It is
// independent of the automatic risk disables: a strategy disabled by the
// monitor stays disabled until explicitly re-enabled here.
func (m *StrategyManager) SetStrategyEnabled(id uint32, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alloc := range m.allocations {
		if alloc.Strategy.ID() != id {
			continue
		}
		alloc.Enabled = enabled
		alloc.disableReason = ReasonAdmin
		if enabled {
			alloc.Strategy.Resume()
		} else {
			alloc.Strategy.Pause()
		}
		return nil
	}
	return &ManagerError{
		Code:       ErrStrategyNotFound,
		Message:    "no allocation with that strategy id",
		StrategyID: id,
		Timestamp:  time.Now(),
	}
}

// EmergencyStop irreversibly halts all trading: every allocation is
// disabled and every strategy paused. There is no automatic re-enable; the
// flag stays set until external intervention replaces the manager.
func (m *StrategyManager) EmergencyStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emergencyStopLocked()
}

func (m *StrategyManager) emergencyStopLocked() {
	if m.emergencyStop.Swap(true) {
		return
	}
	m.risk.EmergencyStop = true
	monitoring.SetEmergencyStop(true)
	for _, alloc := range m.allocations {
		alloc.Enabled = false
		alloc.disableReason = ReasonEmergencyStop
		alloc.Strategy.Pause()
		monitoring.RecordStrategyDisable(alloc.Strategy.Name(), string(ReasonEmergencyStop))
	}
}

// IsEmergencyStopped reports whether the sticky emergency stop has fired.
func (m *StrategyManager) IsEmergencyStopped() bool {
	return m.emergencyStop.Load()
}

// GetPortfolioRisk returns a copy of the current aggregate risk view.
func (m *StrategyManager) GetPortfolioRisk() PortfolioRisk {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateRiskLocked()
	return m.risk
}

// monitorLoop is the background risk audit: once per interval it recomputes
// portfolio risk, applies the emergency stop and per-allocation disables,
// and drives the rebalance sampling. It observes the done channel each
// iteration (cooperative cancellation).
func (m *StrategyManager) monitorLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.runRiskChecks(now)
		}
	}
}

// runRiskChecks executes one pass of the monitoring loop.
func (m *StrategyManager) runRiskChecks(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if day := dayOf(now); !day.Equal(m.currentDay) {
		m.currentDay = day
		for _, alloc := range m.allocations {
			alloc.rolloverDay()
		}
	}

	m.updateRiskLocked()

	// (a) portfolio-level emergency stop.
	totalPnL := m.risk.TotalPnL()
	if totalPnL > m.peakPnL {
		m.peakPnL = totalPnL
	}
	if m.cfg.TotalCapital > 0 && !m.emergencyStop.Load() {
		lossFraction := -totalPnL / m.cfg.TotalCapital
		drawdown := (m.peakPnL - totalPnL) / m.cfg.TotalCapital
		if lossFraction > m.cfg.EmergencyStopLoss || drawdown > m.cfg.MaxPortfolioDrawdown {
			m.emergencyStopLocked()
			return
		}
	}

	// (b) per-allocation disables. Automatic disables never self-heal.
	for _, alloc := range m.allocations {
		if !alloc.Enabled {
			continue
		}
		alloc.updatePeak()
		var reason DisableReason
		switch {
		case alloc.DailyPnL() < -alloc.DailyLossLimit:
			reason = ReasonDailyLoss
		case alloc.Drawdown() > alloc.MaxDrawdown:
			reason = ReasonDrawdown
		case alloc.SignalsToday > signalFloodLimit:
			reason = ReasonSignalFlood
		default:
			continue
		}
		alloc.Enabled = false
		alloc.disableReason = reason
		alloc.Strategy.Pause()
		monitoring.RecordStrategyDisable(alloc.Strategy.Name(), string(reason))
	}

	// (c) rebalance sampling. The included policy is an equal-weight no-op:
	// it gathers daily return and Sharpe inputs but applies no re-weighting.
	if m.cfg.DynamicAllocation && now.Sub(m.lastRebal) >= m.cfg.RebalanceInterval {
		m.lastRebal = now
		m.rebalanceAllocations()
	}
}

// rebalanceAllocations samples each allocation's performance. Extension
// point: a real policy would re-weight CapitalAllocation from these
// samples; the shipped policy keeps weights unchanged.
func (m *StrategyManager) rebalanceAllocations() {
	for _, alloc := range m.allocations {
		alloc.sampleReturn()
	}
}

// updateRiskLocked recomputes the aggregate risk view from each enabled
// strategy's live positions and metrics.
func (m *StrategyManager) updateRiskLocked() {
	risk := PortfolioRisk{EmergencyStop: m.emergencyStop.Load()}
	for _, alloc := range m.allocations {
		s := alloc.Strategy
		if alloc.Enabled {
			risk.ActiveStrategies++
		}
		risk.RealizedPnL += s.Metrics().RealizedPnL()
		risk.UnrealizedPnL += s.GetUnrealizedPnL()

		// Positions on shared symbols are intentionally not netted across
		// strategies.
		for _, pos := range s.Positions() {
			notional := pos.Quantity * pos.AvgPrice
			risk.NetExposure += notional
			risk.GrossExposure += abs(notional)
			risk.OpenPositions++
		}
		monitoring.UpdateStrategyPnL(s.Name(), s.Metrics().RealizedPnL(), s.Metrics().UnrealizedPnL())
	}
	m.risk = risk
	monitoring.UpdatePortfolio(risk.GrossExposure, risk.NetExposure, risk.ActiveStrategies)
}

// GetPortfolioSummary returns a read-only snapshot of aggregate performance
// plus the best and worst strategies by today's PnL.
func (m *StrategyManager) GetPortfolioSummary() PortfolioSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateRiskLocked()

	summary := PortfolioSummary{
		Timestamp:    time.Now(),
		TotalCapital: m.cfg.TotalCapital,
		Risk:         m.risk,
	}
	if m.cfg.TotalCapital > 0 {
		summary.MaxDrawdown = (m.peakPnL - m.risk.TotalPnL()) / m.cfg.TotalCapital
		if summary.MaxDrawdown < 0 {
			summary.MaxDrawdown = 0
		}
	}

	bestPnL, worstPnL := 0.0, 0.0
	for i, alloc := range m.allocations {
		s := alloc.Strategy
		met := s.Metrics()
		daily := alloc.DailyPnL()
		summary.Strategies = append(summary.Strategies, StrategyPerformance{
			StrategyID:    s.ID(),
			Name:          s.Name(),
			State:         s.State().String(),
			Enabled:       alloc.Enabled,
			Allocation:    alloc.CapitalAllocation,
			DailyPnL:      daily,
			RealizedPnL:   met.RealizedPnL(),
			UnrealizedPnL: met.UnrealizedPnL(),
			MaxDrawdown:   met.MaxDrawdown(),
			SharpeRatio:   met.SharpeRatio(),
			WinRate:       met.WinRate(),
			SignalsToday:  alloc.SignalsToday,
			Signals:       met.SignalsGenerated(),
			Orders:        met.OrdersExecuted(),
		})
		if i == 0 || daily > bestPnL {
			bestPnL = daily
			summary.BestStrategy = s.Name()
		}
		if i == 0 || daily < worstPnL {
			worstPnL = daily
			summary.WorstStrategy = s.Name()
		}
	}
	return summary
}

// StrategyCount returns the number of registered allocations.
func (m *StrategyManager) StrategyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.allocations)
}

// Allocation returns the allocation owning the given strategy id, or nil.
// Intended for inspection and tests; the returned allocation is still
// guarded by manager operations.
func (m *StrategyManager) Allocation(id uint32) *StrategyAllocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alloc := range m.allocations {
		if alloc.Strategy.ID() == id {
			return alloc
		}
	}
	return nil
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
