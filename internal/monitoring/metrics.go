package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Signal metrics
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecore_signals_total",
			Help: "Total number of trading signals generated",
		},
		[]string{"strategy", "type"},
	)

	signalsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecore_signals_dropped_total",
			Help: "Signals dropped during collection (zero quantity or risk gate)",
		},
		[]string{"strategy"},
	)

	// Fill metrics
	fillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecore_fills_total",
			Help: "Total number of order fills routed to strategies",
		},
		[]string{"strategy", "side"},
	)

	// PnL metrics
	strategyRealizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradecore_strategy_realized_pnl",
			Help: "Realized PnL per strategy",
		},
		[]string{"strategy"},
	)

	strategyUnrealizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradecore_strategy_unrealized_pnl",
			Help: "Unrealized PnL per strategy",
		},
		[]string{"strategy"},
	)

	// Portfolio metrics
	portfolioGrossExposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradecore_portfolio_gross_exposure",
			Help: "Aggregate gross exposure across all strategies",
		},
	)

	portfolioNetExposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradecore_portfolio_net_exposure",
			Help: "Aggregate net exposure across all strategies",
		},
	)

	activeStrategies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradecore_active_strategies",
			Help: "Number of enabled strategy allocations",
		},
	)

	emergencyStopActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradecore_emergency_stop_active",
			Help: "1 when the portfolio emergency stop has been triggered",
		},
	)

	strategyDisables = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecore_strategy_disables_total",
			Help: "Automatic risk disables per strategy and reason",
		},
		[]string{"strategy", "reason"},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(signalsDropped)
	prometheus.MustRegister(fillsTotal)
	prometheus.MustRegister(strategyRealizedPnL)
	prometheus.MustRegister(strategyUnrealizedPnL)
	prometheus.MustRegister(portfolioGrossExposure)
	prometheus.MustRegister(portfolioNetExposure)
	prometheus.MustRegister(activeStrategies)
	prometheus.MustRegister(emergencyStopActive)
	prometheus.MustRegister(strategyDisables)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSignal records a generated signal.
func RecordSignal(strategy, signalType string) {
	signalsTotal.WithLabelValues(strategy, signalType).Inc()
}

// RecordDroppedSignal records a signal dropped during collection.
func RecordDroppedSignal(strategy string) {
	signalsDropped.WithLabelValues(strategy).Inc()
}

// RecordFill records a routed order fill.
func RecordFill(strategy, side string) {
	fillsTotal.WithLabelValues(strategy, side).Inc()
}

// UpdateStrategyPnL updates the per-strategy PnL gauges.
func UpdateStrategyPnL(strategy string, realized, unrealized float64) {
	strategyRealizedPnL.WithLabelValues(strategy).Set(realized)
	strategyUnrealizedPnL.WithLabelValues(strategy).Set(unrealized)
}

// UpdatePortfolio updates the aggregate portfolio gauges.
func UpdatePortfolio(gross, net float64, active int) {
	portfolioGrossExposure.Set(gross)
	portfolioNetExposure.Set(net)
	activeStrategies.Set(float64(active))
}

// SetEmergencyStop flips the emergency stop gauge.
func SetEmergencyStop(active bool) {
	if active {
		emergencyStopActive.Set(1)
	} else {
		emergencyStopActive.Set(0)
	}
}

// RecordStrategyDisable records an automatic risk disable.
func RecordStrategyDisable(strategy, reason string) {
	strategyDisables.WithLabelValues(strategy, reason).Inc()
}
