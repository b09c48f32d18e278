package config

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig is the environment-driven configuration for the trading
// engine. Strategy-level tunables travel separately as flat "key=value"
// parameter lists on each strategy config.
type EngineConfig struct {
	Environment string
	LogLevel    string

	Portfolio struct {
		TotalCapital            float64
		MaxPortfolioDrawdown    float64
		MaxConcurrentStrategies int
		EmergencyStopLoss       float64
		RebalanceInterval       time.Duration
		DynamicAllocation       bool
		MonitorInterval         time.Duration
	}

	Monitoring struct {
		PrometheusPort int
	}

	Reporting struct {
		OutputDir   string
		ExcelReport bool
	}
}

// Load builds the engine configuration from environment variables with
// sensible defaults.
func Load() *EngineConfig {
	cfg := &EngineConfig{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	cfg.Portfolio.TotalCapital = getEnvFloat("TOTAL_CAPITAL", 1_000_000)
	cfg.Portfolio.MaxPortfolioDrawdown = getEnvFloat("MAX_PORTFOLIO_DRAWDOWN", 0.05)
	cfg.Portfolio.MaxConcurrentStrategies = getEnvInt("MAX_CONCURRENT_STRATEGIES", 10)
	cfg.Portfolio.EmergencyStopLoss = getEnvFloat("EMERGENCY_STOP_LOSS", 0.02)
	cfg.Portfolio.RebalanceInterval = getEnvDuration("REBALANCE_INTERVAL", time.Hour)
	cfg.Portfolio.DynamicAllocation = getEnvBool("DYNAMIC_ALLOCATION", false)
	cfg.Portfolio.MonitorInterval = getEnvDuration("MONITOR_INTERVAL", time.Second)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)

	cfg.Reporting.OutputDir = getEnv("REPORT_DIR", "results")
	cfg.Reporting.ExcelReport = getEnvBool("EXCEL_REPORT", false)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
