package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 1_000_000.0, cfg.Portfolio.TotalCapital)
	assert.Equal(t, 0.05, cfg.Portfolio.MaxPortfolioDrawdown)
	assert.Equal(t, 10, cfg.Portfolio.MaxConcurrentStrategies)
	assert.Equal(t, 0.02, cfg.Portfolio.EmergencyStopLoss)
	assert.Equal(t, time.Second, cfg.Portfolio.MonitorInterval)
	assert.Equal(t, 8080, cfg.Monitoring.PrometheusPort)
	assert.False(t, cfg.Reporting.ExcelReport)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TOTAL_CAPITAL", "250000")
	t.Setenv("MAX_CONCURRENT_STRATEGIES", "4")
	t.Setenv("MONITOR_INTERVAL", "500ms")
	t.Setenv("DYNAMIC_ALLOCATION", "true")
	t.Setenv("EXCEL_REPORT", "1")

	cfg := Load()

	assert.Equal(t, 250_000.0, cfg.Portfolio.TotalCapital)
	assert.Equal(t, 4, cfg.Portfolio.MaxConcurrentStrategies)
	assert.Equal(t, 500*time.Millisecond, cfg.Portfolio.MonitorInterval)
	assert.True(t, cfg.Portfolio.DynamicAllocation)
	assert.True(t, cfg.Reporting.ExcelReport)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("TOTAL_CAPITAL", "lots")
	t.Setenv("MONITOR_INTERVAL", "soon")
	t.Setenv("DYNAMIC_ALLOCATION", "perhaps")

	cfg := Load()

	assert.Equal(t, 1_000_000.0, cfg.Portfolio.TotalCapital)
	assert.Equal(t, time.Second, cfg.Portfolio.MonitorInterval)
	assert.False(t, cfg.Portfolio.DynamicAllocation)
}
