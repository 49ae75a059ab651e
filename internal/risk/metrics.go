package risk

import (
	"github.com/quiverlabs/radar/internal/domain"
	"github.com/quiverlabs/radar/pkg/formulas"
)

// defaultRiskFreeRate is the annual risk-free rate used for ratio metrics.
const defaultRiskFreeRate = 0.05

// Metrics derives portfolio risk metrics from daily return and value
// histories. Each metric is absent when its inputs are insufficient.
func Metrics(dailyReturns, benchmarkReturns, portfolioValues []float64) domain.RiskMetrics {
	m := domain.RiskMetrics{
		Beta:      formulas.Beta(dailyReturns, benchmarkReturns),
		Sharpe30D: formulas.SharpeRatio(dailyReturns, defaultRiskFreeRate),
		Sortino:   formulas.SortinoRatio(dailyReturns, defaultRiskFreeRate),
	}

	if len(portfolioValues) >= 2 {
		dd := formulas.MaxDrawdown(portfolioValues)
		m.MaxDrawdown = &dd
	}
	if len(dailyReturns) >= 2 {
		vol := formulas.AnnualizedVolatility(dailyReturns)
		m.Volatility30D = &vol
	}

	return m
}
