package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Returns converts a chronological price series to percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: Std Dev of Daily Returns x sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(252)
}

// Beta calculates beta of a return series relative to a benchmark.
// Returns nil when the series are mismatched, too short, or the benchmark
// has zero variance.
func Beta(returns, benchmarkReturns []float64) *float64 {
	if len(returns) != len(benchmarkReturns) || len(returns) < 2 {
		return nil
	}

	benchVariance := stat.Variance(benchmarkReturns, nil)
	if benchVariance == 0 {
		return nil
	}

	beta := stat.Covariance(returns, benchmarkReturns, nil) / benchVariance
	return &beta
}

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
//
//	Sharpe = (Annualized Return - Risk-free Rate) / Annualized Std Dev
//
// Returns nil if insufficient data or zero volatility.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}

	stdDev := StdDev(dailyReturns)
	if stdDev == 0 {
		return nil
	}

	annualReturn := Mean(dailyReturns) * 252
	annualStdDev := stdDev * math.Sqrt(252)

	sharpe := (annualReturn - riskFreeRate) / annualStdDev
	return &sharpe
}

// SortinoRatio calculates the annualized Sortino ratio, which penalizes only
// downside deviation. Returns nil when there are no negative returns to
// measure downside against.
func SortinoRatio(dailyReturns []float64, riskFreeRate float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}

	downside := make([]float64, 0, len(dailyReturns))
	for _, r := range dailyReturns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return nil
	}

	downsideStd := StdDev(downside)
	if downsideStd == 0 {
		return nil
	}

	annualReturn := Mean(dailyReturns) * 252
	annualDownside := downsideStd * math.Sqrt(252)

	sortino := (annualReturn - riskFreeRate) / annualDownside
	return &sortino
}

// MaxDrawdown calculates the maximum peak-to-trough decline of a value
// series, expressed as a negative fraction.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDD := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak != 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}
