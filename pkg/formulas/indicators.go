// Package formulas provides technical indicator and statistics calculations
// used by the radar scan and portfolio risk metrics.
package formulas

import (
	talib "github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average over the trailing period.
// Returns nil if there is not enough history.
func SMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// RSI calculates the Relative Strength Index.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods (Wilder smoothing)
//
// Returns the current RSI value (0-100) or nil if insufficient data.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	rsi := talib.Rsi(closes, period)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// MACDPoint holds the current and previous MACD line / signal line values.
// The previous values are needed to detect a crossover between the two most
// recent bars.
type MACDPoint struct {
	Line       float64
	Signal     float64
	PrevLine   float64
	PrevSignal float64
}

// MACD calculates the Moving Average Convergence Divergence indicator.
// Returns nil when the series is shorter than slow+signal bars, the minimum
// needed for a stable signal line.
func MACD(closes []float64, fast, slow, signal int) *MACDPoint {
	if len(closes) < slow+signal {
		return nil
	}

	line, signalLine, _ := talib.Macd(closes, fast, slow, signal)
	n := len(line)
	if n < 2 || len(signalLine) != n {
		return nil
	}

	p := MACDPoint{
		Line:       line[n-1],
		Signal:     signalLine[n-1],
		PrevLine:   line[n-2],
		PrevSignal: signalLine[n-2],
	}
	if isNaN(p.Line) || isNaN(p.Signal) || isNaN(p.PrevLine) || isNaN(p.PrevSignal) {
		return nil
	}
	return &p
}

// Bands holds Bollinger band levels.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger calculates Bollinger bands over the trailing period with the
// given standard deviation multiplier. Returns nil if insufficient data.
func Bollinger(closes []float64, period int, mult float64) *Bands {
	if period <= 0 || len(closes) < period {
		return nil
	}

	upper, middle, lower := talib.BBands(closes, period, mult, mult, talib.SMA)
	n := len(upper)
	if n == 0 {
		return nil
	}

	b := Bands{
		Upper:  upper[n-1],
		Middle: middle[n-1],
		Lower:  lower[n-1],
	}
	if isNaN(b.Upper) || isNaN(b.Middle) || isNaN(b.Lower) {
		return nil
	}
	return &b
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
