package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearSeries builds an increasing price series of the given length.
func linearSeries(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100.0 + float64(i)
	}
	return prices
}

func TestSMA(t *testing.T) {
	sma := SMA([]float64{1, 2, 3, 4, 5}, 5)

	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)
}

func TestSMA_InsufficientData(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2, 3}, 5))
	assert.Nil(t, SMA(nil, 20))
}

func TestRSI_RangeAndExtremes(t *testing.T) {
	// Monotonically rising prices push RSI toward 100.
	rsi := RSI(linearSeries(50), 14)

	require.NotNil(t, rsi)
	assert.GreaterOrEqual(t, *rsi, 0.0)
	assert.LessOrEqual(t, *rsi, 100.0)
	assert.Greater(t, *rsi, 70.0)
}

func TestRSI_InsufficientData(t *testing.T) {
	assert.Nil(t, RSI(linearSeries(14), 14))
}

func TestMACD_RisingTrendIsPositive(t *testing.T) {
	// Exponential rise keeps the fast EMA above the slow EMA.
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100.0 * math.Pow(1.01, float64(i))
	}

	p := MACD(prices, 12, 26, 9)

	require.NotNil(t, p)
	assert.Greater(t, p.Line, 0.0)
}

func TestMACD_InsufficientData(t *testing.T) {
	assert.Nil(t, MACD(linearSeries(30), 12, 26, 9))
}

func TestBollinger(t *testing.T) {
	prices := []float64{100, 102, 98, 101, 99, 100, 103, 97, 100, 102,
		98, 101, 99, 100, 103, 97, 100, 102, 98, 101}

	b := Bollinger(prices, 20, 2.0)

	require.NotNil(t, b)
	assert.Greater(t, b.Upper, b.Middle)
	assert.Less(t, b.Lower, b.Middle)
	assert.InDelta(t, Mean(prices), b.Middle, 1e-6)
}

func TestBollinger_InsufficientData(t *testing.T) {
	assert.Nil(t, Bollinger(linearSeries(10), 20, 2.0))
}
