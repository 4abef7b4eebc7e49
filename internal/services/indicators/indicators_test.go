package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRSIInsufficientData(t *testing.T) {
	require.Nil(t, RSI([]float64{1, 2, 3}, 14))
	require.Nil(t, RSI(nil, 14))
	require.Nil(t, RSI([]float64{1, 2, 3}, 0))
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	out := RSI(values, 14)

	require.Len(t, out, 1)
	require.InDelta(t, 100.0, out[0], 1e-9)
}

func TestRSIBalancedSeriesIsFifty(t *testing.T) {
	// alternating +1/-1 deltas, seven of each over the warm-up window
	values := make([]float64, 15)
	for i := range values {
		if i%2 == 0 {
			values[i] = 10
		} else {
			values[i] = 11
		}
	}
	out := RSI(values, 14)

	require.Len(t, out, 1)
	require.InDelta(t, 50.0, out[0], 1e-9)
}

func TestRSIWilderSmoothing(t *testing.T) {
	values := make([]float64, 16)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	values[15] = values[14] - 7 // one loss after a pure-gain warm-up

	out := RSI(values, 14)
	require.Len(t, out, 2)
	// avgGain=(1*13+0)/14, avgLoss=(0*13+7)/14, rs=13/7
	require.InDelta(t, 65.0, out[1], 1e-9)
}

func TestLastRSIDefault(t *testing.T) {
	require.InDelta(t, 50.0, LastRSI([]float64{1, 2}, 14, 50), 1e-9)

	values := make([]float64, 15)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	require.InDelta(t, 100.0, LastRSI(values, 14, 50), 1e-9)
}

func TestVolatility(t *testing.T) {
	require.Zero(t, Volatility(nil))
	require.Zero(t, Volatility([]float64{100}))
	require.Zero(t, Volatility([]float64{100, 100, 100}))
	// two returns of +10% and -10%: mean 0, stddev 0.1
	require.InDelta(t, 0.1, Volatility([]float64{100, 110, 99}), 1e-9)
	// single return has no spread
	require.Zero(t, Volatility([]float64{100, 110}))
}

func TestVolatilityZeroPriceGuard(t *testing.T) {
	// a zero bar must not divide by zero
	require.NotPanics(t, func() { Volatility([]float64{0, 100, 110}) })
}

func TestOLSSlope(t *testing.T) {
	_, _, ok := OLSSlope([]float64{1})
	require.False(t, ok)

	slope, mean, ok := OLSSlope([]float64{1, 3, 5, 7})
	require.True(t, ok)
	require.InDelta(t, 2.0, slope, 1e-9)
	require.InDelta(t, 4.0, mean, 1e-9)

	slope, mean, ok = OLSSlope([]float64{5, 5, 5})
	require.True(t, ok)
	require.Zero(t, slope)
	require.InDelta(t, 5.0, mean, 1e-9)
}
