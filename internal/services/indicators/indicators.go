package indicators

import "math"

// RSI computes the Wilder relative strength index over closing prices.
// It returns one value per bar after the warm-up window, or nil when fewer
// than period+1 values are given.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}

	gains := 0.0
	losses := 0.0
	for i := 1; i <= period; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	out := make([]float64, 0, len(values)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		// Wilder smoothing
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// LastRSI returns the latest RSI value, or def when there is not enough data.
func LastRSI(values []float64, period int, def float64) float64 {
	rsi := RSI(values, period)
	if len(rsi) == 0 {
		return def
	}
	return rsi[len(rsi)-1]
}

// Volatility is the standard deviation of day-over-day percentage returns
// across the whole series. Returns 0 for fewer than two values.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (values[i]-prev)/prev)
	}

	mean := 0.0
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	variance := 0.0
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(changes))
	return math.Sqrt(variance)
}

// OLSSlope fits an ordinary least-squares line to the series with x being the
// index 0..n-1 and returns the slope, the mean of ys, and whether the fit was
// possible.
func OLSSlope(ys []float64) (slope, mean float64, ok bool) {
	n := len(ys)
	if n < 2 {
		return 0, 0, false
	}
	fn := float64(n)
	sumX := fn * (fn - 1) / 2
	sumY := 0.0
	sumXY := 0.0
	sumXX := 0.0
	for i, y := range ys {
		x := float64(i)
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return 0, 0, false
	}
	return (fn*sumXY - sumX*sumY) / den, sumY / fn, true
}
