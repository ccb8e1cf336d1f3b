package ta

import "math"

// SMA returns the simple moving average of the last n values, or NaN when
// fewer than n values exist.
func SMA(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

// EMASeries returns the exponential moving average series seeded with the
// SMA of the first n values. out[0] corresponds to vals[n-1].
func EMASeries(vals []float64, n int) []float64 {
	if len(vals) < n || n <= 0 {
		return nil
	}
	k := 2.0 / float64(n+1)
	out := make([]float64, 0, len(vals)-n+1)
	prev := SMA(vals[:n], n)
	out = append(out, prev)
	for i := n; i < len(vals); i++ {
		prev = (vals[i]-prev)*k + prev
		out = append(out, prev)
	}
	return out
}

// EMA returns the latest value of EMASeries.
func EMA(vals []float64, n int) float64 {
	s := EMASeries(vals, n)
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// RSI uses Wilder smoothing over the whole series.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD returns the latest MACD line (EMA fast - EMA slow) and its signal
// line, the EMA of the MACD series over signal periods.
func MACD(closes []float64, fast, slow, signal int) (line, sig float64) {
	fs := EMASeries(closes, fast)
	ss := EMASeries(closes, slow)
	if ss == nil || fs == nil {
		return math.NaN(), math.NaN()
	}
	// align fast series to the slow one
	offset := slow - fast
	series := make([]float64, len(ss))
	for i := range ss {
		series[i] = fs[i+offset] - ss[i]
	}
	line = series[len(series)-1]
	sigSeries := EMASeries(series, signal)
	if len(sigSeries) == 0 {
		return line, math.NaN()
	}
	return line, sigSeries[len(sigSeries)-1]
}

// StdDev is the population standard deviation of the last n values.
func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = mid + k*sd
	low = mid - k*sd
	return
}

// Stochastic returns %K over kPeriod and %D as the SMA of the last dPeriod
// %K values. A flat range yields %K of 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	if len(highs) != len(lows) || len(lows) != len(closes) || kPeriod <= 0 || dPeriod <= 0 {
		return math.NaN(), math.NaN()
	}
	if len(closes) < kPeriod+dPeriod-1 {
		return math.NaN(), math.NaN()
	}
	ks := make([]float64, 0, dPeriod)
	for end := len(closes) - dPeriod + 1; end <= len(closes); end++ {
		hh, ll := math.Inf(-1), math.Inf(1)
		for i := end - kPeriod; i < end; i++ {
			hh = math.Max(hh, highs[i])
			ll = math.Min(ll, lows[i])
		}
		v := 50.0
		if hh > ll {
			v = (closes[end-1] - ll) / (hh - ll) * 100
		}
		ks = append(ks, v)
	}
	return ks[len(ks)-1], SMA(ks, dPeriod)
}

// AnnualizedVolatility is the population stddev of the last period log
// returns scaled by sqrt(252). Returns 0 with fewer than period+1 closes.
func AnnualizedVolatility(closes []float64, period int) float64 {
	if period < 1 || len(closes) < period+1 {
		return 0
	}
	window := closes[len(closes)-period-1:]
	rets := make([]float64, 0, period)
	for i := 1; i < len(window); i++ {
		if window[i-1] <= 0 || window[i] <= 0 {
			continue
		}
		rets = append(rets, math.Log(window[i]/window[i-1]))
	}
	if len(rets) == 0 {
		return 0
	}
	sd := StdDev(rets, len(rets))
	return sd * math.Sqrt(252)
}
