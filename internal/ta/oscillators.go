package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// OHLC holds aligned price columns.
type OHLC struct {
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
}

// Len returns the number of bars.
func (o OHLC) Len() int { return len(o.Close) }

// RSI is the relative strength index using simple averages of gains and
// losses over length bars.
func RSI(src []float64, length int) []float64 {
	gains := make([]float64, len(src))
	losses := make([]float64, len(src))
	for i := range src {
		if i == 0 {
			// The first diff is undefined and ignored.
			gains[i], losses[i] = math.NaN(), math.NaN()
			continue
		}
		diff := src[i] - src[i-1]
		switch {
		case math.IsNaN(diff):
			gains[i], losses[i] = math.NaN(), math.NaN()
		case diff > 0:
			gains[i] = diff
		case diff < 0:
			losses[i] = -diff
		}
	}
	avgGain := rollingMean(gains, length)
	avgLoss := rollingMean(losses, length)
	out := make([]float64, len(src))
	for i := range out {
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// BarBias measures the directional pressure of each bar.
func BarBias(o OHLC) []float64 {
	out := make([]float64, o.Len())
	for i := range out {
		bull := o.High[i] - o.Open[i]
		bear := o.Open[i] - o.Low[i]
		balance := o.Close[i] - o.Open[i]
		out[i] = balance + bull - bear
	}
	return out
}

// RSSI is the RSI of the bar bias.
func RSSI(o OHLC, length int) []float64 {
	return RSI(BarBias(o), length)
}

// TrueRange is the greatest of high-low, high-prevClose and low-prevClose.
// The first bar uses high-low.
func TrueRange(o OHLC) []float64 {
	out := make([]float64, o.Len())
	for i := range out {
		hl := o.High[i] - o.Low[i]
		if i == 0 || math.IsNaN(o.Close[i-1]) {
			out[i] = hl
			continue
		}
		prev := o.Close[i-1]
		out[i] = math.Max(hl, math.Max(o.High[i]-prev, o.Low[i]-prev))
	}
	return out
}

// ATR is the RMA-smoothed true range.
func ATR(o OHLC, length int) []float64 {
	return RMA(TrueRange(o), length)
}

// Sharpe is a rolling ratio of mean deviation from the SMA to the standard
// deviation over length bars.
func Sharpe(src []float64, length int) []float64 {
	out := make([]float64, len(src))
	if length <= 0 {
		fillNaN(out)
		return out
	}
	sma := SMA(src, length)
	dev := make([]float64, len(src))
	for i := range src {
		dev[i] = src[i] - sma[i]
	}
	for i := range src {
		start := i - length + 1
		if start < 0 {
			start = 0
		}
		stdev := sampleStdDev(src[start : i+1])
		if math.IsNaN(stdev) {
			stdev = math.MaxFloat64
		}
		sum := 0.0
		for _, v := range dev[start : i+1] {
			if !math.IsNaN(v) {
				sum += v
			}
		}
		avg := sum / float64(length)
		if math.IsNaN(avg) {
			avg = 0
		}
		out[i] = avg / stdev
	}
	return out
}

func sampleStdDev(window []float64) float64 {
	values := make([]float64, 0, len(window))
	for _, v := range window {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}
