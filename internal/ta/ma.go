// Package ta computes technical indicators over price columns. Undefined
// values are reported as NaN.
package ta

import "math"

// SMA is the simple moving average. Leading partial windows are averaged
// over the values seen so far.
func SMA(src []float64, length int) []float64 {
	out := make([]float64, len(src))
	if length <= 0 {
		fillNaN(out)
		return out
	}
	sum := 0.0
	count := 0
	for i, v := range src {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
		if i >= length {
			if old := src[i-length]; !math.IsNaN(old) {
				sum -= old
				count--
			}
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// EMA is the exponential moving average with alpha = 2 / (length + 1).
func EMA(src []float64, length int) []float64 {
	return ewm(src, 2/(float64(length)+1))
}

// RMA is the exponential moving average with alpha = 1 / length.
func RMA(src []float64, length int) []float64 {
	return ewm(src, 1/float64(length))
}

// ewm is an unadjusted exponentially weighted mean seeded with the first
// defined value. NaN inputs carry the previous mean forward.
func ewm(src []float64, alpha float64) []float64 {
	out := make([]float64, len(src))
	if alpha <= 0 || alpha > 1 || math.IsInf(alpha, 0) {
		fillNaN(out)
		return out
	}
	mean := math.NaN()
	for i, v := range src {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(mean):
			mean = v
		default:
			mean = alpha*v + (1-alpha)*mean
		}
		out[i] = mean
	}
	return out
}

// rollingMean averages complete windows only; earlier positions are NaN.
// Windows containing NaN are NaN.
func rollingMean(src []float64, length int) []float64 {
	out := make([]float64, len(src))
	fillNaN(out)
	if length <= 0 {
		return out
	}
	for i := length - 1; i < len(src); i++ {
		sum := 0.0
		valid := true
		for _, v := range src[i-length+1 : i+1] {
			if math.IsNaN(v) {
				valid = false
				break
			}
			sum += v
		}
		if valid {
			out[i] = sum / float64(length)
		}
	}
	return out
}

func fillNaN(out []float64) {
	for i := range out {
		out[i] = math.NaN()
	}
}
