package chart

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tickPrinter = message.NewPrinter(language.English)

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

// bounds returns the finite value range across all series, or (0, 0) when
// nothing is plotted.
func bounds(series []*LineSeries) (float64, float64) {
	minVal, maxVal := 0.0, 0.0
	seen := false
	for _, s := range series {
		for _, p := range s.points {
			v := p.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if !seen {
				minVal, maxVal = v, v
				seen = true
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return tickPrinter.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return tickPrinter.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return tickPrinter.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return tickPrinter.Sprintf("%.0f", v)
		}
		return tickPrinter.Sprintf("%.2f", v)
	}
}
