package ta

import (
	"fmt"
	"sort"

	"github.com/tickchart/tickchart/internal/chart"
	"github.com/tickchart/tickchart/internal/market"
)

type indicatorFunc func(o OHLC, length int) []float64

var indicators = map[string]indicatorFunc{
	"sma":    func(o OHLC, n int) []float64 { return SMA(o.Close, n) },
	"ema":    func(o OHLC, n int) []float64 { return EMA(o.Close, n) },
	"rma":    func(o OHLC, n int) []float64 { return RMA(o.Close, n) },
	"rsi":    func(o OHLC, n int) []float64 { return RSI(o.Close, n) },
	"atr":    ATR,
	"bias":   func(o OHLC, _ int) []float64 { return BarBias(o) },
	"rssi":   RSSI,
	"sharpe": func(o OHLC, n int) []float64 { return Sharpe(o.Close, n) },
}

// Names lists the registered indicator names.
func Names() []string {
	names := make([]string, 0, len(indicators))
	for name := range indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered indicator.
func Known(name string) bool {
	_, ok := indicators[name]
	return ok
}

// FromKlines splits klines into OHLC columns.
func FromKlines(klines []market.Kline) OHLC {
	o := OHLC{
		Open:  make([]float64, len(klines)),
		High:  make([]float64, len(klines)),
		Low:   make([]float64, len(klines)),
		Close: make([]float64, len(klines)),
	}
	for i, k := range klines {
		o.Open[i], o.High[i], o.Low[i], o.Close[i] = k.Open, k.High, k.Low, k.Close
	}
	return o
}

// Apply computes the named indicator over klines and aligns the result with
// the kline timestamps.
func Apply(name string, klines []market.Kline, length int) ([]chart.Point, error) {
	fn, ok := indicators[name]
	if !ok {
		return nil, fmt.Errorf("ta: unknown indicator %q", name)
	}
	if length <= 0 {
		return nil, fmt.Errorf("ta: length must be positive")
	}
	values := fn(FromKlines(klines), length)
	points := make([]chart.Point, len(klines))
	for i, k := range klines {
		points[i] = chart.Point{Time: k.Time, Value: values[i]}
	}
	return points, nil
}
