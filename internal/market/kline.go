// Package market models candlestick data and timeframes.
package market

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/tickchart/tickchart/internal/chart"
)

// Kline is one OHLCV candle. Time is the open time in unix seconds.
type Kline struct {
	Open     float64  `json:"open"`
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Close    float64  `json:"close"`
	Volume   float64  `json:"volume"`
	Time     int64    `json:"time"`
	AdjClose *float64 `json:"adjclose,omitempty"`
}

type rawKline struct {
	Open     any   `json:"open"`
	High     any   `json:"high"`
	Low      any   `json:"low"`
	Close    any   `json:"close"`
	Volume   any   `json:"volume"`
	Time     int64 `json:"time"`
	AdjClose any   `json:"adjclose"`
}

// UnmarshalJSON accepts prices encoded either as numbers or numeric strings,
// as exchanges disagree on the representation.
func (k *Kline) UnmarshalJSON(data []byte) error {
	var raw rawKline
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := []struct {
		name string
		src  any
		dst  *float64
	}{
		{"open", raw.Open, &k.Open},
		{"high", raw.High, &k.High},
		{"low", raw.Low, &k.Low},
		{"close", raw.Close, &k.Close},
		{"volume", raw.Volume, &k.Volume},
	}
	for _, f := range fields {
		v, err := toFloat(f.src)
		if err != nil {
			return fmt.Errorf("market: kline %s: %w", f.name, err)
		}
		*f.dst = v
	}
	k.Time = raw.Time
	k.AdjClose = nil
	if raw.AdjClose != nil {
		v, err := toFloat(raw.AdjClose)
		if err != nil {
			return fmt.Errorf("market: kline adjclose: %w", err)
		}
		k.AdjClose = &v
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch v.(type) {
	case string, float64:
		return cast.ToFloat64E(v)
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("wrong type %T", v)
	}
}

// ClosePoints projects klines onto their close prices.
func ClosePoints(klines []Kline) []chart.Point {
	points := make([]chart.Point, len(klines))
	for i, k := range klines {
		points[i] = chart.Point{Time: k.Time, Value: k.Close}
	}
	return points
}

// Closes returns the close price column.
func Closes(klines []Kline) []float64 {
	out := make([]float64, len(klines))
	for i, k := range klines {
		out[i] = k.Close
	}
	return out
}
