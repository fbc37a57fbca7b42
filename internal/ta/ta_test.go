package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickchart/tickchart/internal/market"
)

func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestSMAUsesPartialWindows(t *testing.T) {
	assertSeries(t, []float64{1, 1.5, 2, 3, 4}, SMA([]float64{1, 2, 3, 4, 5}, 3))
}

func TestEMAAndRMA(t *testing.T) {
	src := []float64{1, 2, 3}
	// alpha = 0.5
	assertSeries(t, []float64{1, 1.5, 2.25}, EMA(src, 3))
	// alpha = 1/3
	assertSeries(t, []float64{1, 1 + 1.0/3, (3 + 2*(1+1.0/3)) / 3}, RMA(src, 3))
}

func TestEWMSkipsLeadingNaN(t *testing.T) {
	nan := math.NaN()
	assertSeries(t, []float64{nan, 2, 2}, EMA([]float64{nan, 2, nan}, 3))
}

func TestRSI(t *testing.T) {
	// diffs: -, +1, +1, -1, +2
	got := RSI([]float64{1, 2, 3, 2, 4}, 2)
	nan := math.NaN()
	assertSeries(t, []float64{nan, nan, 100, 50, 100 - 100/(1+2.0)}, got)
}

func TestTrueRangeAndATR(t *testing.T) {
	o := OHLC{
		Open:  []float64{10, 11, 12},
		High:  []float64{12, 13, 15},
		Low:   []float64{9, 10, 11},
		Close: []float64{11, 12, 9},
	}
	tr := TrueRange(o)
	// first bar: h-l; then max(h-l, h-prevC, l-prevC)
	assertSeries(t, []float64{3, 3, 4}, tr)
	assertSeries(t, RMA(tr, 2), ATR(o, 2))
}

func TestBarBiasAndRSSI(t *testing.T) {
	o := OHLC{
		Open:  []float64{10, 10},
		High:  []float64{12, 11},
		Low:   []float64{9, 8},
		Close: []float64{11, 9},
	}
	// (c-o) + (h-o) - (o-l)
	assertSeries(t, []float64{1 + 2 - 1, -1 + 1 - 2}, BarBias(o))
	assertSeries(t, RSI(BarBias(o), 1), RSSI(o, 1))
}

func TestSharpeFirstBarIsZero(t *testing.T) {
	got := Sharpe([]float64{1, 2, 3, 4}, 2)
	require.Len(t, got, 4)
	// A single sample has no deviation, so the ratio collapses to zero.
	assert.Equal(t, 0.0, got[0])
	for _, v := range got {
		assert.False(t, math.IsNaN(v))
	}
}

func TestApply(t *testing.T) {
	klines := []market.Kline{
		{Open: 1, High: 2, Low: 0.5, Close: 1, Time: 60},
		{Open: 1, High: 3, Low: 1, Close: 2, Time: 120},
		{Open: 2, High: 4, Low: 2, Close: 3, Time: 180},
	}
	points, err := Apply("sma", klines, 2)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, int64(180), points[2].Time)
	assert.InDelta(t, 2.5, points[2].Value, 1e-9)

	_, err = Apply("macd", klines, 2)
	assert.EqualError(t, err, `ta: unknown indicator "macd"`)
	_, err = Apply("sma", klines, 0)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"atr", "bias", "ema", "rma", "rsi", "rssi", "sharpe", "sma"}, Names())
	assert.True(t, Known("rsi"))
	assert.False(t, Known("macd"))
}
