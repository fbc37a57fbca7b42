package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickchart/tickchart/internal/chart"
)

func TestKlineUnmarshalNumbersAndStrings(t *testing.T) {
	payload := `[
		{"open":"1.5","high":2,"low":"1.25","close":1.75,"volume":"100","time":60},
		{"open":1,"high":1,"low":1,"close":1,"volume":0,"time":120,"adjclose":"0.9"},
		{"open":1,"high":1,"low":1,"close":1,"volume":0,"time":180,"adjclose":null}
	]`
	var klines []Kline
	require.NoError(t, json.Unmarshal([]byte(payload), &klines))
	require.Len(t, klines, 3)

	assert.Equal(t, Kline{Open: 1.5, High: 2, Low: 1.25, Close: 1.75, Volume: 100, Time: 60}, klines[0])
	require.NotNil(t, klines[1].AdjClose)
	assert.InDelta(t, 0.9, *klines[1].AdjClose, 1e-9)
	assert.Nil(t, klines[2].AdjClose)
}

func TestKlineUnmarshalRejectsBadValues(t *testing.T) {
	var k Kline
	err := json.Unmarshal([]byte(`{"open":"abc","high":1,"low":1,"close":1,"volume":1,"time":1}`), &k)
	assert.ErrorContains(t, err, "market: kline open")

	err = json.Unmarshal([]byte(`{"open":true,"high":1,"low":1,"close":1,"volume":1,"time":1}`), &k)
	assert.ErrorContains(t, err, "wrong type")

	err = json.Unmarshal([]byte(`{"high":1,"low":1,"close":1,"volume":1,"time":1}`), &k)
	assert.ErrorContains(t, err, "missing value")
}

func TestClosePoints(t *testing.T) {
	klines := []Kline{{Close: 10, Time: 1}, {Close: 12, Time: 2}}
	assert.Equal(t, []chart.Point{{Time: 1, Value: 10}, {Time: 2, Value: 12}}, ClosePoints(klines))
	assert.Equal(t, []float64{10, 12}, Closes(klines))
}

func TestTimeframeRoundTrip(t *testing.T) {
	for tf, name := range timeframeNames {
		parsed, err := ParseTimeframe(name)
		require.NoError(t, err)
		assert.Equal(t, tf, parsed)
		assert.Equal(t, name, tf.String())
	}
	assert.Equal(t, 240, H4.Minutes())
	assert.Equal(t, 4*time.Hour, H4.Duration())

	_, err := ParseTimeframe("7m")
	assert.EqualError(t, err, "market: invalid timeframe: 7m")
}

func TestTimeframeJSON(t *testing.T) {
	var body struct {
		TF Timeframe `json:"tf"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tf":"1M"}`), &body))
	assert.Equal(t, MOS1, body.TF)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tf":"1M"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"tf":"2w"}`), &body))
}

func TestIsClosingTimeframe(t *testing.T) {
	at := func(month time.Month, day, hour, min, sec int) time.Time {
		return time.Date(2025, month, day, hour, min, sec, 0, time.Local)
	}
	cases := []struct {
		tf   string
		now  time.Time
		want bool
	}{
		{"1M", at(time.January, 1, 0, 0, 0), true},
		{"1M", at(time.January, 1, 0, 0, 1), true},
		{"1M", at(time.January, 1, 0, 1, 0), false},
		{"1M", at(time.January, 2, 0, 0, 0), false},
		{"2M", at(time.February, 1, 0, 0, 0), true},
		{"2M", at(time.March, 1, 0, 0, 0), false},
		{"3M", at(time.June, 1, 0, 0, 0), true},
		{"4M", at(time.June, 1, 0, 0, 0), false},
		{"4M", at(time.December, 1, 0, 0, 0), true},
		{"15m", at(time.January, 1, 0, 15, 0), true},
		{"15m", at(time.January, 1, 0, 15, 1), false},
		{"4h", at(time.January, 1, 4, 0, 0), true},
		{"4h", at(time.January, 1, 4, 0, 1), false},
		{"1d", at(time.January, 2, 0, 0, 0), true},
		{"1w", at(time.January, 6, 0, 0, 0), true},
		{"1w", at(time.January, 13, 0, 0, 0), true},
		{"1w", at(time.January, 1, 0, 0, 0), false},
	}
	for _, tc := range cases {
		got, err := IsClosingTimeframe(tc.tf, tc.now)
		require.NoError(t, err, tc.tf)
		assert.Equal(t, tc.want, got, "%s at %s", tc.tf, tc.now)
	}

	_, err := IsClosingTimeframe("5x", time.Now())
	assert.EqualError(t, err, "market: invalid timeframe unit: x")
	_, err = IsClosingTimeframe("xm", time.Now())
	assert.EqualError(t, err, "market: invalid timeframe value: x")
	_, err = IsClosingTimeframe("m", time.Now())
	assert.Error(t, err)
}

func TestTimeframeNamesOrdered(t *testing.T) {
	names := TimeframeNames()
	assert.Len(t, names, 14)
	assert.Equal(t, "1m", names[0])
	assert.Equal(t, "1h", names[4])
	assert.Equal(t, "1M", names[len(names)-1])
}
