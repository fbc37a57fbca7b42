package market

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Timeframe is a candle interval. Its value is the length in minutes.
type Timeframe int

// Supported timeframes.
const (
	M1   Timeframe = 1
	M5   Timeframe = 5
	M15  Timeframe = 15
	M30  Timeframe = 30
	H1   Timeframe = 60
	H2   Timeframe = 120
	H4   Timeframe = 240
	H6   Timeframe = 360
	H8   Timeframe = 480
	H12  Timeframe = 720
	D1   Timeframe = 1_440
	D3   Timeframe = 4_320
	W1   Timeframe = 10_080
	MOS1 Timeframe = 43_200
)

var timeframeNames = map[Timeframe]string{
	M1: "1m", M5: "5m", M15: "15m", M30: "30m",
	H1: "1h", H2: "2h", H4: "4h", H6: "6h", H8: "8h", H12: "12h",
	D1: "1d", D3: "3d", W1: "1w", MOS1: "1M",
}

var timeframesByName = func() map[string]Timeframe {
	m := make(map[string]Timeframe, len(timeframeNames))
	for tf, name := range timeframeNames {
		m[name] = tf
	}
	return m
}()

// TimeframeNames lists the supported timeframe names from shortest to longest.
func TimeframeNames() []string {
	tfs := make([]Timeframe, 0, len(timeframeNames))
	for tf := range timeframeNames {
		tfs = append(tfs, tf)
	}
	slices.Sort(tfs)
	names := make([]string, len(tfs))
	for i, tf := range tfs {
		names[i] = tf.String()
	}
	return names
}

// ParseTimeframe resolves names such as "5m", "4h" or "1M".
func ParseTimeframe(s string) (Timeframe, error) {
	tf, ok := timeframesByName[s]
	if !ok {
		return 0, fmt.Errorf("market: invalid timeframe: %s", s)
	}
	return tf, nil
}

func (tf Timeframe) String() string {
	if name, ok := timeframeNames[tf]; ok {
		return name
	}
	return strconv.Itoa(int(tf)) + "min"
}

// Minutes returns the weight of the timeframe in minutes.
func (tf Timeframe) Minutes() int { return int(tf) }

// Duration returns the nominal candle length. Months count as 30 days.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf) * time.Minute
}

// MarshalText implements encoding.TextMarshaler.
func (tf Timeframe) MarshalText() ([]byte, error) {
	name, ok := timeframeNames[tf]
	if !ok {
		return nil, fmt.Errorf("market: invalid timeframe: %d", int(tf))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (tf *Timeframe) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeframe(string(text))
	if err != nil {
		return err
	}
	*tf = parsed
	return nil
}

// IsClosingTimeframe reports whether a candle of timeframe tf (e.g. "15m",
// "4h", "3M") closes at now. Intraday periods are aligned to local midnight.
func IsClosingTimeframe(tf string, now time.Time) (bool, error) {
	if len(tf) < 2 {
		return false, fmt.Errorf("market: invalid timeframe: %s", tf)
	}
	valueStr, unit := tf[:len(tf)-1], tf[len(tf)-1:]
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return false, fmt.Errorf("market: invalid timeframe value: %s", valueStr)
	}

	switch unit {
	case "m":
		return isMultipleOfPeriod(time.Duration(value)*time.Minute, now), nil
	case "h":
		return isMultipleOfPeriod(time.Duration(value)*time.Hour, now), nil
	case "d":
		return isMultipleOfPeriod(time.Duration(value)*24*time.Hour, now), nil
	case "w":
		// Weeks close on ISO week boundaries (Monday midnight).
		if value == 0 || now.Weekday() != time.Monday || secondsSinceMidnight(now) != 0 {
			return false, nil
		}
		_, week := now.ISOWeek()
		return int64(week)%value == 0, nil
	case "M":
		if value == 0 {
			return false, nil
		}
		return now.Day() == 1 && secondsSinceMidnight(now) < 60 && int64(now.Month())%value == 0, nil
	default:
		return false, fmt.Errorf("market: invalid timeframe unit: %s", unit)
	}
}

func isMultipleOfPeriod(period time.Duration, now time.Time) bool {
	seconds := int64(period / time.Second)
	if seconds == 0 {
		return false
	}
	return secondsSinceMidnight(now)%seconds == 0
}

func secondsSinceMidnight(t time.Time) int64 {
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
