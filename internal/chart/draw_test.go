package chart

import (
	"math"
	"strings"
	"testing"
)

func TestWriteSVGProducesDocument(t *testing.T) {
	buf := NewBuffer()
	c, err := CreateChart(buf, Options{Title: "BTC-USDT close", Description: "5m closes", ShowDots: true})
	if err != nil {
		t.Fatalf("create chart: %v", err)
	}
	if err := c.AddLineSeries(SeriesOpts{Title: "close"}).SetData([]Point{{Time: 60, Value: 100}, {Time: 120, Value: 200}, {Time: 180, Value: 150}}); err != nil {
		t.Fatalf("set data: %v", err)
	}
	output := string(buf.Bytes())
	if !strings.Contains(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, `viewBox="0 0 800 400"`) {
		t.Fatalf("expected fixed viewBox")
	}
	if !strings.Contains(output, `aria-label="BTC-USDT close"`) {
		t.Fatalf("expected accessibility attributes")
	}
	if strings.Count(output, "<circle") != 3 {
		t.Fatalf("expected one dot per point")
	}
}

func TestWriteSVGEmptyChartHasNoTrace(t *testing.T) {
	buf := NewBuffer()
	if _, err := CreateChart(buf, Options{}); err != nil {
		t.Fatalf("create chart: %v", err)
	}
	output := string(buf.Bytes())
	if !strings.Contains(output, "<line") {
		t.Fatalf("expected axes in empty chart")
	}
	if strings.Contains(output, "<path") {
		t.Fatalf("expected no trace in empty chart")
	}
}

func TestSeriesPathBreaksOnNaN(t *testing.T) {
	l := layout{padding: 10, chartWidth: 100, chartHeight: 100, minT: 0, maxT: 3, minV: 0, maxV: 10, scale: 10}
	path, firstX, lastX := seriesPath(l, []Point{{0, 1}, {1, math.NaN()}, {2, 3}, {3, 4}})
	if strings.Count(path, "M") != 2 {
		t.Fatalf("expected two segments, got %q", path)
	}
	if firstX != 10 || math.Abs(lastX-110) > 1e-9 {
		t.Fatalf("unexpected extent %.2f..%.2f", firstX, lastX)
	}
}

func TestLayoutCentresSingleTimestamp(t *testing.T) {
	l := layout{padding: 10, chartWidth: 100, minT: 5, maxT: 5}
	if got := l.x(5); got != 60 {
		t.Fatalf("expected centred x, got %.2f", got)
	}
}

func TestFormatTick(t *testing.T) {
	cases := map[float64]string{
		0:             "0",
		12.5:          "12.50",
		1500:          "1.5k",
		-2_000_000:    "-2.0M",
		3_000_000_000: "3.0B",
	}
	for in, want := range cases {
		if got := formatTick(in); got != want {
			t.Errorf("formatTick(%v) = %q, want %q", in, got, want)
		}
	}
}
