package chart

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"
)

type layout struct {
	padding     float64
	chartWidth  float64
	chartHeight float64
	minT, maxT  int64
	minV, maxV  float64
	scale       float64
}

// x maps a timestamp onto the horizontal axis. A zero-width time range is
// drawn in the centre of the plot.
func (l layout) x(t int64) float64 {
	if l.maxT == l.minT {
		return l.padding + l.chartWidth/2
	}
	return l.padding + float64(t-l.minT)/float64(l.maxT-l.minT)*l.chartWidth
}

func (l layout) y(v float64) float64 {
	return l.padding + l.chartHeight - (v-l.minV)*l.scale
}

func (c *Chart) layout() (layout, error) {
	l := layout{padding: c.opts.Padding}
	l.chartWidth = float64(c.opts.Width) - 2*l.padding
	l.chartHeight = float64(c.opts.Height) - 2*l.padding
	if l.chartWidth <= 0 || l.chartHeight <= 0 {
		return l, fmt.Errorf("chart: viewport too small")
	}

	first := true
	for _, s := range c.series {
		for _, p := range s.points {
			if first {
				l.minT, l.maxT = p.Time, p.Time
				first = false
				continue
			}
			if p.Time < l.minT {
				l.minT = p.Time
			}
			if p.Time > l.maxT {
				l.maxT = p.Time
			}
		}
	}

	l.minV, l.maxV = bounds(c.series)
	if l.minV > 0 {
		l.minV = 0
	}
	if l.maxV < 0 {
		l.maxV = 0
	}
	if almostEqual(l.maxV, l.minV) {
		l.maxV = l.minV + 1
	}
	l.scale = l.chartHeight / (l.maxV - l.minV)
	return l, nil
}

// WriteSVG writes the chart as a standalone SVG document.
func (c *Chart) WriteSVG(w io.Writer) error {
	l, err := c.layout()
	if err != nil {
		return err
	}
	axisColor := fallback(c.opts.AxisColor, "#475569")
	gridColor := fallback(c.opts.GridColor, "#cbd5f5")
	title := fallback(c.opts.Title, "Line chart")

	canvas := svg.New(w)
	canvas.Start(c.opts.Width, c.opts.Height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, c.opts.Width, c.opts.Height),
		fmt.Sprintf(`id="chart-%s"`, c.id),
		`role="img"`,
		fmt.Sprintf(`aria-label="%s"`, template.HTMLEscapeString(title)),
	)
	canvas.Title(title)
	canvas.Desc(fallback(c.opts.Description, "Time series"))

	// Grid lines and ticks
	ticks := c.opts.TickCount
	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := l.padding + l.chartHeight - ratio*l.chartHeight
		value := l.minV + (l.maxV-l.minV)*ratio
		canvas.Line(px(l.padding), px(y), px(l.padding+l.chartWidth), px(y),
			fmt.Sprintf("stroke:%s;stroke-width:0.5;stroke-dasharray:2,4", gridColor), `aria-hidden="true"`)
		canvas.Text(px(l.padding-6), px(y+4), formatTick(value),
			fmt.Sprintf("fill:%s;font-size:10px;text-anchor:end", axisColor))
	}

	// Axes
	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:1", axisColor))
	canvas.Line(px(l.padding), px(l.padding), px(l.padding), px(l.padding+l.chartHeight))
	canvas.Line(px(l.padding), px(l.padding+l.chartHeight), px(l.padding+l.chartWidth), px(l.padding+l.chartHeight))
	canvas.Gend()

	for i, s := range c.series {
		path, firstX, lastX := seriesPath(l, s.points)
		if path == "" {
			continue
		}
		if i == 0 && c.opts.FillColor != "" && !strings.Contains(path, " M") {
			base := l.padding + l.chartHeight
			area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path, lastX, base, firstX, base)
			canvas.Path(area, fmt.Sprintf("fill:%s;stroke:none", c.opts.FillColor), `aria-hidden="true"`)
		}
		canvas.Path(path,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g;stroke-linejoin:round;stroke-linecap:round", s.opts.Color, s.opts.LineWidth),
			fmt.Sprintf(`aria-label="%s"`, template.HTMLEscapeString(fallback(s.opts.Title, fmt.Sprintf("Series %d", i+1)))))
		if c.opts.ShowDots {
			for _, p := range s.points {
				if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
					continue
				}
				canvas.Circle(px(l.x(p.Time)), px(l.y(p.Value)), 3, "fill:"+s.opts.Color)
			}
		}
	}

	// X-axis labels
	if c.hasPoints() {
		labelStyle := fmt.Sprintf("fill:%s;font-size:10px;text-anchor:middle", axisColor)
		baseY := px(l.padding + l.chartHeight + 14)
		canvas.Text(px(l.x(l.minT)), baseY, formatTime(l.minT, c.opts.TimeLayout), labelStyle)
		if l.maxT != l.minT {
			canvas.Text(px(l.x(l.maxT)), baseY, formatTime(l.maxT, c.opts.TimeLayout), labelStyle)
		}
	}

	canvas.End()
	return nil
}

func (c *Chart) hasPoints() bool {
	for _, s := range c.series {
		if len(s.points) > 0 {
			return true
		}
	}
	return false
}

// seriesPath builds the path data for a series. Non-finite values break the
// line into separate segments.
func seriesPath(l layout, points []Point) (string, float64, float64) {
	var path strings.Builder
	firstX, lastX := 0.0, 0.0
	penUp := true
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			penUp = true
			continue
		}
		x, y := l.x(p.Time), l.y(p.Value)
		switch {
		case path.Len() == 0:
			firstX = x
			path.WriteString(fmt.Sprintf("M%.2f %.2f", x, y))
		case penUp:
			path.WriteString(fmt.Sprintf(" M%.2f %.2f", x, y))
		default:
			path.WriteString(fmt.Sprintf(" L%.2f %.2f", x, y))
		}
		penUp = false
		lastX = x
	}
	return path.String(), firstX, lastX
}

func formatTime(t int64, layout string) string {
	return time.Unix(t, 0).UTC().Format(layout)
}

func px(v float64) int {
	return int(math.Round(v))
}
