// Package chart implements a small charting widget that paints time series
// into caller-owned surfaces.
package chart

import (
	"bytes"
	"errors"
	"html/template"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSurface is returned when a chart is created without a surface.
	ErrInvalidSurface = errors.New("chart: invalid surface")
	// ErrDetached is returned by surfaces that can no longer be painted.
	ErrDetached = errors.New("chart: surface detached")
)

// Surface is a render target owned by the caller. The chart borrows it and
// repaints it every time its content changes; a surface keeps only the most
// recent paint.
type Surface interface {
	Paint(c *Chart) error
}

// Chart is a widget bound to a Surface. It is not safe for concurrent use.
type Chart struct {
	id      string
	opts    Options
	surface Surface
	series  []*LineSeries
}

// CreateChart binds a new chart to surface and paints it once.
func CreateChart(surface Surface, opts Options) (*Chart, error) {
	if surface == nil {
		return nil, ErrInvalidSurface
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if opts.TickCount <= 0 {
		opts.TickCount = DefaultTicks
	}
	if strings.TrimSpace(opts.TimeLayout) == "" {
		opts.TimeLayout = DefaultTimeLayout
	}
	c := &Chart{id: uuid.NewString(), opts: opts, surface: surface}
	if err := c.paint(); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the unique identifier of the chart instance.
func (c *Chart) ID() string { return c.id }

// Options returns the resolved chart options.
func (c *Chart) Options() Options { return c.opts }

// Width returns the fixed viewport width.
func (c *Chart) Width() int { return c.opts.Width }

// Height returns the fixed viewport height.
func (c *Chart) Height() int { return c.opts.Height }

// Series returns the line series attached to the chart in insertion order.
func (c *Chart) Series() []*LineSeries {
	out := make([]*LineSeries, len(c.series))
	copy(out, c.series)
	return out
}

// AddLineSeries attaches an empty line series. The surface is repainted once
// data is set.
func (c *Chart) AddLineSeries(opts SeriesOpts) *LineSeries {
	if opts.Color == "" {
		opts.Color = palette[len(c.series)%len(palette)]
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 2
	}
	s := &LineSeries{chart: c, opts: opts}
	c.series = append(c.series, s)
	return s
}

// SVG renders the chart as inline markup suitable for HTML templates.
func (c *Chart) SVG() (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		return "", err
	}
	markup := buf.String()
	if i := strings.Index(markup, "<svg"); i > 0 {
		markup = markup[i:]
	}
	return template.HTML(strings.TrimSpace(markup)), nil
}

func (c *Chart) paint() error {
	return c.surface.Paint(c)
}

// LineSeries is one plotted trace of a chart.
type LineSeries struct {
	chart  *Chart
	opts   SeriesOpts
	points []Point
}

// SetData replaces the series points and repaints the surface. Points are
// kept exactly as given.
func (s *LineSeries) SetData(points []Point) error {
	s.points = make([]Point, len(points))
	copy(s.points, points)
	return s.chart.paint()
}

// Data returns a copy of the series points.
func (s *LineSeries) Data() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Options returns the resolved series options.
func (s *LineSeries) Options() SeriesOpts { return s.opts }
