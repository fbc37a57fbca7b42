// Package dashboard turns stored market data into rendered charts.
package dashboard

import "github.com/tickchart/tickchart/internal/chart"

// Fixed viewport of dashboard charts.
const (
	ChartWidth  = 800
	ChartHeight = 400
)

// RenderChart draws data as a single line series on surface. Errors from the
// chart library are returned unchanged.
func RenderChart(data []chart.Point, surface chart.Surface) error {
	c, err := chart.CreateChart(surface, chart.Options{Width: ChartWidth, Height: ChartHeight})
	if err != nil {
		return err
	}
	return c.AddLineSeries(chart.SeriesOpts{}).SetData(data)
}
