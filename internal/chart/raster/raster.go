// Package raster provides a chart surface that rasterises charts to PNG.
package raster

import (
	"bytes"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/tickchart/tickchart/internal/chart"
)

// pixelDPI makes one vg point map onto one output pixel.
const pixelDPI = 72

// Surface keeps the latest PNG paint of a chart.
type Surface struct {
	mu      sync.Mutex
	content []byte
	paints  int
}

// New returns an empty PNG surface.
func New() *Surface {
	return &Surface{}
}

// Paint implements chart.Surface.
func (s *Surface) Paint(c *chart.Chart) error {
	if s == nil {
		return chart.ErrInvalidSurface
	}
	opts := c.Options()
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Tick.Marker = plot.TimeTicks{Format: opts.TimeLayout}
	p.Add(plotter.NewGrid())

	for _, series := range c.Series() {
		xys := toXYs(series.Data())
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		sopts := series.Options()
		line.Color = parseColor(sopts.Color)
		line.Width = vg.Points(sopts.LineWidth)
		p.Add(line)
		if sopts.Title != "" {
			p.Legend.Add(sopts.Title, line)
		}
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(c.Width()), vg.Length(c.Height())),
		vgimg.UseDPI(pixelDPI),
	)
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(&buf); err != nil {
		return err
	}

	s.mu.Lock()
	s.content = buf.Bytes()
	s.paints++
	s.mu.Unlock()
	return nil
}

// Bytes returns a copy of the latest PNG image.
func (s *Surface) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.content)
}

// WriteTo writes the latest PNG image to w.
func (s *Surface) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.Bytes())
	return int64(n), err
}

// toXYs drops non-finite samples, which gonum rejects.
func toXYs(points []chart.Point) plotter.XYs {
	xys := make(plotter.XYs, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(p.Time), Y: p.Value})
	}
	return xys
}

func parseColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Black
	}
	return c
}
