package dashboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickchart/tickchart/internal/chart"
)

type brokenSurface struct{ err error }

func (s brokenSurface) Paint(*chart.Chart) error { return s.err }

func TestRenderChartEmptyData(t *testing.T) {
	buf := chart.NewBuffer()
	require.NoError(t, RenderChart(nil, buf))

	c := buf.Chart()
	require.NotNil(t, c)
	require.Len(t, c.Series(), 1)
	assert.Empty(t, c.Series()[0].Data())
}

func TestRenderChartKeepsDataVerbatim(t *testing.T) {
	data := []chart.Point{{Time: 3, Value: 1}, {Time: 1, Value: 5}, {Time: 2, Value: -4}, {Time: 2, Value: 7}}
	buf := chart.NewBuffer()
	require.NoError(t, RenderChart(data, buf))
	assert.Equal(t, data, buf.Chart().Series()[0].Data())
}

func TestRenderChartFixedSize(t *testing.T) {
	for _, n := range []int{0, 1, 500} {
		data := make([]chart.Point, n)
		for i := range data {
			data[i] = chart.Point{Time: int64(i), Value: float64(i * i)}
		}
		buf := chart.NewBuffer()
		require.NoError(t, RenderChart(data, buf))
		assert.Equal(t, 800, buf.Chart().Width())
		assert.Equal(t, 400, buf.Chart().Height())
		assert.Contains(t, string(buf.Bytes()), `viewBox="0 0 800 400"`)
	}
}

func TestRenderChartPropagatesSurfaceErrors(t *testing.T) {
	assert.Same(t, chart.ErrInvalidSurface, RenderChart([]chart.Point{{Time: 1, Value: 1}}, nil))

	boom := errors.New("surface gone")
	assert.Same(t, boom, RenderChart(nil, brokenSurface{err: boom}))

	buf := chart.NewBuffer()
	buf.Detach()
	assert.Same(t, chart.ErrDetached, RenderChart(nil, buf))

	var typedNil *chart.Buffer
	assert.NotPanics(t, func() {
		assert.Same(t, chart.ErrInvalidSurface, RenderChart(nil, typedNil))
	})
}

func TestRenderChartScenario(t *testing.T) {
	buf := chart.NewBuffer()
	err := RenderChart([]chart.Point{{Time: 1, Value: 10}, {Time: 2, Value: 12}}, buf)
	require.NoError(t, err)

	c := buf.Chart()
	assert.Equal(t, []chart.Point{{Time: 1, Value: 10}, {Time: 2, Value: 12}}, c.Series()[0].Data())
	assert.Equal(t, 800, c.Width())
	assert.Equal(t, 400, c.Height())
}

func TestRenderChartTwiceReplacesSurface(t *testing.T) {
	buf := chart.NewBuffer()
	require.NoError(t, RenderChart([]chart.Point{{Time: 1, Value: 1}}, buf))
	first := buf.Chart()
	require.NoError(t, RenderChart([]chart.Point{{Time: 5, Value: 2}}, buf))
	assert.NotSame(t, first, buf.Chart())
	assert.Equal(t, []chart.Point{{Time: 5, Value: 2}}, buf.Chart().Series()[0].Data())
}
