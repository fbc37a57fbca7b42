package view

import (
	"html/template"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderChartPageEmbedsMarkup(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/chart.html", TemplateData{
		Title: "BTC-USDT 1h close",
		Data: map[string]any{
			"Chart":      template.HTML(`<svg id="c1"></svg>`),
			"Symbol":     "BTC-USDT",
			"Timeframe":  "1h",
			"Indicator":  "",
			"Length":     0,
			"Indicators": []string{"ema", "sma"},
			"Timeframes": []string{"1m", "1h"},
		},
	})
	require.NoError(t, err)

	body := rr.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, `id="chart-container"`)
	assert.Contains(t, body, `<svg id="c1"></svg>`)
	assert.Contains(t, body, `<option value="1h" selected>`)
}

func TestRenderIndexEmpty(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/index.html", TemplateData{Title: "Charts"}))
	assert.Contains(t, rr.Body.String(), "No klines stored yet")
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/index.html", TemplateData{}))
}
