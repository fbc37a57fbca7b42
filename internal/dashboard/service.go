package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tickchart/tickchart/internal/chart"
	"github.com/tickchart/tickchart/internal/chart/raster"
	"github.com/tickchart/tickchart/internal/market"
	"github.com/tickchart/tickchart/internal/market/store"
	"github.com/tickchart/tickchart/internal/platform/httpx"
	"github.com/tickchart/tickchart/internal/ta"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// KlineStore is the persistence contract used by the service.
type KlineStore interface {
	Range(ctx context.Context, q store.RangeQuery) ([]market.Kline, error)
	Upsert(ctx context.Context, symbol string, tf market.Timeframe, klines []market.Kline) (int, error)
	ListSeries(ctx context.Context) ([]store.Series, error)
}

// Recorder observes chart renders.
type Recorder interface {
	ObserveRender(format string, elapsed time.Duration, err error)
}

// ChartRequest selects a stored series and an optional indicator overlay.
type ChartRequest struct {
	Symbol    string
	Timeframe market.Timeframe
	From      time.Time
	To        time.Time
	Indicator string
	Length    int
}

// Title returns the human readable chart title.
func (r ChartRequest) Title() string {
	if r.Indicator == "" {
		return fmt.Sprintf("%s %s close", r.Symbol, r.Timeframe)
	}
	return fmt.Sprintf("%s %s close, %s(%d)", r.Symbol, r.Timeframe, r.Indicator, r.Length)
}

// Service coordinates kline queries, chart rendering and the cache layer.
type Service struct {
	store    KlineStore
	cache    *Cache
	logger   *slog.Logger
	recorder Recorder
	group    singleflight.Group
}

// NewService wires a KlineStore with a Cache helper.
func NewService(store KlineStore, cache *Cache, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, logger: logger, recorder: recorder}
}

// Klines returns the stored klines for a request. An empty series yields
// httpx.ErrNotFound.
func (s *Service) Klines(ctx context.Context, req ChartRequest) ([]market.Kline, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.store.Range(ctx, store.RangeQuery{
			Symbol:    req.Symbol,
			Timeframe: req.Timeframe,
			From:      req.From,
			To:        req.To,
		})
	}
	key, err := s.cache.BuildKey(ctx, keyKlines(req))
	if err != nil {
		return nil, err
	}
	var klines []market.Kline
	if err := s.cache.FetchJSON(ctx, key, &klines, loader); err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("%w: no klines for %s %s", httpx.ErrNotFound, req.Symbol, req.Timeframe)
	}
	return klines, nil
}

// RenderSVG renders the close series of a stored symbol, optionally with an
// indicator overlay. Concurrent identical requests share one render.
func (s *Service) RenderSVG(ctx context.Context, req ChartRequest) ([]byte, error) {
	if req.Indicator != "" && !ta.Known(req.Indicator) {
		return nil, fmt.Errorf("%w: unknown indicator %q", httpx.ErrValidation, req.Indicator)
	}
	key, err := s.cache.BuildKey(ctx, keyChart(req))
	if err != nil {
		return nil, err
	}
	val, err, _ := singleflightDo(ctx, &s.group, key, func(ctx context.Context) (interface{}, error) {
		return s.cache.FetchBytes(ctx, key, func(ctx context.Context) ([]byte, error) {
			return s.renderStored(ctx, req, chart.NewBuffer())
		})
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// RenderPNG renders a stored series as PNG. PNG output is not cached.
func (s *Service) RenderPNG(ctx context.Context, req ChartRequest) ([]byte, error) {
	if req.Indicator != "" && !ta.Known(req.Indicator) {
		return nil, fmt.Errorf("%w: unknown indicator %q", httpx.ErrValidation, req.Indicator)
	}
	return s.renderStored(ctx, req, raster.New())
}

// Inline renders a stored series as markup for HTML pages.
func (s *Service) Inline(ctx context.Context, req ChartRequest) (template.HTML, error) {
	klines, err := s.Klines(ctx, req)
	if err != nil {
		return "", err
	}
	c, err := s.buildChart(chart.NewBuffer(), req, klines)
	if err != nil {
		return "", err
	}
	return c.SVG()
}

// RenderPoints draws an ad-hoc series at the fixed dashboard size.
func (s *Service) RenderPoints(points []chart.Point, format string) ([]byte, error) {
	start := time.Now()
	surface, err := newSurface(format)
	if err != nil {
		return nil, err
	}
	err = RenderChart(points, surface)
	s.observe(format, start, err)
	if err != nil {
		return nil, err
	}
	return surface.Bytes(), nil
}

// Ingest stores klines and invalidates cached charts.
func (s *Service) Ingest(ctx context.Context, symbol string, tf market.Timeframe, klines []market.Kline) (int, error) {
	n, err := s.store.Upsert(ctx, symbol, tf, klines)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump", slog.Any("error", err))
	}
	return n, nil
}

// Series lists the stored symbol/timeframe pairs.
func (s *Service) Series(ctx context.Context) ([]store.Series, error) {
	return s.store.ListSeries(ctx)
}

// Warm renders every given series into the cache, a few at a time. Missing
// series are skipped.
func (s *Service) Warm(ctx context.Context, reqs []ChartRequest) (map[string][]byte, error) {
	results := make([][]byte, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, req := range reqs {
		g.Go(func() error {
			payload, err := s.RenderSVG(ctx, req)
			if errors.Is(err, httpx.ErrNotFound) {
				s.logger.Info("skip warmup", slog.String("symbol", req.Symbol), slog.String("timeframe", req.Timeframe.String()))
				return nil
			}
			if err != nil {
				return fmt.Errorf("warm %s %s: %w", req.Symbol, req.Timeframe, err)
			}
			results[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(reqs))
	for i, req := range reqs {
		if results[i] != nil {
			out[SnapshotName(req)] = results[i]
		}
	}
	return out, nil
}

// SnapshotName is the object name of a rendered series.
func SnapshotName(req ChartRequest) string {
	return fmt.Sprintf("%s/%s.svg", req.Symbol, req.Timeframe)
}

type paintedSurface interface {
	chart.Surface
	Bytes() []byte
}

func newSurface(format string) (paintedSurface, error) {
	switch format {
	case "", FormatSVG:
		return chart.NewBuffer(), nil
	case FormatPNG:
		return raster.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", httpx.ErrValidation, format)
	}
}

func (s *Service) renderStored(ctx context.Context, req ChartRequest, surface paintedSurface) ([]byte, error) {
	start := time.Now()
	format := FormatSVG
	if _, ok := surface.(*raster.Surface); ok {
		format = FormatPNG
	}
	klines, err := s.Klines(ctx, req)
	if err != nil {
		return nil, err
	}
	_, err = s.buildChart(surface, req, klines)
	s.observe(format, start, err)
	if err != nil {
		return nil, err
	}
	return surface.Bytes(), nil
}

func (s *Service) buildChart(surface chart.Surface, req ChartRequest, klines []market.Kline) (*chart.Chart, error) {
	c, err := chart.CreateChart(surface, chart.Options{
		Width:       ChartWidth,
		Height:      ChartHeight,
		Title:       req.Title(),
		Description: fmt.Sprintf("%d candles", len(klines)),
		FillColor:   "rgba(37,99,235,0.12)",
	})
	if err != nil {
		return nil, err
	}
	if err := c.AddLineSeries(chart.SeriesOpts{Title: "close"}).SetData(market.ClosePoints(klines)); err != nil {
		return nil, err
	}
	if req.Indicator == "" {
		return c, nil
	}
	overlay, err := ta.Apply(req.Indicator, klines, req.Length)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := c.AddLineSeries(chart.SeriesOpts{Title: fmt.Sprintf("%s(%d)", req.Indicator, req.Length), LineWidth: 1.5}).SetData(overlay); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) observe(format string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	if format == "" {
		format = FormatSVG
	}
	s.recorder.ObserveRender(format, time.Since(start), err)
}
