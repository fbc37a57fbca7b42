package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tickchart/tickchart/internal/dashboard"
	jobmetrics "github.com/tickchart/tickchart/internal/jobs"
	"github.com/tickchart/tickchart/internal/market/store"
)

const warmupTimeout = 2 * time.Minute

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ChartWarmer renders series into the chart cache.
type ChartWarmer interface {
	Warm(ctx context.Context, reqs []dashboard.ChartRequest) (map[string][]byte, error)
	Series(ctx context.Context) ([]store.Series, error)
}

// SnapshotPublisher uploads rendered charts.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshots map[string][]byte) (int, error)
	Destination() string
}

// ChartWarmupJob pre-renders charts so the first request is a cache hit.
type ChartWarmupJob struct {
	Charts    ChartWarmer
	Publisher SnapshotPublisher
	Defaults  []dashboard.ChartRequest
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewChartWarmupJob wires dependencies for the warmup handler. publisher
// may be nil.
func NewChartWarmupJob(charts ChartWarmer, publisher SnapshotPublisher, defaults []dashboard.ChartRequest, logger *slog.Logger, metrics *jobmetrics.Metrics) *ChartWarmupJob {
	return &ChartWarmupJob{
		Charts:    charts,
		Publisher: publisher,
		Defaults:  defaults,
		Logger:    logger,
		Metrics:   metrics,
	}
}

// Handle processes chart warmup tasks.
func (j *ChartWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Charts == nil {
		return errors.New("chart warmup: handler not configured")
	}
	var payload ChartWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("chart warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	return j.Run(ctx, payload)
}

// Run warms the requested series and optionally publishes them.
func (j *ChartWarmupJob) Run(ctx context.Context, payload ChartWarmupPayload) (resultErr error) {
	tracker := j.metrics().Track(TaskChartWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	reqs, err := j.resolve(ctx, payload)
	if err != nil {
		logger.Error("resolve warmup series", slog.Any("error", err))
		return err
	}
	if len(reqs) == 0 {
		logger.Info("no series to warm")
		return nil
	}

	snapshots, err := j.Charts.Warm(ctx, reqs)
	if err != nil {
		logger.Error("warm charts", slog.Any("error", err))
		return err
	}
	j.metrics().AddCharts("cache", len(snapshots))

	if payload.Publish && j.Publisher != nil && len(snapshots) > 0 {
		n, err := j.Publisher.Publish(ctx, snapshots)
		j.metrics().AddCharts("s3", n)
		if err != nil {
			logger.Error("publish snapshots", slog.String("destination", j.Publisher.Destination()), slog.Any("error", err))
			return err
		}
		logger.Info("published snapshots", slog.String("destination", j.Publisher.Destination()), slog.Int("charts", n))
	}

	logger.Info("completed chart warmup",
		slog.Int("requested", len(reqs)),
		slog.Int("charts", len(snapshots)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ChartWarmupJob) resolve(ctx context.Context, payload ChartWarmupPayload) ([]dashboard.ChartRequest, error) {
	if len(payload.Series) > 0 {
		reqs, err := ParseSeries(payload.Series)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return reqs, nil
	}
	if len(j.Defaults) > 0 {
		return j.Defaults, nil
	}
	series, err := j.Charts.Series(ctx)
	if err != nil {
		return nil, err
	}
	reqs := make([]dashboard.ChartRequest, 0, len(series))
	for _, s := range series {
		reqs = append(reqs, dashboard.ChartRequest{Symbol: s.Symbol, Timeframe: s.Timeframe})
	}
	return reqs, nil
}

func (j *ChartWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskChartWarmup))
	}
	return slog.Default().With(slog.String("job", TaskChartWarmup))
}

func (j *ChartWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
