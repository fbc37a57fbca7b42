package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/tickchart/tickchart/internal/dashboard"
	"github.com/tickchart/tickchart/internal/market"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskChartWarmup renders configured series into the chart cache.
	TaskChartWarmup = "chart:warmup"
)

// ChartWarmupPayload selects the series to warm. Entries are SYMBOL:timeframe
// pairs; an empty list warms every stored series.
type ChartWarmupPayload struct {
	Series  []string `json:"series,omitempty"`
	Publish bool     `json:"publish"`
}

// NewChartWarmupTask constructs an Asynq task.
func NewChartWarmupTask(payload ChartWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChartWarmup, data), nil
}

// ParseSeries turns SYMBOL:timeframe pairs into chart requests.
func ParseSeries(entries []string) ([]dashboard.ChartRequest, error) {
	reqs := make([]dashboard.ChartRequest, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		symbol, tfName, ok := strings.Cut(entry, ":")
		if !ok || symbol == "" {
			return nil, fmt.Errorf("jobs: invalid series %q", entry)
		}
		tf, err := market.ParseTimeframe(tfName)
		if err != nil {
			return nil, fmt.Errorf("jobs: series %q: %w", entry, err)
		}
		reqs = append(reqs, dashboard.ChartRequest{Symbol: strings.ToUpper(symbol), Timeframe: tf})
	}
	return reqs, nil
}
