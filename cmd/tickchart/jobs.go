package main

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/tickchart/tickchart/internal/app"
	"github.com/tickchart/tickchart/jobs"
)

// jobsCLI wraps manual management helpers for Asynq jobs.
type jobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

func newJobsCLI(redisAddr string) *jobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &jobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

func (c *jobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

func (c *jobsCLI) listScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func newWarmupCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "warmup [SYMBOL:timeframe...]",
		Short: "Enqueue a chart warmup",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := jobs.ParseSeries(args); err != nil {
				return err
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cli := newJobsCLI(cfg.RedisAddr)
			defer cli.Close()

			info, err := cli.client.EnqueueChartWarmup(cmd.Context(), jobs.ChartWarmupPayload{Series: args, Publish: publish})
			if errors.Is(err, asynq.ErrDuplicateTask) {
				fmt.Fprintln(cmd.OutOrStdout(), "warmup already queued")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%s)\n", info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload warmed charts to the snapshot bucket")
	return cmd
}

func newQueueCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the default queue state and scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cli := newJobsCLI(cfg.RedisAddr)
			defer cli.Close()
			return printQueue(cmd, cli, size)
		},
	}
	cmd.Flags().IntVar(&size, "size", 10, "Scheduled tasks to list")
	return cmd
}

func printQueue(cmd *cobra.Command, cli *jobsCLI, size int) error {
	info, err := cli.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
		info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Failed)
	tasks, err := cli.listScheduled(size)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "%s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return nil
}
