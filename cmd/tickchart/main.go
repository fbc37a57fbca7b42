// Command tickchart serves price charts and renders them offline.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Default().Error("tickchart", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tickchart",
		Short:         "Candlestick storage and line chart rendering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newRenderCmd(), newWarmupCmd(), newQueueCmd())
	return rootCmd
}
