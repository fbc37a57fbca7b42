package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tickchart/tickchart/internal/chart"
	"github.com/tickchart/tickchart/internal/chart/raster"
	"github.com/tickchart/tickchart/internal/dashboard"
	"github.com/tickchart/tickchart/internal/market"
	"github.com/tickchart/tickchart/internal/ta"
)

type renderOptions struct {
	output    string
	format    string
	klines    bool
	indicator string
	length    int
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [input.json]",
		Short: "Render a JSON series to an 800x400 SVG or PNG",
		Long: `render reads either an array of {"time","value"} points or, with --klines,
an array of candles, and writes the chart to --output (default stdout).
Reads stdin when no input file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			if opts.format == "" {
				opts.format = formatFromPath(opts.output)
			}
			if opts.output == "" {
				return runRender(in, cmd.OutOrStdout(), opts)
			}
			var buf bytes.Buffer
			if err := runRender(in, &buf, opts); err != nil {
				return err
			}
			if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: svg or png (default: from --output extension, else svg)")
	cmd.Flags().BoolVar(&opts.klines, "klines", false, "Input is an array of klines; the close series is drawn")
	cmd.Flags().StringVar(&opts.indicator, "indicator", "", "Draw an indicator over klines instead of closes: "+strings.Join(ta.Names(), ", "))
	cmd.Flags().IntVar(&opts.length, "length", 14, "Indicator length")
	return cmd
}

func runRender(in io.Reader, out io.Writer, opts renderOptions) error {
	points, err := readPoints(in, opts)
	if err != nil {
		return err
	}

	var surface interface {
		chart.Surface
		io.WriterTo
	}
	switch opts.format {
	case "", dashboard.FormatSVG:
		surface = chart.NewBuffer()
	case dashboard.FormatPNG:
		surface = raster.New()
	default:
		return fmt.Errorf("invalid format: %s (must be svg or png)", opts.format)
	}

	if err := dashboard.RenderChart(points, surface); err != nil {
		return err
	}
	_, err = surface.WriteTo(out)
	return err
}

func readPoints(in io.Reader, opts renderOptions) ([]chart.Point, error) {
	dec := json.NewDecoder(in)
	if !opts.klines {
		if opts.indicator != "" {
			return nil, errors.New("--indicator requires --klines")
		}
		var points []chart.Point
		if err := dec.Decode(&points); err != nil {
			return nil, fmt.Errorf("decode points: %w", err)
		}
		return points, nil
	}

	var klines []market.Kline
	if err := dec.Decode(&klines); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	if opts.indicator == "" {
		return market.ClosePoints(klines), nil
	}
	return ta.Apply(strings.ToLower(opts.indicator), klines, opts.length)
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return dashboard.FormatPNG
	}
	return dashboard.FormatSVG
}
