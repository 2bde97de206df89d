package main

import (
	"context"
	"fmt"
	"math"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flybeeper/gps-filter/internal/analysis"
	"github.com/flybeeper/gps-filter/internal/filter"
	"github.com/flybeeper/gps-filter/internal/gpx"
	"github.com/flybeeper/gps-filter/internal/service"
	"github.com/flybeeper/gps-filter/internal/split"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// options флаги командной строки
type options struct {
	output        string
	minSpeed      float64
	maxSpeed      float64
	minAltitude   float64
	maxAltitude   float64
	maxHdop       float64
	smoothing     float64
	joinSegments  bool
	splitDistance float64
	splitTime     float64
	logLevel      string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "gpsfilter [input.gpx]",
		Short:   "Filter a GPS track",
		Long:    `Filter a GPX track by speed, altitude, HDOP and smoothing thresholds and write the result with the thresholds stored in metadata extensions.`,
		Version: Version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, args[0], opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Output GPX path (default: <input>.filtered.gpx)")
	flags.Float64Var(&opts.minSpeed, "min-speed", 0, "Minimum speed, m/s")
	flags.Float64Var(&opts.maxSpeed, "max-speed", 0, "Maximum speed, m/s")
	flags.Float64Var(&opts.minAltitude, "min-altitude", 0, "Minimum altitude, m")
	flags.Float64Var(&opts.maxAltitude, "max-altitude", 0, "Maximum altitude, m")
	flags.Float64Var(&opts.maxHdop, "max-hdop", 0, "Maximum HDOP")
	flags.Float64Var(&opts.smoothing, "smoothing", 0, "Smoothing threshold, m")
	flags.BoolVar(&opts.joinSegments, "join-segments", false, "Add a general track joining all segments")
	flags.Float64Var(&opts.splitDistance, "split-distance", 0, "Split the filtered track every N meters")
	flags.Float64Var(&opts.splitTime, "split-time", 0, "Split the filtered track every N seconds")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.MarkFlagsMutuallyExclusive("split-distance", "split-time")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, input string, opts *options) error {
	logger := utils.NewLoggerWithOutput(opts.logLevel, "text", cmd.ErrOrStderr())

	source, err := gpx.ReadFile(input)
	if err != nil {
		return err
	}

	splits := split.NewMemoryRegistry()
	if cfg := splitConfig(opts); cfg != nil {
		if err := splits.Register(ctx, source.Path, cfg); err != nil {
			return err
		}
	}

	store := service.NewTrackStore(analysis.NewAnalyzer(nil), 1)
	_, track, err := store.Add(source)
	if err != nil {
		return err
	}
	track.Filters().Apply(valuesFromFlags(cmd, opts))
	track.SetJoinSegments(opts.joinSegments)

	helper := service.NewFilterHelper(nil, splits, logger)
	defer helper.Stop()

	result, err := helper.FilterNow(ctx, track)
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	output := opts.output
	if output == "" {
		output = defaultOutput(input)
	}
	if err := gpx.WriteFile(output, result.File, track.Extensions()); err != nil {
		return err
	}

	stats := result.Stats
	logger.WithFields(map[string]interface{}{
		"input":       input,
		"output":      output,
		"points":      stats.OriginalCount,
		"accepted":    stats.AcceptedCount,
		"speed":       stats.SpeedRejected,
		"altitude":    stats.AltitudeRejected,
		"hdop":        stats.HdopRejected,
		"smoothing":   stats.SmoothingRejected,
		"distance_km": math.Round(result.Analysis.TotalDistance/10) / 100,
	}).Info("Track filtered")

	for _, group := range result.DisplayGroups {
		for _, item := range group.Items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d points\t%.0f m\t%s\n",
				group.TrackName, item.Name, item.PointsCount, item.Distance, item.Duration)
		}
	}

	return nil
}

// valuesFromFlags возвращает пороги только для явно заданных флагов
func valuesFromFlags(cmd *cobra.Command, opts *options) filter.Values {
	values := filter.UnspecifiedValues()
	flags := cmd.Flags()
	set := func(name string, target *float64, value float64) {
		if flags.Changed(name) {
			*target = value
		}
	}
	set("min-speed", &values.MinSpeed, opts.minSpeed)
	set("max-speed", &values.MaxSpeed, opts.maxSpeed)
	set("min-altitude", &values.MinAltitude, opts.minAltitude)
	set("max-altitude", &values.MaxAltitude, opts.maxAltitude)
	set("max-hdop", &values.MaxHdop, opts.maxHdop)
	set("smoothing", &values.SmoothingThreshold, opts.smoothing)
	return values
}

func splitConfig(opts *options) *split.Config {
	switch {
	case opts.splitDistance > 0:
		return &split.Config{Type: split.TypeDistance, Interval: opts.splitDistance}
	case opts.splitTime > 0:
		return &split.Config{Type: split.TypeTime, Interval: opts.splitTime}
	default:
		return nil
	}
}

func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".filtered.gpx"
}
