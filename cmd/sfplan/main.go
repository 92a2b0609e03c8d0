// Command sfplan loads a superframe scenario, runs the one-time layout
// configuration pass, reports the resulting carrier/slot layout, and can
// serve the layout query API for scheduling layers to consume.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/KurtHennigar/sns3-satellite/core"
	"github.com/KurtHennigar/sns3-satellite/internal/api"
	"github.com/KurtHennigar/sns3-satellite/internal/logging"
	"github.com/KurtHennigar/sns3-satellite/internal/observability"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to the superframe scenario JSON (required)")
	listen := flag.String("listen", "", "serve the layout API on this address (empty = configure, report, exit)")
	durationMs := flag.Float64("duration-ms", 0, "override the scenario's target superframe duration in milliseconds")
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "sfplan: -scenario is required")
		flag.Usage()
		os.Exit(2)
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	var opts []core.ScenarioOption
	if *durationMs > 0 {
		opts = append(opts, core.WithTargetDuration(time.Duration(*durationMs*float64(time.Millisecond))))
	}

	sf, summary, err := configureFromFile(ctx, *scenarioPath, opts...)
	if err != nil {
		log.Error(ctx, "superframe configuration failed",
			logging.String("scenario", *scenarioPath),
			logging.String("error", err.Error()),
		)
		os.Exit(1)
	}

	log.Info(ctx, "superframe configured",
		logging.String("config_type", summary.ConfigType.String()),
		logging.Int("frames", int(summary.FrameCount)),
		logging.Uint32("carriers", summary.CarrierCount),
		logging.Uint32("time_slots", summary.TimeSlotCount),
		logging.Int("ra_channels", summary.RaChannelCount),
	)
	for i := uint8(0); i < sf.FrameCount(); i++ {
		frame := sf.GetFrameConf(i)
		log.Info(ctx, "frame layout",
			logging.Int("frame", int(i)),
			logging.Float64("bandwidth_hz", frame.BandwidthHz()),
			logging.Int("carriers", int(frame.GetCarrierCount())),
			logging.Int("time_slots", int(frame.GetTimeSlotCount())),
			logging.Float64("symbol_rate_bauds", frame.Btu().SymbolRateBauds()),
			logging.Any("random_access", frame.IsRandomAccess()),
		)
	}

	if *listen == "" {
		return
	}

	collector, err := observability.NewLayoutCollector(prometheus.DefaultRegisterer)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	collector.ObserveSuperframe(sf)

	server := api.NewServer(sf, log, collector)
	if err := server.ListenAndServe(*listen); err != nil {
		log.Error(ctx, "layout api failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
}

// configureFromFile runs the scenario load + Configure pass inside a trace
// span so a slow or failing configuration shows up in traces.
func configureFromFile(ctx context.Context, path string, opts ...core.ScenarioOption) (*core.SuperframeConf, *core.SuperframeScenario, error) {
	tracer := otel.Tracer("sfplan")
	ctx, span := tracer.Start(ctx, "superframe.configure")
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	defer f.Close()

	sf, summary, err := core.LoadSuperframeScenario(f, opts...)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	span.SetAttributes(
		attribute.Int("superframe.frames", int(summary.FrameCount)),
		attribute.Int("superframe.carriers", int(summary.CarrierCount)),
		attribute.Int("superframe.time_slots", int(summary.TimeSlotCount)),
		attribute.Int("superframe.ra_channels", summary.RaChannelCount),
	)
	return sf, summary, nil
}
