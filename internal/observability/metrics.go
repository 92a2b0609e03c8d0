package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KurtHennigar/sns3-satellite/core"
)

// LayoutCollector bundles Prometheus metrics for the configured superframe
// layout and the HTTP query surface, and provides helpers to wire them into
// the chi router.
type LayoutCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	SuperframeFrames     prometheus.Gauge
	SuperframeCarriers   prometheus.Gauge
	SuperframeTimeSlots  prometheus.Gauge
	SuperframeRaChannels prometheus.Gauge
	FrameCarriers        *prometheus.GaugeVec
}

// NewLayoutCollector registers layout Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewLayoutCollector(reg prometheus.Registerer) (*LayoutCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "superframe_http_requests_total",
		Help: "Total number of handled layout API requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "superframe_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "superframe_http_request_duration_seconds",
		Help:    "Layout API request latency in seconds.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "superframe_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "superframe_frames",
		Help: "Number of frames in the configured superframe.",
	}), "superframe_frames")
	if err != nil {
		return nil, err
	}
	carriers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "superframe_carriers",
		Help: "Superframe-wide carrier count.",
	}), "superframe_carriers")
	if err != nil {
		return nil, err
	}
	slots, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "superframe_time_slots",
		Help: "Total time slots across all frames of the configured superframe.",
	}), "superframe_time_slots")
	if err != nil {
		return nil, err
	}
	raChannels, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "superframe_ra_channels",
		Help: "Number of random-access channels in the configured superframe.",
	}), "superframe_ra_channels")
	if err != nil {
		return nil, err
	}

	frameCarriers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "superframe_frame_carriers",
		Help: "Carrier count per frame of the configured superframe.",
	}, []string{"frame"})
	frameCarriers, err = registerGaugeVec(reg, frameCarriers, "superframe_frame_carriers")
	if err != nil {
		return nil, err
	}

	return &LayoutCollector{
		gatherer:             gatherer,
		HTTPRequests:         requests,
		HTTPDurations:        durations,
		SuperframeFrames:     frames,
		SuperframeCarriers:   carriers,
		SuperframeTimeSlots:  slots,
		SuperframeRaChannels: raChannels,
		FrameCarriers:        frameCarriers,
	}, nil
}

// ObserveSuperframe drives the layout gauges from a configured superframe.
// Called once after Configure completes; the layout never changes afterwards.
func (c *LayoutCollector) ObserveSuperframe(sf *core.SuperframeConf) {
	if c == nil || sf == nil {
		return
	}
	c.SuperframeFrames.Set(float64(sf.FrameCount()))
	c.SuperframeCarriers.Set(float64(sf.GetCarrierCount()))
	c.SuperframeTimeSlots.Set(float64(sf.GetTimeSlotCount()))
	c.SuperframeRaChannels.Set(float64(sf.GetRaChannelCount()))
	for i := uint8(0); i < sf.FrameCount(); i++ {
		c.FrameCarriers.WithLabelValues(fmt.Sprintf("%d", i)).
			Set(float64(sf.GetFrameConf(i).GetCarrierCount()))
	}
}

// Middleware records request counts and durations for the layout API.
func (c *LayoutCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		c.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", ww.Status())).Inc()
		c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *LayoutCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
