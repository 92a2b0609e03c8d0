package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/KurtHennigar/sns3-satellite/core"
	"github.com/KurtHennigar/sns3-satellite/model"
)

func newTestSuperframe(t *testing.T) *core.SuperframeConf {
	t.Helper()
	sf, err := core.NewSuperframeConf(core.ConfigType0)
	if err != nil {
		t.Fatalf("NewSuperframeConf: %v", err)
	}
	if err := sf.SetFrameCount(2); err != nil {
		t.Fatalf("SetFrameCount: %v", err)
	}
	if err := sf.SetFrameParams(0, core.FrameParams{
		AllocatedBandwidthHz:        4e6,
		CarrierAllocatedBandwidthHz: 1e6,
		CarrierSpacing:              0.2,
		CarrierRollOff:              0.2,
	}); err != nil {
		t.Fatalf("SetFrameParams: %v", err)
	}
	if err := sf.SetFrameParams(1, core.FrameParams{
		AllocatedBandwidthHz:        2e6,
		CarrierAllocatedBandwidthHz: 1e6,
		CarrierSpacing:              0.2,
		CarrierRollOff:              0.2,
		RandomAccess:                true,
	}); err != nil {
		t.Fatalf("SetFrameParams: %v", err)
	}
	if err := sf.Configure(6e6, 100*time.Millisecond, model.DefaultWaveformTable()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return sf
}

func TestObserveSuperframeSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewLayoutCollector(reg)
	if err != nil {
		t.Fatalf("NewLayoutCollector: %v", err)
	}

	sf := newTestSuperframe(t)
	collector.ObserveSuperframe(sf)

	if got := testutil.ToFloat64(collector.SuperframeFrames); got != 2 {
		t.Errorf("superframe_frames = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SuperframeCarriers); got != 6 {
		t.Errorf("superframe_carriers = %v, want 6", got)
	}
	if got := testutil.ToFloat64(collector.SuperframeRaChannels); got != 2 {
		t.Errorf("superframe_ra_channels = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SuperframeTimeSlots); got != float64(sf.GetTimeSlotCount()) {
		t.Errorf("superframe_time_slots = %v, want %d", got, sf.GetTimeSlotCount())
	}
	if got := testutil.ToFloat64(collector.FrameCarriers.WithLabelValues("0")); got != 4 {
		t.Errorf("superframe_frame_carriers{frame=0} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.FrameCarriers.WithLabelValues("1")); got != 2 {
		t.Errorf("superframe_frame_carriers{frame=1} = %v, want 2", got)
	}
}

func TestMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewLayoutCollector(reg)
	if err != nil {
		t.Fatalf("NewLayoutCollector: %v", err)
	}

	router := chi.NewRouter()
	router.Use(collector.Middleware)
	router.Get("/superframe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/superframe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/superframe", "GET", "200")); got != 1 {
		t.Errorf("superframe_http_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "superframe_http_request_duration_seconds", map[string]string{
		"route":  "/superframe",
		"method": "GET",
	}); count != 1 {
		t.Errorf("superframe_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !matchLabels(metric, labels) {
				continue
			}
			if h := metric.GetHistogram(); h != nil {
				return h.GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}
