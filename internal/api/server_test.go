package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KurtHennigar/sns3-satellite/core"
	"github.com/KurtHennigar/sns3-satellite/internal/logging"
	"github.com/KurtHennigar/sns3-satellite/internal/observability"
	"github.com/KurtHennigar/sns3-satellite/model"
)

func newTestSuperframe(t *testing.T) *core.SuperframeConf {
	t.Helper()
	sf, err := core.NewSuperframeConf(core.ConfigType1)
	if err != nil {
		t.Fatalf("NewSuperframeConf: %v", err)
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

func newTestClient(t *testing.T) (*resty.Client, func()) {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector, err := observability.NewLayoutCollector(reg)
	if err != nil {
		t.Fatalf("NewLayoutCollector: %v", err)
	}

	sf := newTestSuperframe(t)
	collector.ObserveSuperframe(sf)

	server := httptest.NewServer(NewServer(sf, logging.Noop(), collector).Handler())
	return resty.New().SetBaseURL(server.URL), server.Close
}

func TestSuperframeSummaryEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	var summary superframeResponse
	resp, err := client.R().SetResult(&summary).Get("/superframe")
	if err != nil {
		t.Fatalf("GET /superframe: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	if summary.FrameCount != 2 {
		t.Errorf("frame_count = %d, want 2", summary.FrameCount)
	}
	if summary.CarrierCount != 6 {
		t.Errorf("carrier_count = %d, want 6", summary.CarrierCount)
	}
	if summary.RaChannelCount != 2 {
		t.Errorf("ra_channel_count = %d, want 2", summary.RaChannelCount)
	}
	if summary.ConfigType != "ConfigType1" {
		t.Errorf("config_type = %q, want ConfigType1", summary.ConfigType)
	}
}

func TestFrameEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	var frame frameResponse
	resp, err := client.R().SetResult(&frame).Get("/superframe/frames/1")
	if err != nil {
		t.Fatalf("GET /superframe/frames/1: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	if !frame.RandomAccess {
		t.Errorf("frame 1 not reported random access")
	}
	if frame.CarrierCount != 2 {
		t.Errorf("carrier_count = %d, want 2", frame.CarrierCount)
	}
	if frame.FirstGlobalCarrierID != 4 {
		t.Errorf("first_global_carrier_id = %d, want 4", frame.FirstGlobalCarrierID)
	}

	resp, err = client.R().Get("/superframe/frames/2")
	if err != nil {
		t.Fatalf("GET /superframe/frames/2: %v", err)
	}
	if resp.StatusCode() != 404 {
		t.Errorf("out-of-range frame status = %d, want 404", resp.StatusCode())
	}
}

func TestCarrierEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	var carrier carrierResponse
	resp, err := client.R().SetResult(&carrier).Get("/superframe/carriers/4")
	if err != nil {
		t.Fatalf("GET /superframe/carriers/4: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	if carrier.FrameID != 1 || carrier.FrameCarrierID != 0 {
		t.Errorf("carrier 4 maps to (%d, %d), want (1, 0)", carrier.FrameID, carrier.FrameCarrierID)
	}
	if !carrier.RandomAccess {
		t.Errorf("carrier 4 not reported random access")
	}
	// Frame 1 starts past frame 0's 4 MHz; its first carrier centre sits
	// half a carrier in.
	if want := 4e6 + 0.5e6; carrier.CenterFrequencyHz != want {
		t.Errorf("center_frequency_hz = %g, want %g", carrier.CenterFrequencyHz, want)
	}

	for _, path := range []string{"/superframe/carriers/6", "/superframe/carriers/bogus"} {
		resp, err := client.R().Get(path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode() != 404 {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode())
		}
	}
}

func TestCarrierSlotsEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	var slots []timeSlotResponse
	resp, err := client.R().SetResult(&slots).Get("/superframe/carriers/0/slots")
	if err != nil {
		t.Fatalf("GET /superframe/carriers/0/slots: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	if len(slots) == 0 {
		t.Fatalf("expected slots on carrier 0")
	}
	for i := 0; i+1 < len(slots); i++ {
		if slots[i+1].StartTimeMs <= slots[i].StartTimeMs {
			t.Errorf("slot %d starts at %g ms, not after slot %d at %g ms",
				i+1, slots[i+1].StartTimeMs, i, slots[i].StartTimeMs)
		}
	}
}

func TestRaChannelEndpoints(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	var channels []raChannelResponse
	resp, err := client.R().SetResult(&channels).Get("/superframe/ra-channels")
	if err != nil {
		t.Fatalf("GET /superframe/ra-channels: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	if len(channels) != 2 {
		t.Fatalf("ra channel count = %d, want 2", len(channels))
	}
	for _, ch := range channels {
		if ch.FrameID != 1 {
			t.Errorf("ra channel %d frame_id = %d, want 1", ch.Index, ch.FrameID)
		}
		if ch.SlotCount == 0 || ch.PayloadBytes == 0 {
			t.Errorf("ra channel %d has empty slot count or payload", ch.Index)
		}
	}

	resp, err = client.R().Get("/superframe/ra-channels/2")
	if err != nil {
		t.Fatalf("GET /superframe/ra-channels/2: %v", err)
	}
	if resp.StatusCode() != 404 {
		t.Errorf("out-of-range ra channel status = %d, want 404", resp.StatusCode())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	resp, err := client.R().Get("/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	if body := resp.String(); !strings.Contains(body, "superframe_carriers") {
		t.Errorf("metrics output missing superframe_carriers gauge")
	}
}

func TestPlotEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	resp, err := client.R().Get("/superframe/plot")
	if err != nil {
		t.Fatalf("GET /superframe/plot: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if body := resp.String(); !strings.Contains(body, "echarts") {
		t.Errorf("plot output does not look like an echarts page")
	}
}

func TestHealthEndpoint(t *testing.T) {
	client, shutdown := newTestClient(t)
	defer shutdown()

	resp, err := client.R().Get("/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
}
