package core

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const testScenarioJSON = `{
  "config_type": 1,
  "allocated_bandwidth_hz": 10000000,
  "target_duration_ms": 50,
  "frames": [
    {
      "allocated_bandwidth_hz": 8000000,
      "carrier_allocated_bandwidth_hz": 1000000,
      "carrier_spacing": 0.2,
      "carrier_roll_off": 0.2
    },
    {
      "allocated_bandwidth_hz": 2000000,
      "carrier_allocated_bandwidth_hz": 1000000,
      "carrier_spacing": 0.2,
      "carrier_roll_off": 0.2,
      "random_access": true
    }
  ],
  "waveforms": [
    {"id": 1, "name": "QPSK 1/2", "burst_length_in_symbols": 500, "payload_bytes": 50}
  ]
}`

func TestLoadSuperframeScenario(t *testing.T) {
	sf, summary, err := LoadSuperframeScenario(strings.NewReader(testScenarioJSON))
	if err != nil {
		t.Fatalf("LoadSuperframeScenario error: %v", err)
	}

	// Effective bandwidth is 1 MHz / 1.44 ≈ 694.4 kBd, so the 500-symbol
	// burst lasts 0.72 ms and 69 bursts fit into the 50 ms frame.
	want := &SuperframeScenario{
		ConfigType:     ConfigType1,
		FrameCount:     2,
		CarrierCount:   10,
		TimeSlotCount:  690,
		RaChannelCount: 2,
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("scenario summary mismatch (-want +got):\n%s", diff)
	}

	if got := sf.GetRaChannelPayloadInBytes(0); got != 50 {
		t.Errorf("GetRaChannelPayloadInBytes(0) = %d, want 50", got)
	}
}

func TestLoadSuperframeScenarioDurationOverride(t *testing.T) {
	// Halving the 50 ms scenario duration halves the per-carrier slot count.
	sf, summary, err := LoadSuperframeScenario(strings.NewReader(testScenarioJSON),
		WithTargetDuration(25*time.Millisecond))
	if err != nil {
		t.Fatalf("LoadSuperframeScenario error: %v", err)
	}
	if sf.Duration() != 25*time.Millisecond {
		t.Errorf("Duration = %v, want 25ms", sf.Duration())
	}
	if summary.TimeSlotCount != 340 {
		t.Errorf("TimeSlotCount = %d, want 340", summary.TimeSlotCount)
	}
}

func TestLoadSuperframeScenarioBadJSON(t *testing.T) {
	if _, _, err := LoadSuperframeScenario(strings.NewReader("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadSuperframeScenarioValidation(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{
			"config type out of range",
			`{"config_type": 7, "allocated_bandwidth_hz": 1e6, "target_duration_ms": 10}`,
		},
		{
			"missing bandwidth",
			`{"config_type": 0, "target_duration_ms": 10}`,
		},
		{
			"missing duration",
			`{"config_type": 0, "allocated_bandwidth_hz": 1e6}`,
		},
		{
			"frame count mismatch",
			`{"config_type": 0, "allocated_bandwidth_hz": 1e7, "target_duration_ms": 10,
			  "frame_count": 3,
			  "frames": [{"allocated_bandwidth_hz": 1e6, "carrier_allocated_bandwidth_hz": 1e6}]}`,
		},
		{
			"negative frame count",
			`{"config_type": 0, "allocated_bandwidth_hz": 1e7, "target_duration_ms": 10, "frame_count": -255}`,
		},
		{
			"frame count past ceiling",
			`{"config_type": 0, "allocated_bandwidth_hz": 1e7, "target_duration_ms": 10, "frame_count": 257}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := LoadSuperframeScenario(strings.NewReader(tc.json)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadSuperframeScenarioProfileDefaults(t *testing.T) {
	// No frames list: the profile's default parameter table drives layout.
	sf, summary, err := LoadSuperframeScenario(strings.NewReader(
		`{"config_type": 2, "allocated_bandwidth_hz": 1.25e7, "target_duration_ms": 100}`))
	if err != nil {
		t.Fatalf("LoadSuperframeScenario error: %v", err)
	}
	if summary.FrameCount != 3 {
		t.Errorf("FrameCount = %d, want 3", summary.FrameCount)
	}
	if sf.GetRaChannelCount() == 0 {
		t.Errorf("expected random-access channels from the profile defaults")
	}
}
