package core

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/KurtHennigar/sns3-satellite/model"
)

// SuperframeScenario is a small summary of what was loaded and configured
// from JSON. It's mainly useful for logging from main().
type SuperframeScenario struct {
	ConfigType     ConfigType
	FrameCount     uint8
	CarrierCount   uint32
	TimeSlotCount  uint32
	RaChannelCount int
}

// internal JSON shapes – kept unexported so we're free to evolve them.
type superframeScenarioJSON struct {
	ConfigType           int               `json:"config_type"`
	AllocatedBandwidthHz float64           `json:"allocated_bandwidth_hz"`
	TargetDurationMs     float64           `json:"target_duration_ms"`
	FrameCount           int               `json:"frame_count"` // optional; defaults to len(frames)
	Frames               []frameParamsJSON `json:"frames"`
	Waveforms            []model.Waveform  `json:"waveforms"` // optional; defaults to the built-in table
}

// ScenarioOption adjusts a decoded scenario before it is validated; used by
// the CLI to apply flag overrides on top of the scenario file.
type ScenarioOption func(s *superframeScenarioJSON)

// WithTargetDuration overrides the scenario's target superframe duration.
func WithTargetDuration(d time.Duration) ScenarioOption {
	return func(s *superframeScenarioJSON) {
		s.TargetDurationMs = float64(d) / float64(time.Millisecond)
	}
}

type frameParamsJSON struct {
	AllocatedBandwidthHz        float64 `json:"allocated_bandwidth_hz"`
	CarrierAllocatedBandwidthHz float64 `json:"carrier_allocated_bandwidth_hz"`
	CarrierSpacing              float64 `json:"carrier_spacing"`
	CarrierRollOff              float64 `json:"carrier_roll_off"`
	RandomAccess                bool    `json:"random_access"`
}

// LoadSuperframeScenario reads a JSON superframe scenario from r, builds the
// superframe configuration, runs the Configure pass against the scenario's
// waveform table (or the built-in one), and returns the configured
// superframe plus a summary.
//
// It fails on JSON/structural errors and on anything Configure rejects;
// there is no partial result, since a half-built layout must never be
// published to readers.
func LoadSuperframeScenario(r io.Reader, opts ...ScenarioOption) (*SuperframeConf, *SuperframeScenario, error) {
	var payload superframeScenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: decode failed: %w", err)
	}
	for _, opt := range opts {
		opt(&payload)
	}

	if payload.ConfigType < int(ConfigType0) || payload.ConfigType > int(ConfigType3) {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: config_type %d outside 0..3", payload.ConfigType)
	}
	if payload.AllocatedBandwidthHz <= 0 {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: allocated_bandwidth_hz is required and must be positive")
	}
	if payload.TargetDurationMs <= 0 {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: target_duration_ms is required and must be positive")
	}
	// Validated here as an int: a negative or oversized count would wrap in
	// the uint8 conversion below.
	if payload.FrameCount != 0 && (payload.FrameCount < 0 || payload.FrameCount > MaxFrameCount) {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: frame_count %d outside 1..%d",
			payload.FrameCount, MaxFrameCount)
	}

	sf, err := NewSuperframeConf(ConfigType(payload.ConfigType))
	if err != nil {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: %w", err)
	}

	// An explicit frames list overrides the profile defaults wholesale.
	if len(payload.Frames) > 0 {
		if payload.FrameCount != 0 && payload.FrameCount != len(payload.Frames) {
			return nil, nil, fmt.Errorf("LoadSuperframeScenario: frame_count %d does not match %d frames",
				payload.FrameCount, len(payload.Frames))
		}
		if len(payload.Frames) > MaxFrameCount {
			return nil, nil, fmt.Errorf("LoadSuperframeScenario: %d frames exceed the %d-frame ceiling",
				len(payload.Frames), MaxFrameCount)
		}
		if err := sf.SetFrameCount(uint8(len(payload.Frames))); err != nil {
			return nil, nil, fmt.Errorf("LoadSuperframeScenario: %w", err)
		}
		for i, fp := range payload.Frames {
			params := FrameParams{
				AllocatedBandwidthHz:        fp.AllocatedBandwidthHz,
				CarrierAllocatedBandwidthHz: fp.CarrierAllocatedBandwidthHz,
				CarrierSpacing:              fp.CarrierSpacing,
				CarrierRollOff:              fp.CarrierRollOff,
				RandomAccess:                fp.RandomAccess,
			}
			if err := sf.SetFrameParams(uint8(i), params); err != nil {
				return nil, nil, fmt.Errorf("LoadSuperframeScenario: frame %d: %w", i, err)
			}
		}
	} else if payload.FrameCount != 0 {
		if err := sf.SetFrameCount(uint8(payload.FrameCount)); err != nil {
			return nil, nil, fmt.Errorf("LoadSuperframeScenario: %w", err)
		}
	}

	catalog := model.DefaultWaveformTable()
	if len(payload.Waveforms) > 0 {
		catalog, err = model.NewWaveformTable(payload.Waveforms)
		if err != nil {
			return nil, nil, fmt.Errorf("LoadSuperframeScenario: %w", err)
		}
	}

	targetDuration := time.Duration(payload.TargetDurationMs * float64(time.Millisecond))
	if err := sf.Configure(payload.AllocatedBandwidthHz, targetDuration, catalog); err != nil {
		return nil, nil, fmt.Errorf("LoadSuperframeScenario: %w", err)
	}

	summary := &SuperframeScenario{
		ConfigType:     sf.ConfigType(),
		FrameCount:     sf.FrameCount(),
		CarrierCount:   sf.GetCarrierCount(),
		TimeSlotCount:  sf.GetTimeSlotCount(),
		RaChannelCount: sf.GetRaChannelCount(),
	}
	return sf, summary, nil
}
