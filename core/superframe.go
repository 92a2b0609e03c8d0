package core

import (
	"fmt"
	"time"
)

// MaxFrameCount is the ceiling on frames per superframe. Frame ids are
// carried in a 4-bit-backed field downstream, and the per-frame parameter
// table is sized statically.
const MaxFrameCount = 10

// ConfigType selects one of the pre-baked superframe parameter profiles.
// The profiles only differ in the per-frame parameter table they seed; the
// layout algorithm is identical for all of them.
type ConfigType uint8

const (
	// ConfigType0 is a single dedicated-access frame spanning one carrier size.
	ConfigType0 ConfigType = iota
	// ConfigType1 adds a random-access frame next to the dedicated frame.
	ConfigType1
	// ConfigType2 mixes wide and narrow dedicated carriers plus a random-access frame.
	ConfigType2
	// ConfigType3 splits the spectrum into four frames with three carrier widths.
	ConfigType3
)

func (t ConfigType) String() string {
	if t > ConfigType3 {
		return fmt.Sprintf("ConfigType(%d)", uint8(t))
	}
	return fmt.Sprintf("ConfigType%d", uint8(t))
}

// FrameParams is one row of the superframe's per-frame parameter table. The
// table replaces the per-frame attribute surface: parameters are addressed
// by integer frame index 0..MaxFrameCount-1.
type FrameParams struct {
	// AllocatedBandwidthHz is the spectrum handed to the frame.
	AllocatedBandwidthHz float64
	// CarrierAllocatedBandwidthHz is the spectrum reserved per carrier (the
	// BTU allocated bandwidth).
	CarrierAllocatedBandwidthHz float64
	// CarrierSpacing is the carrier spacing factor (fraction, not percent).
	CarrierSpacing float64
	// CarrierRollOff is the pulse-shaping roll-off factor.
	CarrierRollOff float64
	// RandomAccess reserves every carrier of the frame for contention use.
	RandomAccess bool
}

// raChannel identifies one random-access channel: a single carrier of a
// frame flagged random-access.
type raChannel struct {
	frameID   uint8
	carrierID uint16 // frame-local
}

// SuperframeConf is the top-level TDMA resource block: an ordered list of
// frames with a superframe-wide carrier addressing scheme and random-access
// channel bookkeeping. Global carrier ids are assigned contiguously
// frame-by-frame in frame-list order.
//
// A SuperframeConf goes through exactly one Configure pass during system
// initialisation; afterwards it is immutable and safe for concurrent
// readers. Configure itself is not safe to call concurrently with anything.
type SuperframeConf struct {
	usedBandwidthHz float64
	duration        time.Duration

	frameCount  uint8
	configType  ConfigType
	frameParams [MaxFrameCount]FrameParams

	frames         []*FrameConf
	carrierOffsets []uint32  // global id of each frame's first carrier
	freqOffsets    []float64 // start frequency of each frame, relative to superframe start
	carrierCount   uint32

	raChannels []raChannel
	catalog    WaveformCatalog
	configured bool
}

// NewSuperframeConf builds an unconfigured superframe seeded with the
// parameter profile of the given config type. Individual frame parameters
// and the frame count may be overridden before Configure is called.
func NewSuperframeConf(configType ConfigType) (*SuperframeConf, error) {
	profile, ok := configProfiles[configType]
	if !ok {
		return nil, fmt.Errorf("superframe: unknown config type %d", uint8(configType))
	}

	s := &SuperframeConf{
		configType: configType,
		frameCount: profile.frameCount,
	}
	copy(s.frameParams[:], profile.params)
	return s, nil
}

type configProfile struct {
	frameCount uint8
	params     []FrameParams
}

// configProfiles holds the default per-frame parameter tables of the four
// superframe shapes. All profiles fit inside 12.5 MHz of allocated spectrum.
var configProfiles = map[ConfigType]configProfile{
	ConfigType0: {
		frameCount: 1,
		params: []FrameParams{
			{AllocatedBandwidthHz: 12.5e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
		},
	},
	ConfigType1: {
		frameCount: 2,
		params: []FrameParams{
			{AllocatedBandwidthHz: 10.0e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
			{AllocatedBandwidthHz: 2.5e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20, RandomAccess: true},
		},
	},
	ConfigType2: {
		frameCount: 3,
		params: []FrameParams{
			{AllocatedBandwidthHz: 6.25e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
			{AllocatedBandwidthHz: 5.0e6, CarrierAllocatedBandwidthHz: 6.25e5, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
			{AllocatedBandwidthHz: 1.25e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20, RandomAccess: true},
		},
	},
	ConfigType3: {
		frameCount: 4,
		params: []FrameParams{
			{AllocatedBandwidthHz: 5.0e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
			{AllocatedBandwidthHz: 3.75e6, CarrierAllocatedBandwidthHz: 6.25e5, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
			{AllocatedBandwidthHz: 2.5e6, CarrierAllocatedBandwidthHz: 3.125e5, CarrierSpacing: 0.30, CarrierRollOff: 0.20},
			{AllocatedBandwidthHz: 1.25e6, CarrierAllocatedBandwidthHz: 1.25e6, CarrierSpacing: 0.30, CarrierRollOff: 0.20, RandomAccess: true},
		},
	},
}

// SetFrameCount sets how many rows of the parameter table are in use.
func (s *SuperframeConf) SetFrameCount(frameCount uint8) error {
	if frameCount == 0 || frameCount > MaxFrameCount {
		return fmt.Errorf("superframe: frame count %d outside 1..%d", frameCount, MaxFrameCount)
	}
	s.frameCount = frameCount
	return nil
}

// FrameCount returns the number of frames in use.
func (s *SuperframeConf) FrameCount() uint8 { return s.frameCount }

// ConfigType returns the parameter profile the superframe was seeded from.
func (s *SuperframeConf) ConfigType() ConfigType { return s.configType }

// SetFrameParams replaces the whole parameter row of one frame.
func (s *SuperframeConf) SetFrameParams(frameIndex uint8, params FrameParams) error {
	if frameIndex >= MaxFrameCount {
		return fmt.Errorf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1)
	}
	s.frameParams[frameIndex] = params
	return nil
}

// SetFrameAllocatedBandwidthHz sets the spectrum handed to one frame.
func (s *SuperframeConf) SetFrameAllocatedBandwidthHz(frameIndex uint8, bandwidthHz float64) error {
	if frameIndex >= MaxFrameCount {
		return fmt.Errorf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1)
	}
	s.frameParams[frameIndex].AllocatedBandwidthHz = bandwidthHz
	return nil
}

// SetFrameCarrierAllocatedBandwidthHz sets the per-carrier spectrum of one frame.
func (s *SuperframeConf) SetFrameCarrierAllocatedBandwidthHz(frameIndex uint8, bandwidthHz float64) error {
	if frameIndex >= MaxFrameCount {
		return fmt.Errorf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1)
	}
	s.frameParams[frameIndex].CarrierAllocatedBandwidthHz = bandwidthHz
	return nil
}

// SetFrameCarrierSpacing sets the carrier spacing factor of one frame.
func (s *SuperframeConf) SetFrameCarrierSpacing(frameIndex uint8, spacing float64) error {
	if frameIndex >= MaxFrameCount {
		return fmt.Errorf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1)
	}
	s.frameParams[frameIndex].CarrierSpacing = spacing
	return nil
}

// SetFrameCarrierRollOff sets the roll-off factor of one frame.
func (s *SuperframeConf) SetFrameCarrierRollOff(frameIndex uint8, rollOff float64) error {
	if frameIndex >= MaxFrameCount {
		return fmt.Errorf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1)
	}
	s.frameParams[frameIndex].CarrierRollOff = rollOff
	return nil
}

// SetFrameRandomAccess flags one frame's carriers for contention use.
func (s *SuperframeConf) SetFrameRandomAccess(frameIndex uint8, randomAccess bool) error {
	if frameIndex >= MaxFrameCount {
		return fmt.Errorf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1)
	}
	s.frameParams[frameIndex].RandomAccess = randomAccess
	return nil
}

// GetFrameParams returns the parameter row of one frame. Panics on an
// out-of-range index.
func (s *SuperframeConf) GetFrameParams(frameIndex uint8) FrameParams {
	if frameIndex >= MaxFrameCount {
		panic(fmt.Sprintf("superframe: frame index %d outside 0..%d", frameIndex, MaxFrameCount-1))
	}
	return s.frameParams[frameIndex]
}

// AddFrameConf appends a frame and assigns it the next contiguous block of
// global carrier ids.
func (s *SuperframeConf) AddFrameConf(frame *FrameConf) error {
	if frame == nil {
		return fmt.Errorf("superframe: nil frame")
	}
	if len(s.frames) >= MaxFrameCount {
		return fmt.Errorf("superframe: frame list full, ceiling is %d frames", MaxFrameCount)
	}

	var freqOffset float64
	for _, f := range s.frames {
		freqOffset += f.BandwidthHz()
	}

	s.carrierOffsets = append(s.carrierOffsets, s.carrierCount)
	s.freqOffsets = append(s.freqOffsets, freqOffset)
	s.frames = append(s.frames, frame)
	s.carrierCount += uint32(frame.GetCarrierCount())
	return nil
}

// Configure runs the one-time layout pass: it validates the parameter
// table, builds every frame's BTU and carrier layout, fits time slots onto
// each carrier using the waveform catalog, and records random-access
// channels. Any structural inconsistency aborts configuration with an
// error; a partially configured superframe must not be used.
//
// Slot fitting is greedy and deterministic: slots are appended back-to-back
// from the frame start, each chosen by the catalog's best-fit policy for
// the remaining time, until no catalog waveform fits. Remaining time on a
// carrier is left unused. Carriers of a random-access frame repeat a single
// waveform instead, chosen once for the full frame duration.
func (s *SuperframeConf) Configure(allocatedBandwidthHz float64, targetDuration time.Duration, catalog WaveformCatalog) error {
	if s.configured {
		return fmt.Errorf("superframe: already configured")
	}
	if catalog == nil {
		return fmt.Errorf("superframe: waveform catalog is required")
	}
	if allocatedBandwidthHz <= 0 {
		return fmt.Errorf("superframe: allocated bandwidth must be positive, got %g Hz", allocatedBandwidthHz)
	}
	if targetDuration <= 0 {
		return fmt.Errorf("superframe: target duration must be positive, got %v", targetDuration)
	}
	if s.frameCount == 0 || s.frameCount > MaxFrameCount {
		return fmt.Errorf("superframe: frame count %d outside 1..%d", s.frameCount, MaxFrameCount)
	}

	var requestedHz float64
	for i := uint8(0); i < s.frameCount; i++ {
		requestedHz += s.frameParams[i].AllocatedBandwidthHz
	}
	if requestedHz > allocatedBandwidthHz {
		return fmt.Errorf("superframe: frames request %g Hz but only %g Hz is allocated",
			requestedHz, allocatedBandwidthHz)
	}

	s.usedBandwidthHz = allocatedBandwidthHz
	s.duration = targetDuration
	s.catalog = catalog

	for i := uint8(0); i < s.frameCount; i++ {
		params := s.frameParams[i]

		btu, err := NewBtuConf(params.CarrierAllocatedBandwidthHz, params.CarrierRollOff, params.CarrierSpacing)
		if err != nil {
			return fmt.Errorf("superframe: frame %d: %w", i, err)
		}

		frame, err := NewFrameConf(params.AllocatedBandwidthHz, targetDuration, btu, params.RandomAccess)
		if err != nil {
			return fmt.Errorf("superframe: frame %d: %w", i, err)
		}

		if err := s.layoutFrameSlots(frame, btu); err != nil {
			return fmt.Errorf("superframe: frame %d: %w", i, err)
		}

		if err := s.AddFrameConf(frame); err != nil {
			return fmt.Errorf("superframe: frame %d: %w", i, err)
		}

		if params.RandomAccess {
			for c := uint16(0); c < frame.GetCarrierCount(); c++ {
				s.raChannels = append(s.raChannels, raChannel{frameID: i, carrierID: c})
			}
		}
	}

	s.configured = true
	return nil
}

// layoutFrameSlots fills every carrier of the frame with back-to-back time
// slots until the catalog reports that nothing more fits. All slots on a
// random-access carrier share one waveform, chosen once for the full frame
// duration: contention bursts on a channel must be interchangeable, and
// GetRaChannelPayloadInBytes relies on it.
func (s *SuperframeConf) layoutFrameSlots(frame *FrameConf, btu *BtuConf) error {
	symbolRate := btu.SymbolRateBauds()

	if frame.IsRandomAccess() {
		waveformID, ok := s.catalog.BestWaveform(frame.Duration(), symbolRate)
		if !ok {
			// Frame too short for any waveform; carriers stay empty.
			return nil
		}
		burst, err := s.catalog.BurstDuration(waveformID, symbolRate)
		if err != nil {
			return err
		}
		if burst <= 0 {
			return fmt.Errorf("waveform %d has non-positive burst duration %v", waveformID, burst)
		}

		for carrierID := uint16(0); carrierID < frame.GetCarrierCount(); carrierID++ {
			for elapsed := time.Duration(0); elapsed+burst <= frame.Duration(); elapsed += burst {
				if _, err := frame.AddTimeSlotConf(NewTimeSlotConf(elapsed, waveformID, carrierID)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for carrierID := uint16(0); carrierID < frame.GetCarrierCount(); carrierID++ {
		elapsed := time.Duration(0)

		for {
			remaining := frame.Duration() - elapsed
			waveformID, ok := s.catalog.BestWaveform(remaining, symbolRate)
			if !ok {
				break
			}

			burst, err := s.catalog.BurstDuration(waveformID, symbolRate)
			if err != nil {
				return fmt.Errorf("carrier %d: %w", carrierID, err)
			}
			if burst <= 0 {
				return fmt.Errorf("carrier %d: waveform %d has non-positive burst duration %v",
					carrierID, waveformID, burst)
			}
			if burst > remaining {
				// Catalog contract violation; stop rather than overrun the frame.
				break
			}

			if _, err := frame.AddTimeSlotConf(NewTimeSlotConf(elapsed, waveformID, carrierID)); err != nil {
				return err
			}
			elapsed += burst
		}
	}
	return nil
}

// BandwidthHz returns the superframe's allocated bandwidth.
func (s *SuperframeConf) BandwidthHz() float64 { return s.usedBandwidthHz }

// Duration returns the superframe duration.
func (s *SuperframeConf) Duration() time.Duration { return s.duration }

// GetFrameConf returns a frame by id. Panics on an out-of-range id.
func (s *SuperframeConf) GetFrameConf(frameID uint8) *FrameConf {
	if int(frameID) >= len(s.frames) {
		panic(fmt.Sprintf("superframe: frame id %d out of range, superframe has %d frames", frameID, len(s.frames)))
	}
	return s.frames[frameID]
}

// GetCarrierCount returns the superframe-wide carrier count.
func (s *SuperframeConf) GetCarrierCount() uint32 { return s.carrierCount }

// GetTimeSlotCount returns the total number of time slots across all frames.
func (s *SuperframeConf) GetTimeSlotCount() uint32 {
	var count uint32
	for _, f := range s.frames {
		count += uint32(f.GetTimeSlotCount())
	}
	return count
}

// GetCarrierId converts a (frame id, frame-local carrier id) pair to the
// superframe-global carrier id. Exact inverse of GetCarrierFrame. Panics on
// out-of-range ids.
func (s *SuperframeConf) GetCarrierId(frameID uint8, frameCarrierID uint16) uint32 {
	frame := s.GetFrameConf(frameID)
	if frameCarrierID >= frame.GetCarrierCount() {
		panic(fmt.Sprintf("superframe: carrier id %d out of range, frame %d has %d carriers",
			frameCarrierID, frameID, frame.GetCarrierCount()))
	}
	return s.carrierOffsets[frameID] + uint32(frameCarrierID)
}

// GetCarrierFrame converts a superframe-global carrier id back to its
// (frame id, frame-local carrier id) pair. Exact inverse of GetCarrierId.
// Panics on an out-of-range id.
func (s *SuperframeConf) GetCarrierFrame(carrierID uint32) (uint8, uint16) {
	if carrierID >= s.carrierCount {
		panic(fmt.Sprintf("superframe: carrier id %d out of range, superframe has %d carriers",
			carrierID, s.carrierCount))
	}
	// Frame count is at most 10, a linear scan over the offsets is fine.
	for i := len(s.frames) - 1; i >= 0; i-- {
		if carrierID >= s.carrierOffsets[i] {
			return uint8(i), uint16(carrierID - s.carrierOffsets[i])
		}
	}
	panic(fmt.Sprintf("superframe: carrier id %d has no owning frame", carrierID))
}

// GetCarrierFrequencyHz returns the centre frequency of a global carrier
// relative to the superframe start frequency.
func (s *SuperframeConf) GetCarrierFrequencyHz(carrierID uint32) float64 {
	frameID, localID := s.GetCarrierFrame(carrierID)
	return s.freqOffsets[frameID] + s.frames[frameID].GetCarrierFrequencyHz(localID)
}

// GetCarrierBandwidthHz returns the selected bandwidth figure of a global
// carrier.
func (s *SuperframeConf) GetCarrierBandwidthHz(carrierID uint32, bandwidthType CarrierBandwidthType) float64 {
	frameID, _ := s.GetCarrierFrame(carrierID)
	return s.frames[frameID].GetCarrierBandwidthHz(bandwidthType)
}

// IsRandomAccessCarrier reports whether a global carrier belongs to a frame
// flagged random-access.
func (s *SuperframeConf) IsRandomAccessCarrier(carrierID uint32) bool {
	frameID, _ := s.GetCarrierFrame(carrierID)
	return s.frames[frameID].IsRandomAccess()
}

// GetRaChannelCount returns the number of random-access channels recorded
// during configuration.
func (s *SuperframeConf) GetRaChannelCount() int { return len(s.raChannels) }

// GetRaSlots returns the time slots of one random-access channel. The
// returned slice is owned by the configuration and must not be modified.
// Panics on an out-of-range channel index.
func (s *SuperframeConf) GetRaSlots(raChannelIndex int) []*TimeSlotConf {
	ch := s.raChannel(raChannelIndex)
	return s.frames[ch.frameID].GetTimeSlotConfs(ch.carrierID)
}

// GetRaSlotCount returns the number of slots on one random-access channel.
func (s *SuperframeConf) GetRaSlotCount(raChannelIndex int) uint16 {
	return uint16(len(s.GetRaSlots(raChannelIndex)))
}

// GetRaChannelFrameId returns the frame owning one random-access channel.
func (s *SuperframeConf) GetRaChannelFrameId(raChannelIndex int) uint8 {
	return s.raChannel(raChannelIndex).frameID
}

// GetRaChannelPayloadInBytes returns the burst payload size of a
// random-access channel. All slots on one RA carrier share a single
// waveform; a mix would mean the layout pass misbehaved, so it panics. A
// channel with no slots reports zero payload.
func (s *SuperframeConf) GetRaChannelPayloadInBytes(raChannelIndex int) uint32 {
	slots := s.GetRaSlots(raChannelIndex)
	if len(slots) == 0 {
		return 0
	}

	waveformID := slots[0].WaveformID()
	for _, slot := range slots[1:] {
		if slot.WaveformID() != waveformID {
			panic(fmt.Sprintf("superframe: ra channel %d mixes waveforms %d and %d",
				raChannelIndex, waveformID, slot.WaveformID()))
		}
	}

	payload, err := s.catalog.PayloadBytes(waveformID)
	if err != nil {
		panic(fmt.Sprintf("superframe: ra channel %d uses waveform %d unknown to the catalog: %v",
			raChannelIndex, waveformID, err))
	}
	return payload
}

func (s *SuperframeConf) raChannel(index int) raChannel {
	if index < 0 || index >= len(s.raChannels) {
		panic(fmt.Sprintf("superframe: ra channel %d out of range, superframe has %d channels",
			index, len(s.raChannels)))
	}
	return s.raChannels[index]
}
