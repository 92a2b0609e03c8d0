package core

import (
	"fmt"
	"math"
	"time"
)

const (
	// MaxTimeSlotCount is the hard ceiling on time slots per frame. Slot
	// indices are carried in an 11-bit field on the wire, so the flat index
	// space per frame is 0..2047.
	MaxTimeSlotCount = 2048

	// MaxTimeSlotIndex is the largest valid frame-flat slot index.
	MaxTimeSlotIndex = MaxTimeSlotCount - 1
)

// CarrierBandwidthType selects which of the three BTU bandwidth figures a
// carrier bandwidth query refers to.
type CarrierBandwidthType int

const (
	AllocatedBandwidth CarrierBandwidthType = iota
	OccupiedBandwidth
	EffectiveBandwidth
)

func (t CarrierBandwidthType) String() string {
	switch t {
	case AllocatedBandwidth:
		return "allocated"
	case OccupiedBandwidth:
		return "occupied"
	case EffectiveBandwidth:
		return "effective"
	default:
		return fmt.Sprintf("CarrierBandwidthType(%d)", int(t))
	}
}

// FrameConf describes one frame of a superframe: a bandwidth/time partition
// divided into equally sized carriers, each carrying an ordered sequence of
// time slots. The carrier count is derived from the frame bandwidth and the
// BTU; any remainder bandwidth is left unused as guard band.
//
// Slots are identified two ways: by a frame-flat index assigned in append
// order across all carriers, and by (carrier id, carrier-local index). Both
// lookups are O(1). A FrameConf is mutable only through AddTimeSlotConf
// during configuration; afterwards it is read-only and safe for concurrent
// readers.
type FrameConf struct {
	bandwidthHz    float64
	duration       time.Duration
	isRandomAccess bool

	btu          *BtuConf
	carrierCount uint16

	slots          []*TimeSlotConf
	slotsByCarrier map[uint16][]*TimeSlotConf
}

// NewFrameConf builds an empty frame over the given bandwidth and duration.
// The carrier count is floor(bandwidthHz / btu allocated bandwidth); a frame
// narrower than one carrier is a configuration error.
func NewFrameConf(bandwidthHz float64, duration time.Duration, btu *BtuConf, isRandomAccess bool) (*FrameConf, error) {
	if btu == nil {
		return nil, fmt.Errorf("frame: btu configuration is required")
	}
	if bandwidthHz <= 0 {
		return nil, fmt.Errorf("frame: bandwidth must be positive, got %g Hz", bandwidthHz)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("frame: duration must be positive, got %v", duration)
	}

	ratio := bandwidthHz / btu.AllocatedBandwidthHz()
	if ratio > math.MaxUint16 {
		return nil, fmt.Errorf("frame: bandwidth %g Hz over %g Hz carriers yields %g carriers, ceiling is %d",
			bandwidthHz, btu.AllocatedBandwidthHz(), math.Floor(ratio), math.MaxUint16)
	}
	carrierCount := uint16(ratio)
	if carrierCount == 0 {
		return nil, fmt.Errorf("frame: bandwidth %g Hz is narrower than one %g Hz carrier",
			bandwidthHz, btu.AllocatedBandwidthHz())
	}

	return &FrameConf{
		bandwidthHz:    bandwidthHz,
		duration:       duration,
		isRandomAccess: isRandomAccess,
		btu:            btu,
		carrierCount:   carrierCount,
		slotsByCarrier: make(map[uint16][]*TimeSlotConf),
	}, nil
}

// AddTimeSlotConf appends a slot to the frame and returns its frame-flat
// index. Filling the slot space past MaxTimeSlotIndex or referencing a
// carrier the frame does not have is a configuration error.
func (f *FrameConf) AddTimeSlotConf(slot *TimeSlotConf) (uint16, error) {
	if slot == nil {
		return 0, fmt.Errorf("frame: nil time slot")
	}
	if len(f.slots) >= MaxTimeSlotCount {
		return 0, fmt.Errorf("frame: time slot space exhausted, index %d exceeds %d",
			len(f.slots), MaxTimeSlotIndex)
	}
	if slot.CarrierID() >= f.carrierCount {
		return 0, fmt.Errorf("frame: slot carrier id %d out of range, frame has %d carriers",
			slot.CarrierID(), f.carrierCount)
	}

	index := uint16(len(f.slots))
	f.slots = append(f.slots, slot)
	f.slotsByCarrier[slot.CarrierID()] = append(f.slotsByCarrier[slot.CarrierID()], slot)
	return index, nil
}

// GetTimeSlotConf returns the slot with the given frame-flat index.
// Panics on an out-of-range index: all flat indices in circulation were
// handed out by AddTimeSlotConf on this same frame, so an invalid one is a
// caller bug, not a runtime condition.
func (f *FrameConf) GetTimeSlotConf(index uint16) *TimeSlotConf {
	if int(index) >= len(f.slots) {
		panic(fmt.Sprintf("frame: time slot index %d out of range, frame has %d slots", index, len(f.slots)))
	}
	return f.slots[index]
}

// GetCarrierTimeSlotConf returns the index'th slot on the given carrier.
// Panics on out-of-range ids, same contract as GetTimeSlotConf.
func (f *FrameConf) GetCarrierTimeSlotConf(carrierID, index uint16) *TimeSlotConf {
	slots := f.GetTimeSlotConfs(carrierID)
	if int(index) >= len(slots) {
		panic(fmt.Sprintf("frame: slot index %d out of range, carrier %d has %d slots",
			index, carrierID, len(slots)))
	}
	return slots[index]
}

// GetTimeSlotConfs returns the ordered slots of one carrier. The returned
// slice is owned by the frame and must not be modified. Panics if the
// carrier id is out of range.
func (f *FrameConf) GetTimeSlotConfs(carrierID uint16) []*TimeSlotConf {
	if carrierID >= f.carrierCount {
		panic(fmt.Sprintf("frame: carrier id %d out of range, frame has %d carriers", carrierID, f.carrierCount))
	}
	return f.slotsByCarrier[carrierID]
}

// GetTimeSlotCount returns the number of slots placed in the frame.
func (f *FrameConf) GetTimeSlotCount() uint16 {
	return uint16(len(f.slots))
}

// GetCarrierFrequencyHz returns the centre frequency of a carrier relative
// to the frame start frequency. Carriers are evenly spaced on the BTU
// allocated bandwidth; the spacing factor is already baked into the BTU's
// occupied bandwidth. Panics if the carrier id is out of range.
func (f *FrameConf) GetCarrierFrequencyHz(carrierID uint16) float64 {
	if carrierID >= f.carrierCount {
		panic(fmt.Sprintf("frame: carrier id %d out of range, frame has %d carriers", carrierID, f.carrierCount))
	}
	carrierBandwidthHz := f.btu.AllocatedBandwidthHz()
	return carrierBandwidthHz*float64(carrierID) + carrierBandwidthHz/2.0
}

// GetCarrierBandwidthHz returns the carrier bandwidth figure selected by
// bandwidthType. Panics on an unknown type tag.
func (f *FrameConf) GetCarrierBandwidthHz(bandwidthType CarrierBandwidthType) float64 {
	switch bandwidthType {
	case AllocatedBandwidth:
		return f.btu.AllocatedBandwidthHz()
	case OccupiedBandwidth:
		return f.btu.OccupiedBandwidthHz()
	case EffectiveBandwidth:
		return f.btu.EffectiveBandwidthHz()
	default:
		panic(fmt.Sprintf("frame: invalid carrier bandwidth type %d", int(bandwidthType)))
	}
}

// BandwidthHz returns the total frame bandwidth.
func (f *FrameConf) BandwidthHz() float64 { return f.bandwidthHz }

// Duration returns the frame duration.
func (f *FrameConf) Duration() time.Duration { return f.duration }

// Btu returns the BTU the frame's carriers are built from.
func (f *FrameConf) Btu() *BtuConf { return f.btu }

// GetCarrierCount returns the number of carriers in the frame.
func (f *FrameConf) GetCarrierCount() uint16 { return f.carrierCount }

// IsRandomAccess reports whether the frame's carriers are reserved for
// contention-based (random access) use.
func (f *FrameConf) IsRandomAccess() bool { return f.isRandomAccess }
