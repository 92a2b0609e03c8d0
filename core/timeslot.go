package core

import "time"

// TimeSlotConf describes one schedulable time slot on a carrier inside a
// frame. Start time is relative to the frame start. The RC (request class)
// index is the only mutable field: it is assigned by a traffic-class tagging
// pass that runs after the layout has been configured but before it is
// published to readers.
type TimeSlotConf struct {
	startTime  time.Duration
	waveformID uint32
	carrierID  uint16
	rcIndex    uint8
}

// NewTimeSlotConf builds a slot at startTime on the given frame-local
// carrier, transmitted with the given waveform.
func NewTimeSlotConf(startTime time.Duration, waveformID uint32, carrierID uint16) *TimeSlotConf {
	return &TimeSlotConf{
		startTime:  startTime,
		waveformID: waveformID,
		carrierID:  carrierID,
	}
}

// StartTime returns the slot start time relative to the frame start.
func (t *TimeSlotConf) StartTime() time.Duration { return t.startTime }

// WaveformID returns the waveform the slot is transmitted with.
func (t *TimeSlotConf) WaveformID() uint32 { return t.waveformID }

// CarrierID returns the frame-local carrier the slot lives on.
func (t *TimeSlotConf) CarrierID() uint16 { return t.carrierID }

// RcIndex returns the request-class tag of the slot.
func (t *TimeSlotConf) RcIndex() uint8 { return t.rcIndex }

// SetRcIndex tags the slot with a request class. Must only be called from
// the single-threaded tagging pass that follows configuration.
func (t *TimeSlotConf) SetRcIndex(rcIndex uint8) { t.rcIndex = rcIndex }
