package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KurtHennigar/sns3-satellite/core"
)

// Response shapes. Durations are reported in milliseconds and frequencies
// in hertz relative to the superframe start frequency.

type superframeResponse struct {
	ConfigType     string  `json:"config_type"`
	BandwidthHz    float64 `json:"bandwidth_hz"`
	DurationMs     float64 `json:"duration_ms"`
	FrameCount     uint8   `json:"frame_count"`
	CarrierCount   uint32  `json:"carrier_count"`
	TimeSlotCount  uint32  `json:"time_slot_count"`
	RaChannelCount int     `json:"ra_channel_count"`
}

type frameResponse struct {
	ID                     uint8   `json:"id"`
	BandwidthHz            float64 `json:"bandwidth_hz"`
	DurationMs             float64 `json:"duration_ms"`
	RandomAccess           bool    `json:"random_access"`
	CarrierCount           uint16  `json:"carrier_count"`
	TimeSlotCount          uint16  `json:"time_slot_count"`
	FirstGlobalCarrierID   uint32  `json:"first_global_carrier_id"`
	CarrierAllocatedHz     float64 `json:"carrier_allocated_bandwidth_hz"`
	CarrierOccupiedHz      float64 `json:"carrier_occupied_bandwidth_hz"`
	CarrierEffectiveHz     float64 `json:"carrier_effective_bandwidth_hz"`
	CarrierSymbolRateBauds float64 `json:"carrier_symbol_rate_bauds"`
}

type carrierResponse struct {
	ID                uint32  `json:"id"`
	FrameID           uint8   `json:"frame_id"`
	FrameCarrierID    uint16  `json:"frame_carrier_id"`
	CenterFrequencyHz float64 `json:"center_frequency_hz"`
	AllocatedHz       float64 `json:"allocated_bandwidth_hz"`
	OccupiedHz        float64 `json:"occupied_bandwidth_hz"`
	EffectiveHz       float64 `json:"effective_bandwidth_hz"`
	RandomAccess      bool    `json:"random_access"`
	TimeSlotCount     int     `json:"time_slot_count"`
}

type timeSlotResponse struct {
	Index       int     `json:"index"`
	StartTimeMs float64 `json:"start_time_ms"`
	WaveformID  uint32  `json:"waveform_id"`
	RcIndex     uint8   `json:"rc_index"`
}

type raChannelResponse struct {
	Index        int    `json:"index"`
	FrameID      uint8  `json:"frame_id"`
	SlotCount    uint16 `json:"slot_count"`
	PayloadBytes uint32 `json:"payload_bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSuperframe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, superframeResponse{
		ConfigType:     s.sf.ConfigType().String(),
		BandwidthHz:    s.sf.BandwidthHz(),
		DurationMs:     durationMs(s.sf.Duration()),
		FrameCount:     s.sf.FrameCount(),
		CarrierCount:   s.sf.GetCarrierCount(),
		TimeSlotCount:  s.sf.GetTimeSlotCount(),
		RaChannelCount: s.sf.GetRaChannelCount(),
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frameID, ok := s.frameIDParam(w, r)
	if !ok {
		return
	}

	frame := s.sf.GetFrameConf(frameID)
	btu := frame.Btu()
	writeJSON(w, http.StatusOK, frameResponse{
		ID:                     frameID,
		BandwidthHz:            frame.BandwidthHz(),
		DurationMs:             durationMs(frame.Duration()),
		RandomAccess:           frame.IsRandomAccess(),
		CarrierCount:           frame.GetCarrierCount(),
		TimeSlotCount:          frame.GetTimeSlotCount(),
		FirstGlobalCarrierID:   s.sf.GetCarrierId(frameID, 0),
		CarrierAllocatedHz:     btu.AllocatedBandwidthHz(),
		CarrierOccupiedHz:      btu.OccupiedBandwidthHz(),
		CarrierEffectiveHz:     btu.EffectiveBandwidthHz(),
		CarrierSymbolRateBauds: btu.SymbolRateBauds(),
	})
}

func (s *Server) handleCarrier(w http.ResponseWriter, r *http.Request) {
	carrierID, ok := s.carrierIDParam(w, r)
	if !ok {
		return
	}

	frameID, frameCarrierID := s.sf.GetCarrierFrame(carrierID)
	frame := s.sf.GetFrameConf(frameID)
	writeJSON(w, http.StatusOK, carrierResponse{
		ID:                carrierID,
		FrameID:           frameID,
		FrameCarrierID:    frameCarrierID,
		CenterFrequencyHz: s.sf.GetCarrierFrequencyHz(carrierID),
		AllocatedHz:       s.sf.GetCarrierBandwidthHz(carrierID, core.AllocatedBandwidth),
		OccupiedHz:        s.sf.GetCarrierBandwidthHz(carrierID, core.OccupiedBandwidth),
		EffectiveHz:       s.sf.GetCarrierBandwidthHz(carrierID, core.EffectiveBandwidth),
		RandomAccess:      s.sf.IsRandomAccessCarrier(carrierID),
		TimeSlotCount:     len(frame.GetTimeSlotConfs(frameCarrierID)),
	})
}

func (s *Server) handleCarrierSlots(w http.ResponseWriter, r *http.Request) {
	carrierID, ok := s.carrierIDParam(w, r)
	if !ok {
		return
	}

	frameID, frameCarrierID := s.sf.GetCarrierFrame(carrierID)
	slots := s.sf.GetFrameConf(frameID).GetTimeSlotConfs(frameCarrierID)

	resp := make([]timeSlotResponse, 0, len(slots))
	for i, slot := range slots {
		resp = append(resp, timeSlotResponse{
			Index:       i,
			StartTimeMs: durationMs(slot.StartTime()),
			WaveformID:  slot.WaveformID(),
			RcIndex:     slot.RcIndex(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRaChannels(w http.ResponseWriter, r *http.Request) {
	count := s.sf.GetRaChannelCount()
	resp := make([]raChannelResponse, 0, count)
	for i := 0; i < count; i++ {
		resp = append(resp, s.raChannelResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRaChannel(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "raChannel")
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx >= s.sf.GetRaChannelCount() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown ra channel %q", raw))
		return
	}
	writeJSON(w, http.StatusOK, s.raChannelResponse(idx))
}

func (s *Server) raChannelResponse(idx int) raChannelResponse {
	return raChannelResponse{
		Index:        idx,
		FrameID:      s.sf.GetRaChannelFrameId(idx),
		SlotCount:    s.sf.GetRaSlotCount(idx),
		PayloadBytes: s.sf.GetRaChannelPayloadInBytes(idx),
	}
}

func (s *Server) frameIDParam(w http.ResponseWriter, r *http.Request) (uint8, bool) {
	raw := chi.URLParam(r, "frameID")
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || id >= uint64(s.sf.FrameCount()) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown frame %q", raw))
		return 0, false
	}
	return uint8(id), true
}

func (s *Server) carrierIDParam(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	raw := chi.URLParam(r, "carrierID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id >= uint64(s.sf.GetCarrierCount()) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown carrier %q", raw))
		return 0, false
	}
	return uint32(id), true
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
