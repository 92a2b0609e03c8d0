package model

import (
	"fmt"
	"sort"
	"time"
)

// Waveform describes one modulation/coding combination: how long its burst
// is in symbols and how many payload bytes one burst carries. Burst duration
// in wall time depends on the carrier symbol rate, so it is derived rather
// than stored.
type Waveform struct {
	ID                   uint32 `json:"id"`
	Name                 string `json:"name"`
	BurstLengthInSymbols uint32 `json:"burst_length_in_symbols"`
	PayloadBytes         uint32 `json:"payload_bytes"`
}

// BurstDuration returns the wall-time length of one burst at the given
// symbol rate. Returns zero for a non-positive symbol rate.
func (w Waveform) BurstDuration(symbolRateBauds float64) time.Duration {
	if symbolRateBauds <= 0 {
		return 0
	}
	seconds := float64(w.BurstLengthInSymbols) / symbolRateBauds
	return time.Duration(seconds * float64(time.Second))
}

// WaveformTable is an immutable waveform catalog. Its best-fit selection is
// deterministic: among the waveforms whose burst fits the available time it
// prefers the largest payload, breaking ties by shorter burst and then by
// lower waveform id.
type WaveformTable struct {
	byID map[uint32]Waveform
	ids  []uint32 // ascending, for deterministic iteration
}

// NewWaveformTable builds a catalog from the given waveforms. Duplicate
// ids, zero burst lengths and zero payloads are rejected.
func NewWaveformTable(waveforms []Waveform) (*WaveformTable, error) {
	if len(waveforms) == 0 {
		return nil, fmt.Errorf("waveform table: at least one waveform is required")
	}

	byID := make(map[uint32]Waveform, len(waveforms))
	ids := make([]uint32, 0, len(waveforms))
	for _, w := range waveforms {
		if _, exists := byID[w.ID]; exists {
			return nil, fmt.Errorf("waveform table: duplicate waveform id %d", w.ID)
		}
		if w.BurstLengthInSymbols == 0 {
			return nil, fmt.Errorf("waveform table: waveform %d has zero burst length", w.ID)
		}
		if w.PayloadBytes == 0 {
			return nil, fmt.Errorf("waveform table: waveform %d has zero payload", w.ID)
		}
		byID[w.ID] = w
		ids = append(ids, w.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &WaveformTable{byID: byID, ids: ids}, nil
}

// BestWaveform selects the waveform for the next slot on a carrier with
// `available` time left at the given symbol rate. ok is false when no
// waveform fits.
func (t *WaveformTable) BestWaveform(available time.Duration, symbolRateBauds float64) (uint32, bool) {
	if available <= 0 || symbolRateBauds <= 0 {
		return 0, false
	}

	var (
		bestID    uint32
		bestDur   time.Duration
		bestBytes uint32
		found     bool
	)
	for _, id := range t.ids {
		w := t.byID[id]
		dur := w.BurstDuration(symbolRateBauds)
		if dur <= 0 || dur > available {
			continue
		}
		better := !found ||
			w.PayloadBytes > bestBytes ||
			(w.PayloadBytes == bestBytes && dur < bestDur)
		if better {
			bestID, bestDur, bestBytes = id, dur, w.PayloadBytes
			found = true
		}
	}
	return bestID, found
}

// BurstDuration returns the burst duration of a waveform at the given
// symbol rate.
func (t *WaveformTable) BurstDuration(waveformID uint32, symbolRateBauds float64) (time.Duration, error) {
	w, ok := t.byID[waveformID]
	if !ok {
		return 0, fmt.Errorf("waveform table: unknown waveform id %d", waveformID)
	}
	if symbolRateBauds <= 0 {
		return 0, fmt.Errorf("waveform table: symbol rate must be positive, got %g", symbolRateBauds)
	}
	return w.BurstDuration(symbolRateBauds), nil
}

// PayloadBytes returns the burst payload size of a waveform.
func (t *WaveformTable) PayloadBytes(waveformID uint32) (uint32, error) {
	w, ok := t.byID[waveformID]
	if !ok {
		return 0, fmt.Errorf("waveform table: unknown waveform id %d", waveformID)
	}
	return w.PayloadBytes, nil
}

// Waveform returns one catalog entry by id.
func (t *WaveformTable) Waveform(waveformID uint32) (Waveform, bool) {
	w, ok := t.byID[waveformID]
	return w, ok
}

// IDs returns all waveform ids in ascending order. The returned slice is
// owned by the table and must not be modified.
func (t *WaveformTable) IDs() []uint32 { return t.ids }

// DefaultWaveformTable returns the built-in DVB-RCS2-flavoured reference
// catalog: two burst lengths across a QPSK..16QAM modcod ladder.
func DefaultWaveformTable() *WaveformTable {
	table, err := NewWaveformTable([]Waveform{
		{ID: 3, Name: "QPSK 1/3", BurstLengthInSymbols: 536, PayloadBytes: 38},
		{ID: 4, Name: "QPSK 1/2", BurstLengthInSymbols: 536, PayloadBytes: 59},
		{ID: 5, Name: "QPSK 2/3", BurstLengthInSymbols: 536, PayloadBytes: 81},
		{ID: 6, Name: "QPSK 3/4", BurstLengthInSymbols: 536, PayloadBytes: 92},
		{ID: 7, Name: "QPSK 5/6", BurstLengthInSymbols: 536, PayloadBytes: 102},
		{ID: 8, Name: "8PSK 2/3", BurstLengthInSymbols: 536, PayloadBytes: 122},
		{ID: 9, Name: "8PSK 3/4", BurstLengthInSymbols: 536, PayloadBytes: 139},
		{ID: 10, Name: "8PSK 5/6", BurstLengthInSymbols: 536, PayloadBytes: 154},
		{ID: 11, Name: "16QAM 3/4", BurstLengthInSymbols: 536, PayloadBytes: 186},
		{ID: 12, Name: "16QAM 5/6", BurstLengthInSymbols: 536, PayloadBytes: 207},
		{ID: 13, Name: "QPSK 1/3", BurstLengthInSymbols: 1616, PayloadBytes: 123},
		{ID: 14, Name: "QPSK 1/2", BurstLengthInSymbols: 1616, PayloadBytes: 188},
		{ID: 15, Name: "QPSK 2/3", BurstLengthInSymbols: 1616, PayloadBytes: 254},
		{ID: 16, Name: "QPSK 3/4", BurstLengthInSymbols: 1616, PayloadBytes: 286},
		{ID: 17, Name: "QPSK 5/6", BurstLengthInSymbols: 1616, PayloadBytes: 319},
		{ID: 18, Name: "8PSK 2/3", BurstLengthInSymbols: 1616, PayloadBytes: 383},
		{ID: 19, Name: "8PSK 3/4", BurstLengthInSymbols: 1616, PayloadBytes: 432},
		{ID: 20, Name: "8PSK 5/6", BurstLengthInSymbols: 1616, PayloadBytes: 480},
		{ID: 21, Name: "16QAM 3/4", BurstLengthInSymbols: 1616, PayloadBytes: 577},
		{ID: 22, Name: "16QAM 5/6", BurstLengthInSymbols: 1616, PayloadBytes: 642},
	})
	if err != nil {
		// The built-in table is static; a construction failure is a bug.
		panic(err)
	}
	return table
}
