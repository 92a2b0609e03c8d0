package core

import "time"

// WaveformCatalog is the read-only waveform capability lookup the layout
// engine consults while fitting time slots onto carriers. Implementations
// must be deterministic: the same arguments always select the same waveform,
// since the resulting layout is shared configuration that downstream
// scheduling depends on bit-exactly.
type WaveformCatalog interface {
	// BestWaveform selects the waveform to use for a slot when `available`
	// time remains on a carrier running at the given symbol rate. ok is
	// false when no catalog waveform fits, which ends slot placement on
	// that carrier.
	BestWaveform(available time.Duration, symbolRateBauds float64) (waveformID uint32, ok bool)

	// BurstDuration returns the burst duration of the waveform at the given
	// symbol rate.
	BurstDuration(waveformID uint32, symbolRateBauds float64) (time.Duration, error)

	// PayloadBytes returns the payload size of one burst of the waveform.
	PayloadBytes(waveformID uint32) (uint32, error)
}
