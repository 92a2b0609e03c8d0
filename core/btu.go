package core

import "fmt"

// BtuConf describes one Bandwidth Time Unit (BTU), the minimal frequency
// granule carriers are built from. The allocated bandwidth is what the frame
// plan reserves per carrier; the occupied bandwidth is what remains after the
// carrier spacing factor is taken out, and the effective bandwidth is what
// remains after the pulse-shaping roll-off on top of that. The effective
// bandwidth doubles as the carrier symbol rate.
//
// A BtuConf is immutable after construction and may be shared across frames.
type BtuConf struct {
	allocatedBandwidthHz float64
	occupiedBandwidthHz  float64
	effectiveBandwidthHz float64
}

// NewBtuConf derives the occupied and effective bandwidth figures from the
// allocated bandwidth and the roll-off and spacing factors. The factors are
// fractions (0.2 means 20%), not percentages.
func NewBtuConf(allocatedBandwidthHz, rollOff, spacing float64) (*BtuConf, error) {
	if allocatedBandwidthHz <= 0 {
		return nil, fmt.Errorf("btu: allocated bandwidth must be positive, got %g Hz", allocatedBandwidthHz)
	}
	if rollOff < 0 {
		return nil, fmt.Errorf("btu: roll-off factor must not be negative, got %g", rollOff)
	}
	if spacing < 0 {
		return nil, fmt.Errorf("btu: spacing factor must not be negative, got %g", spacing)
	}

	occupied := allocatedBandwidthHz / (1.0 + spacing)
	effective := occupied / (1.0 + rollOff)

	return &BtuConf{
		allocatedBandwidthHz: allocatedBandwidthHz,
		occupiedBandwidthHz:  occupied,
		effectiveBandwidthHz: effective,
	}, nil
}

// AllocatedBandwidthHz returns the bandwidth reserved for one carrier.
func (b *BtuConf) AllocatedBandwidthHz() float64 { return b.allocatedBandwidthHz }

// OccupiedBandwidthHz returns the bandwidth occupied after carrier spacing.
func (b *BtuConf) OccupiedBandwidthHz() float64 { return b.occupiedBandwidthHz }

// EffectiveBandwidthHz returns the usable bandwidth after roll-off.
func (b *BtuConf) EffectiveBandwidthHz() float64 { return b.effectiveBandwidthHz }

// SymbolRateBauds returns the carrier symbol rate, which equals the
// effective bandwidth.
func (b *BtuConf) SymbolRateBauds() float64 { return b.effectiveBandwidthHz }
