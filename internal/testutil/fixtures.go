package testutil

import "github.com/voltz-checkout/cycle-ladder/internal/model"

// BandOption customizes a band built by NewTestBand.
type BandOption func(*model.Band)

// WithMax sets a finite upper bound.
func WithMax(v float64) BandOption {
	return func(b *model.Band) { b.MaxRevenue = model.Revenue(v) }
}

// WithCycle sets the cycle value.
func WithCycle(v float64) BandOption {
	return func(b *model.Band) { b.CycleValue = v }
}

// NewTestBand creates an unbounded band with a cycle value of 100.
func NewTestBand(id string, minRevenue float64, opts ...BandOption) model.Band {
	b := model.Band{ID: id, MinRevenue: minRevenue, CycleValue: 100}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// TwoBandLadder returns a small valid ladder: [0,1000] and [1001,∞).
func TwoBandLadder() model.Ladder {
	return model.Ladder{
		NewTestBand("low", 0, WithMax(1000), WithCycle(100)),
		NewTestBand("high", 1001, WithCycle(200)),
	}
}
