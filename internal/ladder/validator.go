package ladder

import (
	"math"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

// Validate checks the whole ladder before a save is accepted. It returns
// nil or a *model.LadderError of kind minimum_band, overlapping_ranges or
// inverted_range. The ladder is never modified.
func Validate(l model.Ladder) error {
	if len(l) == 0 {
		return model.NewLadderError(model.KindMinimumBand, "", -1)
	}

	for i := 0; i+1 < len(l); i++ {
		current, next := l[i], l[i+1]

		if current.MaxRevenue != nil && next.MinRevenue <= *current.MaxRevenue {
			return model.NewLadderError(model.KindOverlappingRanges, next.ID, i+1)
		}
		if current.MinRevenue >= upperBound(current) {
			return model.NewLadderError(model.KindInvertedRange, current.ID, i)
		}
	}

	n := len(l)
	if last := l[n-1]; last.MinRevenue >= upperBound(last) {
		return model.NewLadderError(model.KindInvertedRange, last.ID, n-1)
	}
	return nil
}

func upperBound(b model.Band) float64 {
	if b.MaxRevenue == nil {
		return math.Inf(1)
	}
	return *b.MaxRevenue
}
