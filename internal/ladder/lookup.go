package ladder

import (
	"math"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

// CycleFor returns the band a store with the given cumulative revenue falls
// into: the band with the greatest lower bound not above revenue. Revenue
// inside a gap between bands stays in the lower band. NaN matches no band.
func CycleFor(l model.Ladder, revenue float64) (model.Band, error) {
	if math.IsNaN(revenue) {
		return model.Band{}, model.NewLadderError(model.KindNoBandForRevenue, "", -1)
	}

	best := -1
	for i, b := range l {
		if b.MinRevenue > revenue {
			continue
		}
		if best < 0 || b.MinRevenue >= l[best].MinRevenue {
			best = i
		}
	}

	if best < 0 {
		return model.Band{}, model.NewLadderError(model.KindNoBandForRevenue, "", -1)
	}
	return l[best : best+1].Clone()[0], nil
}
