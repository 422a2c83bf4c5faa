package ladder

import "github.com/voltz-checkout/cycle-ladder/internal/model"

// DefaultLadder returns the five bootstrap bands a new account starts with.
// The values are seeds only; nothing else depends on them.
func DefaultLadder() model.Ladder {
	return model.Ladder{
		{ID: "1", MinRevenue: 0, MaxRevenue: model.Revenue(5000), CycleValue: 100},
		{ID: "2", MinRevenue: 5001, MaxRevenue: model.Revenue(15000), CycleValue: 200},
		{ID: "3", MinRevenue: 15001, MaxRevenue: model.Revenue(30000), CycleValue: 300},
		{ID: "4", MinRevenue: 30001, MaxRevenue: model.Revenue(50000), CycleValue: 400},
		{ID: "5", MinRevenue: 50001, MaxRevenue: nil, CycleValue: 500},
	}
}
