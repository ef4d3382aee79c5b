package navigation

import (
	"fmt"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/parameter"
)

// BuildCostField maps an obstacle mask to traversal costs: CostImpassable for obstacles, CostDefault elsewhere
func BuildCostField(obstacles []bool) []byte {
	return BuildWeightedCostField(obstacles, nil)
}

// BuildWeightedCostField is BuildCostField with per-cell terrain weights for passable cells
// Weights are clamped to [1, CostMaxPassable]; nil weights means CostDefault everywhere
func BuildWeightedCostField(obstacles []bool, weights []byte) []byte {
	if weights != nil && len(weights) != len(obstacles) {
		panic(fmt.Errorf("%w: %d weights for %d cells", grid.ErrOutOfBounds, len(weights), len(obstacles)))
	}

	cost := make([]byte, len(obstacles))
	for i, blocked := range obstacles {
		switch {
		case blocked:
			cost[i] = parameter.CostImpassable
		case weights == nil:
			cost[i] = parameter.CostDefault
		default:
			cost[i] = clampWeight(weights[i])
		}
	}
	return cost
}

func clampWeight(w byte) byte {
	if w == 0 {
		return parameter.CostDefault
	}
	if w > parameter.CostMaxPassable {
		return parameter.CostMaxPassable
	}
	return w
}

// Passable reports whether a cost field cell can be entered
func Passable(cost byte) bool {
	return cost != parameter.CostImpassable
}
