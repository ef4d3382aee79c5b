package navigation

import (
	"fmt"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/parameter"
)

// DirectionField steers every cell of one chunk toward the chunk's gateways on Side
// Immutable once built; shared between agents and goroutines
type DirectionField struct {
	Chunk   int
	Side    grid.Side
	Width   int
	Version uint64 // Obstacle version of Chunk the field was computed against

	Directions  []grid.Direction
	Integration []int32
}

// At returns the direction of a local cell
func (f *DirectionField) At(local int) grid.Direction {
	if local < 0 || local >= len(f.Directions) {
		panic(fmt.Errorf("%w: local cell %d of %d", grid.ErrOutOfBounds, local, len(f.Directions)))
	}
	return f.Directions[local]
}

// Reachable reports whether a local cell has a finite integration value
func (f *DirectionField) Reachable(local int) bool {
	return f.Integration[local] < parameter.IntegrationUnreachable
}

// BuildDirectionField derives per-cell directions from an integration field
// Unreached cells point away from side, seeds point across side,
// every other cell points at its strictly smallest cardinal neighbor
func BuildDirectionField(width int, integration []int32, side grid.Side) []grid.Direction {
	if width <= 0 || len(integration) != width*width {
		panic(fmt.Errorf("%w: integration field of %d cells for width %d", grid.ErrOutOfBounds, len(integration), width))
	}
	if !side.Valid() {
		panic(fmt.Errorf("%w: side %d", grid.ErrOutOfBounds, side))
	}

	fallback := grid.DirectionOf(side.Opposite())
	exit := grid.DirectionOf(side)

	dirs := make([]grid.Direction, len(integration))
	for idx, best := range integration {
		switch {
		case best >= parameter.IntegrationUnreachable:
			dirs[idx] = fallback
			continue
		case best == 0:
			dirs[idx] = exit
			continue
		}

		p := grid.Coord(idx, width)
		dir := grid.DirNone
		for _, adj := range grid.CardinalOrder {
			n := grid.Neighbor(idx, adj, p, width)
			if n == grid.NoNeighbor {
				continue
			}
			if integration[n] < best {
				best = integration[n]
				dir = adj.Direction()
			}
		}
		// A relaxed field always has a smaller neighbor; hand-built input may not
		if dir == grid.DirNone {
			dir = fallback
		}
		dirs[idx] = dir
	}
	return dirs
}

// ComputeDirectionField runs cost, integration and direction passes for one (chunk, side)
// gateways must be the usable gateways of chunk on side; weights may be nil
func ComputeDirectionField(chunk int, side grid.Side, width int, obstacles []bool, weights []byte, gateways []Gateway) *DirectionField {
	cost := BuildWeightedCostField(obstacles, weights)
	integration := BuildIntegrationField(width, cost, gateways)
	return &DirectionField{
		Chunk:       chunk,
		Side:        side,
		Width:       width,
		Directions:  BuildDirectionField(width, integration, side),
		Integration: integration,
	}
}
