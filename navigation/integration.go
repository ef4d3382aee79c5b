package navigation

import (
	"fmt"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/parameter"
)

// queueCompactThreshold bounds the dead prefix kept by the FIFO before it is compacted
const queueCompactThreshold = 1024

// BuildIntegrationField computes accumulated cost from every cell of a width×width chunk to the nearest gateway
// Gateways on impassable cells are not seeded; unreached cells hold IntegrationUnreachable
// cost is read only
func BuildIntegrationField(width int, cost []byte, gateways []Gateway) []int32 {
	if width <= 0 || len(cost) != width*width {
		panic(fmt.Errorf("%w: cost field of %d cells for width %d", grid.ErrOutOfBounds, len(cost), width))
	}

	field := make([]int32, len(cost))
	for i := range field {
		field[i] = parameter.IntegrationUnreachable
	}

	queue := make([]int, 0, len(gateways)+width)
	for _, g := range gateways {
		if g.Index < 0 || g.Index >= len(cost) {
			panic(fmt.Errorf("%w: %v outside chunk of %d cells", grid.ErrOutOfBounds, g, len(cost)))
		}
		if !Passable(cost[g.Index]) || field[g.Index] == 0 {
			continue
		}
		field[g.Index] = 0
		queue = append(queue, g.Index)
	}

	// Label-correcting relaxation: a cell is re-queued whenever its value drops
	head := 0
	for head < len(queue) {
		cur := queue[head]
		head++

		p := grid.Coord(cur, width)
		base := field[cur]
		for _, adj := range grid.CardinalOrder {
			n := grid.Neighbor(cur, adj, p, width)
			if n == grid.NoNeighbor || !Passable(cost[n]) {
				continue
			}
			if v := base + int32(cost[n]); v < field[n] {
				field[n] = v
				queue = append(queue, n)
			}
		}

		if head > queueCompactThreshold && head*2 > len(queue) {
			n := copy(queue, queue[head:])
			queue = queue[:n]
			head = 0
		}
	}

	return field
}
