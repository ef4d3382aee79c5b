package navigation

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/parameter"
)

// ErrNoPathFound is returned when the destination chunk cannot be reached
var ErrNoPathFound = errors.New("navigation: no path found")

// ChunkRoute is an ordered chunk sequence from start to destination, each step a cardinal neighbor
type ChunkRoute []int

// Start returns the first chunk, -1 for an empty route
func (r ChunkRoute) Start() int {
	if len(r) == 0 {
		return -1
	}
	return r[0]
}

// Dest returns the last chunk, -1 for an empty route
func (r ChunkRoute) Dest() int {
	if len(r) == 0 {
		return -1
	}
	return r[len(r)-1]
}

// IndexOf returns the position of chunk on the route, -1 if absent
func (r ChunkRoute) IndexOf(chunk int) int {
	for i, c := range r {
		if c == chunk {
			return i
		}
	}
	return -1
}

// Leg is one hop of a route: leave Chunk through Side
type Leg struct {
	Chunk int
	Side  grid.Side
}

// Legs resolves the exit side of every chunk except the destination
func (r ChunkRoute) Legs(t grid.Terrain) ([]Leg, error) {
	if len(r) < 2 {
		return nil, nil
	}
	legs := make([]Leg, 0, len(r)-1)
	for i := 0; i+1 < len(r); i++ {
		if !t.ValidChunk(r[i]) || !t.ValidChunk(r[i+1]) {
			return nil, fmt.Errorf("%w: route step %d -> %d", grid.ErrOutOfBounds, r[i], r[i+1])
		}
		side, ok := t.SideToward(r[i], r[i+1])
		if !ok {
			return nil, fmt.Errorf("navigation: route step %d -> %d is not a cardinal neighbor", r[i], r[i+1])
		}
		legs = append(legs, Leg{Chunk: r[i], Side: side})
	}
	return legs, nil
}

// BlockedFunc reports chunks the router must not enter
type BlockedFunc func(chunk int) bool

// ChunkRouter finds shortest chunk sequences with A* over the 4-connected chunk grid
// Stateless between calls; safe for concurrent use
type ChunkRouter struct {
	terrain grid.Terrain
}

// NewChunkRouter creates a router for the terrain's chunk grid
func NewChunkRouter(t grid.Terrain) *ChunkRouter {
	return &ChunkRouter{terrain: t}
}

type routeNode struct {
	g        int
	cameFrom int
	closed   bool
}

// heuristic is the Manhattan chunk distance scaled by the edge cost, admissible on a 4-connected grid
func (r *ChunkRouter) heuristic(a, b int) int {
	pa := r.terrain.ChunkCoord(a)
	pb := r.terrain.ChunkCoord(b)
	dx := pa.X - pb.X
	if dx < 0 {
		dx = -dx
	}
	dy := pa.Y - pb.Y
	if dy < 0 {
		dy = -dy
	}
	return (dx + dy) * parameter.RouteEdgeCost
}

// Route returns the shortest chunk route from start to dest, both inclusive
// blocked may be nil; the start chunk is never tested against it
func (r *ChunkRouter) Route(start, dest int, blocked BlockedFunc) (ChunkRoute, error) {
	if !r.terrain.ValidChunk(start) || !r.terrain.ValidChunk(dest) {
		return nil, fmt.Errorf("%w: route %d -> %d in %d chunks", grid.ErrOutOfBounds, start, dest, r.terrain.NumChunks())
	}
	if start == dest {
		return ChunkRoute{start}, nil
	}

	const unvisited = int(^uint(0) >> 1)
	nodes := make([]routeNode, r.terrain.NumChunks())
	for i := range nodes {
		nodes[i] = routeNode{g: unvisited, cameFrom: -1}
	}

	seq := 0
	open := make(minHeap, 0, 16)
	nodes[start].g = 0
	open.push(heapEntry{chunk: start, g: 0, f: r.heuristic(start, dest), seq: seq})

	for len(open) > 0 {
		e := open.pop()
		node := &nodes[e.chunk]
		if node.closed || e.g > node.g {
			continue // Stale entry
		}
		if e.chunk == dest {
			return r.reconstruct(nodes, dest), nil
		}
		node.closed = true

		for _, side := range grid.Sides {
			n := r.terrain.ChunkNeighbor(e.chunk, side)
			if n == grid.NoNeighbor || nodes[n].closed {
				continue
			}
			if blocked != nil && blocked(n) {
				continue
			}
			g := e.g + parameter.RouteEdgeCost
			if g < nodes[n].g {
				nodes[n].g = g
				nodes[n].cameFrom = e.chunk
				seq++
				open.push(heapEntry{chunk: n, g: g, f: g + r.heuristic(n, dest), seq: seq})
			}
		}
	}

	return nil, ErrNoPathFound
}

func (r *ChunkRouter) reconstruct(nodes []routeNode, dest int) ChunkRoute {
	length := 0
	for c := dest; c != -1; c = nodes[c].cameFrom {
		length++
	}
	route := make(ChunkRoute, length)
	for c, i := dest, length-1; c != -1; c, i = nodes[c].cameFrom, i-1 {
		route[i] = c
	}
	return route
}
