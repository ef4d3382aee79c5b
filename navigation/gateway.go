package navigation

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/chunkflow/grid"
)

// ErrInconsistentGateways reports a catalog whose two sides of a boundary disagree
var ErrInconsistentGateways = errors.New("navigation: inconsistent gateway pairing")

// Gateway is a boundary cell of Chunk on Side, paired with the cell across the boundary
type Gateway struct {
	Chunk         int
	Side          grid.Side
	Index         int // Local cell in Chunk
	AdjacentChunk int
	AdjacentIndex int // Local cell in AdjacentChunk
}

func (g Gateway) String() string {
	return fmt.Sprintf("gate chunk %d %v cell %d -> chunk %d cell %d",
		g.Chunk, g.Side, g.Index, g.AdjacentChunk, g.AdjacentIndex)
}

type gatewaySpan struct {
	start, end int
}

// GatewayCatalog holds every gateway of the chunk grid in one contiguous slice
// Read-only after construction; safe for concurrent readers
type GatewayCatalog struct {
	terrain  grid.Terrain
	gateways []Gateway
	spans    []gatewaySpan // Indexed by chunk*SideCount + side
}

// NewGatewayCatalog enumerates the shared edge cells of every cardinal chunk pair
func NewGatewayCatalog(t grid.Terrain) (*GatewayCatalog, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	n := t.ChunkSize
	// Each interior boundary is listed once from each side
	edges := 2 * ((t.NumChunksX-1)*t.NumChunksY + (t.NumChunksY-1)*t.NumChunksX)

	c := &GatewayCatalog{
		terrain:  t,
		gateways: make([]Gateway, 0, edges*n),
		spans:    make([]gatewaySpan, t.NumChunks()*grid.SideCount),
	}

	for chunk := 0; chunk < t.NumChunks(); chunk++ {
		for _, side := range grid.Sides {
			start := len(c.gateways)
			adj := t.ChunkNeighbor(chunk, side)
			if adj != grid.NoNeighbor {
				for i := 0; i < n; i++ {
					local, counterpart := boundaryPair(side, i, n)
					c.gateways = append(c.gateways, Gateway{
						Chunk:         chunk,
						Side:          side,
						Index:         local,
						AdjacentChunk: adj,
						AdjacentIndex: counterpart,
					})
				}
			}
			c.spans[chunk*grid.SideCount+int(side)] = gatewaySpan{start, len(c.gateways)}
		}
	}

	if err := c.verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// boundaryPair returns the i-th cell along side and the matching cell in the neighbor
// Top/Bottom run along x, Left/Right run along y
func boundaryPair(side grid.Side, i, n int) (local, counterpart int) {
	last := n - 1
	switch side {
	case grid.SideTop:
		return last*n + i, i
	case grid.SideBottom:
		return i, last*n + i
	case grid.SideRight:
		return i*n + last, i * n
	case grid.SideLeft:
		return i * n, i*n + last
	}
	return -1, -1
}

// verify checks that every boundary is listed symmetrically from both chunks
func (c *GatewayCatalog) verify() error {
	n := c.terrain.ChunkSize
	for chunk := 0; chunk < c.terrain.NumChunks(); chunk++ {
		for _, side := range grid.Sides {
			gates := c.GatewaysAt(chunk, side)
			if len(gates) == 0 {
				continue
			}
			mirror := c.GatewaysAt(gates[0].AdjacentChunk, side.Opposite())
			if len(mirror) != len(gates) {
				return fmt.Errorf("%w: chunk %d %v has %d gateways, neighbor %d has %d",
					ErrInconsistentGateways, chunk, side, len(gates), gates[0].AdjacentChunk, len(mirror))
			}
			for i, g := range gates {
				m := mirror[i]
				if m.AdjacentChunk != g.Chunk || m.Index != g.AdjacentIndex || m.AdjacentIndex != g.Index {
					return fmt.Errorf("%w: %v does not mirror %v", ErrInconsistentGateways, g, m)
				}
				if !onSide(g.Index, side, n) || !onSide(g.AdjacentIndex, side.Opposite(), n) {
					return fmt.Errorf("%w: %v is not on the shared edge", ErrInconsistentGateways, g)
				}
			}
		}
	}
	return nil
}

func onSide(local int, side grid.Side, n int) bool {
	p := grid.Coord(local, n)
	switch side {
	case grid.SideTop:
		return p.Y == n-1
	case grid.SideBottom:
		return p.Y == 0
	case grid.SideRight:
		return p.X == n-1
	case grid.SideLeft:
		return p.X == 0
	}
	return false
}

// GatewaysAt returns the gateways of chunk on side, empty on the grid perimeter
// The returned slice is shared and must not be modified
func (c *GatewayCatalog) GatewaysAt(chunk int, side grid.Side) []Gateway {
	if !c.terrain.ValidChunk(chunk) || !side.Valid() {
		panic(fmt.Errorf("%w: gateways of chunk %d side %v", grid.ErrOutOfBounds, chunk, side))
	}
	s := c.spans[chunk*grid.SideCount+int(side)]
	return c.gateways[s.start:s.end:s.end]
}

// Len returns the total number of gateways in the catalog
func (c *GatewayCatalog) Len() int {
	return len(c.gateways)
}

// Terrain returns the chunk grid the catalog was built for
func (c *GatewayCatalog) Terrain() grid.Terrain {
	return c.terrain
}
