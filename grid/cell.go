package grid

import (
	"github.com/lixenwraith/chunkflow/vmath"
)

// HeightFunc samples terrain height at a ground-plane position
// Supplied by the terrain mesh owner; nil means flat ground at Origin.Y
type HeightFunc func(x, z float64) float64

// Cell is the world geometry of one grid cell
// Corners are ordered (0,0), (1,0), (0,1), (1,1) relative to the cell's min corner
type Cell struct {
	Index   int // Global grid index
	Chunk   int
	Local   int // Index inside Chunk
	Coord   Point
	Center  vmath.Vec3F
	Corners [4]vmath.Vec3F
}

// Cell builds the geometry of a global cell
func (t Terrain) Cell(gridIndex int, height HeightFunc) Cell {
	p := t.mustGridIndex(gridIndex)
	c := Cell{
		Index: gridIndex,
		Chunk: t.ChunkIndexFromGridIndex(gridIndex),
		Local: t.LocalIndexFromGridIndex(gridIndex),
		Coord: p,
	}

	var sumY float64
	for v := 0; v < 4; v++ {
		off := Coord(v, 2)
		x := t.Origin.X + float64(p.X+off.X)*t.CellSize
		z := t.Origin.Z + float64(p.Y+off.Y)*t.CellSize
		y := t.Origin.Y
		if height != nil {
			y = height(x, z)
		}
		c.Corners[v] = vmath.Vec3F{X: x, Y: y, Z: z}
		sumY += y
	}

	half := t.CellSize / 2
	c.Center = vmath.Vec3F{
		X: c.Corners[0].X + half,
		Y: sumY / 4,
		Z: c.Corners[0].Z + half,
	}
	return c
}

// ChunkCells builds the geometry of every cell of a chunk in local order
func (t Terrain) ChunkCells(chunk int, height HeightFunc) []Cell {
	indices := t.CellsAtChunk(chunk)
	cells := make([]Cell, len(indices))
	for i, gi := range indices {
		cells[i] = t.Cell(gi, height)
	}
	return cells
}
