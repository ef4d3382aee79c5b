package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/lixenwraith/chunkflow/vmath"
)

// MaxChunkSize bounds chunk width so the costliest path through a chunk fits an int32 integration value
const MaxChunkSize = 2048

// Terrain describes the chunk grid: NumChunksX×NumChunksY chunks of ChunkSize×ChunkSize cells
// Origin is the world position of the min corner of global cell (0,0)
type Terrain struct {
	NumChunksX, NumChunksY int
	ChunkSize              int
	CellSize               float64
	Origin                 vmath.Vec3F
}

// NewTerrain creates a terrain centered on the world origin
func NewTerrain(numChunksX, numChunksY, chunkSize int, cellSize float64) (Terrain, error) {
	t := Terrain{
		NumChunksX: numChunksX,
		NumChunksY: numChunksY,
		ChunkSize:  chunkSize,
		CellSize:   cellSize,
	}
	if err := t.Validate(); err != nil {
		return Terrain{}, err
	}
	t.Origin = vmath.Vec3F{
		X: -float64(t.CellsX()) * cellSize / 2,
		Z: -float64(t.CellsY()) * cellSize / 2,
	}
	return t, nil
}

// Validate rejects degenerate dimensions
func (t Terrain) Validate() error {
	switch {
	case t.NumChunksX <= 0 || t.NumChunksY <= 0:
		return fmt.Errorf("terrain: chunk grid %dx%d must be positive", t.NumChunksX, t.NumChunksY)
	case t.ChunkSize <= 0:
		return fmt.Errorf("terrain: chunk size %d must be positive", t.ChunkSize)
	case t.ChunkSize > MaxChunkSize:
		return fmt.Errorf("terrain: chunk size %d exceeds %d", t.ChunkSize, MaxChunkSize)
	case t.CellSize <= 0 || math.IsNaN(t.CellSize) || math.IsInf(t.CellSize, 0):
		return errors.New("terrain: cell size must be a positive finite number")
	}
	return nil
}

func (t Terrain) NumChunks() int     { return t.NumChunksX * t.NumChunksY }
func (t Terrain) CellsPerChunk() int { return t.ChunkSize * t.ChunkSize }
func (t Terrain) CellsX() int        { return t.NumChunksX * t.ChunkSize }
func (t Terrain) CellsY() int        { return t.NumChunksY * t.ChunkSize }
func (t Terrain) NumCells() int      { return t.CellsX() * t.CellsY() }

// ValidChunk reports whether chunk is an ordinal of this terrain
func (t Terrain) ValidChunk(chunk int) bool {
	return chunk >= 0 && chunk < t.NumChunks()
}

func (t Terrain) mustChunk(chunk int) {
	if !t.ValidChunk(chunk) {
		panic(outOfBounds("chunk %d of %d", chunk, t.NumChunks()))
	}
}

// ChunkCoord returns the chunk's (x,y) in the chunk grid
func (t Terrain) ChunkCoord(chunk int) Point {
	t.mustChunk(chunk)
	return Coord(chunk, t.NumChunksX)
}

// ChunkIndex returns the ordinal of chunk (cx,cy)
func (t Terrain) ChunkIndex(cx, cy int) int {
	if cy >= t.NumChunksY {
		panic(outOfBounds("chunk coord (%d,%d) in %dx%d", cx, cy, t.NumChunksX, t.NumChunksY))
	}
	return LinearIndex(cx, cy, t.NumChunksX)
}

// ChunkNeighbor returns the chunk across side s, NoNeighbor on the perimeter
func (t Terrain) ChunkNeighbor(chunk int, s Side) int {
	return NeighborRect(chunk, s.Adjacent(), t.ChunkCoord(chunk), t.NumChunksX, t.NumChunksY)
}

// SideToward returns the side of from that faces the cardinal neighbor to
func (t Terrain) SideToward(from, to int) (Side, bool) {
	for _, s := range Sides {
		if t.ChunkNeighbor(from, s) == to {
			return s, true
		}
	}
	return 0, false
}

// ChunkOrigin returns the world position of the chunk's min corner
func (t Terrain) ChunkOrigin(chunk int) vmath.Vec3F {
	c := t.ChunkCoord(chunk)
	span := float64(t.ChunkSize) * t.CellSize
	return vmath.Vec3F{
		X: t.Origin.X + float64(c.X)*span,
		Y: t.Origin.Y,
		Z: t.Origin.Z + float64(c.Y)*span,
	}
}

// ChunkCenter returns the world position of the chunk's center
func (t Terrain) ChunkCenter(chunk int) vmath.Vec3F {
	half := float64(t.ChunkSize) * t.CellSize / 2
	return vmath.V3FAdd(t.ChunkOrigin(chunk), vmath.Vec3F{X: half, Z: half})
}

func (t Terrain) worldToCell(pos vmath.Vec3F) (int, int) {
	x := int(math.Floor((pos.X - t.Origin.X) / t.CellSize))
	y := int(math.Floor((pos.Z - t.Origin.Z) / t.CellSize))
	return x, y
}

// ContainsWorldPosition reports whether pos falls on a cell of this terrain
func (t Terrain) ContainsWorldPosition(pos vmath.Vec3F) bool {
	if math.IsNaN(pos.X) || math.IsNaN(pos.Z) {
		return false
	}
	x, y := t.worldToCell(pos)
	return x >= 0 && y >= 0 && x < t.CellsX() && y < t.CellsY()
}

// GridCoordFromWorldPosition returns the global cell coordinate under pos
func (t Terrain) GridCoordFromWorldPosition(pos vmath.Vec3F) Point {
	if !t.ContainsWorldPosition(pos) {
		panic(outOfBounds("world position (%.3f,%.3f)", pos.X, pos.Z))
	}
	x, y := t.worldToCell(pos)
	return Point{X: x, Y: y}
}

// ChunkCoordFromWorldPosition returns the chunk-grid coordinate under pos
func (t Terrain) ChunkCoordFromWorldPosition(pos vmath.Vec3F) Point {
	p := t.GridCoordFromWorldPosition(pos)
	return Point{X: p.X / t.ChunkSize, Y: p.Y / t.ChunkSize}
}

// ChunkIndexFromWorldPosition returns the chunk ordinal under pos
func (t Terrain) ChunkIndexFromWorldPosition(pos vmath.Vec3F) int {
	c := t.ChunkCoordFromWorldPosition(pos)
	return c.Y*t.NumChunksX + c.X
}

// CellIndexFromWorldPosition returns the global cell index under pos
func (t Terrain) CellIndexFromWorldPosition(pos vmath.Vec3F) int {
	p := t.GridCoordFromWorldPosition(pos)
	return p.Y*t.CellsX() + p.X
}

// LocalIndexFromWorldPosition returns the chunk-local cell index under pos
func (t Terrain) LocalIndexFromWorldPosition(pos vmath.Vec3F) int {
	return t.LocalIndexFromGridIndex(t.CellIndexFromWorldPosition(pos))
}

func (t Terrain) mustGridIndex(gridIndex int) Point {
	if gridIndex < 0 || gridIndex >= t.NumCells() {
		panic(outOfBounds("cell %d of %d", gridIndex, t.NumCells()))
	}
	return Coord(gridIndex, t.CellsX())
}

// ChunkIndexFromGridIndex returns the chunk owning a global cell
func (t Terrain) ChunkIndexFromGridIndex(gridIndex int) int {
	p := t.mustGridIndex(gridIndex)
	return (p.Y/t.ChunkSize)*t.NumChunksX + p.X/t.ChunkSize
}

// LocalIndexFromGridIndex returns a global cell's index inside its chunk
func (t Terrain) LocalIndexFromGridIndex(gridIndex int) int {
	p := t.mustGridIndex(gridIndex)
	return (p.Y%t.ChunkSize)*t.ChunkSize + p.X%t.ChunkSize
}

// GridIndex is the inverse of (ChunkIndexFromGridIndex, LocalIndexFromGridIndex)
func (t Terrain) GridIndex(chunk, local int) int {
	c := t.ChunkCoord(chunk)
	if local < 0 || local >= t.CellsPerChunk() {
		panic(outOfBounds("local cell %d of %d", local, t.CellsPerChunk()))
	}
	l := Coord(local, t.ChunkSize)
	x := c.X*t.ChunkSize + l.X
	y := c.Y*t.ChunkSize + l.Y
	return y*t.CellsX() + x
}

// CellsAtChunk returns the global indices of a chunk's cells in local row-major order
func (t Terrain) CellsAtChunk(chunk int) []int {
	c := t.ChunkCoord(chunk)
	cells := make([]int, t.CellsPerChunk())
	startX := c.X * t.ChunkSize
	startY := c.Y * t.ChunkSize
	rowStride := t.CellsX()
	for ly := 0; ly < t.ChunkSize; ly++ {
		row := (startY+ly)*rowStride + startX
		for lx := 0; lx < t.ChunkSize; lx++ {
			cells[ly*t.ChunkSize+lx] = row + lx
		}
	}
	return cells
}
