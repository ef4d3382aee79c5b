package grid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lixenwraith/chunkflow/vmath"
)

func mustPanicOutOfBounds(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("%s: expected panic, got none", name)
			return
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("%s: expected ErrOutOfBounds panic, got %v", name, r)
		}
	}()
	fn()
}

// TestLinearIndexBijection verifies Coord(LinearIndex(x,y,w),w) == (x,y) for several widths
func TestLinearIndexBijection(t *testing.T) {
	for _, w := range []int{1, 2, 3, 7, 16} {
		for y := 0; y < w+2; y++ {
			for x := 0; x < w; x++ {
				idx := LinearIndex(x, y, w)
				if idx != y*w+x {
					t.Fatalf("Expected row-major index %d, got %d", y*w+x, idx)
				}
				if p := Coord(idx, w); p.X != x || p.Y != y {
					t.Fatalf("w=%d: expected (%d,%d), got (%d,%d)", w, x, y, p.X, p.Y)
				}
			}
		}
	}
}

func TestIndexContractViolations(t *testing.T) {
	mustPanicOutOfBounds(t, "x >= width", func() { LinearIndex(4, 0, 4) })
	mustPanicOutOfBounds(t, "negative y", func() { LinearIndex(0, -1, 4) })
	mustPanicOutOfBounds(t, "zero width", func() { Coord(3, 0) })
	mustPanicOutOfBounds(t, "negative index", func() { Coord(-1, 4) })
}

func TestNeighborBoundaries(t *testing.T) {
	const w = 4
	// Corner (0,0): only right, top, top-right exist
	p := Point{0, 0}
	expect := map[Adjacent]int{
		AdjLeft: NoNeighbor, AdjRight: 1, AdjTop: 4, AdjBottom: NoNeighbor,
		AdjTopLeft: NoNeighbor, AdjTopRight: 5, AdjBottomLeft: NoNeighbor, AdjBottomRight: NoNeighbor,
	}
	for adj, want := range expect {
		if got := Neighbor(0, adj, p, w); got != want {
			t.Errorf("adj %b at (0,0): expected %d, got %d", adj, want, got)
		}
	}

	// Opposite corner (3,3) = 15
	p = Point{3, 3}
	expect = map[Adjacent]int{
		AdjLeft: 14, AdjRight: NoNeighbor, AdjTop: NoNeighbor, AdjBottom: 11,
		AdjTopLeft: NoNeighbor, AdjTopRight: NoNeighbor, AdjBottomLeft: 10, AdjBottomRight: NoNeighbor,
	}
	for adj, want := range expect {
		if got := Neighbor(15, adj, p, w); got != want {
			t.Errorf("adj %b at (3,3): expected %d, got %d", adj, want, got)
		}
	}

	// Interior cell has all 8
	idx := LinearIndex(1, 2, w)
	p = Coord(idx, w)
	for _, adj := range []Adjacent{AdjLeft, AdjRight, AdjTop, AdjBottom, AdjTopLeft, AdjTopRight, AdjBottomLeft, AdjBottomRight} {
		if Neighbor(idx, adj, p, w) == NoNeighbor {
			t.Errorf("interior cell missing neighbor %b", adj)
		}
	}

	if got := Neighbor(idx, 0, p, w); got != NoNeighbor {
		t.Errorf("Expected NoNeighbor for empty flag, got %d", got)
	}
}

func TestNeighborRectNonSquare(t *testing.T) {
	// 3 wide, 2 tall: cell (1,1) is on the top row
	idx := LinearIndex(1, 1, 3)
	if got := NeighborRect(idx, AdjTop, Coord(idx, 3), 3, 2); got != NoNeighbor {
		t.Errorf("Expected no top neighbor on last row, got %d", got)
	}
	if got := NeighborRect(idx, AdjBottom, Coord(idx, 3), 3, 2); got != 1 {
		t.Errorf("Expected bottom neighbor 1, got %d", got)
	}
}

func TestSideOppositeAndDirections(t *testing.T) {
	for _, s := range Sides {
		if s.Opposite().Opposite() != s {
			t.Errorf("Opposite is not an involution for %v", s)
		}
		if s.Opposite() == s {
			t.Errorf("Opposite(%v) equals itself", s)
		}
		d := DirectionOf(s)
		if !d.Valid() || d.Side() != s {
			t.Errorf("DirectionOf(%v) = %v does not round-trip", s, d)
		}
		dx, dy := d.Delta()
		if DirectionFromDelta(dx, dy) != d {
			t.Errorf("DirectionFromDelta(%d,%d) != %v", dx, dy, d)
		}
		parsed, err := ParseSide(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseSide(%q) = %v, %v", s.String(), parsed, err)
		}
	}
	if DirNone.Valid() {
		t.Error("DirNone must not be valid")
	}
	if _, err := ParseSide("diagonal"); err == nil {
		t.Error("Expected error for unknown side")
	}
	if v := DirectionOf(SideTop).Vector(); v.Z != 1 || v.X != 0 {
		t.Errorf("Expected top to map to +Z, got %+v", v)
	}
}

func newTestTerrain(t *testing.T, nx, ny, size int, cell float64) Terrain {
	t.Helper()
	ter, err := NewTerrain(nx, ny, size, cell)
	if err != nil {
		t.Fatalf("NewTerrain: %v", err)
	}
	return ter
}

func TestTerrainValidate(t *testing.T) {
	bad := []Terrain{
		{NumChunksX: 0, NumChunksY: 1, ChunkSize: 4, CellSize: 1},
		{NumChunksX: 1, NumChunksY: 1, ChunkSize: 0, CellSize: 1},
		{NumChunksX: 1, NumChunksY: 1, ChunkSize: 4, CellSize: 0},
		{NumChunksX: 1, NumChunksY: 1, ChunkSize: MaxChunkSize + 1, CellSize: 1},
	}
	for i, ter := range bad {
		if err := ter.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

// TestChunkLocalBijection verifies (chunk, local) <-> global index is a bijection
func TestChunkLocalBijection(t *testing.T) {
	ter := newTestTerrain(t, 3, 2, 4, 1)
	seen := make(map[int]bool, ter.NumCells())
	for chunk := 0; chunk < ter.NumChunks(); chunk++ {
		for local := 0; local < ter.CellsPerChunk(); local++ {
			gi := ter.GridIndex(chunk, local)
			if seen[gi] {
				t.Fatalf("global index %d produced twice", gi)
			}
			seen[gi] = true
			if c := ter.ChunkIndexFromGridIndex(gi); c != chunk {
				t.Fatalf("Expected chunk %d, got %d", chunk, c)
			}
			if l := ter.LocalIndexFromGridIndex(gi); l != local {
				t.Fatalf("Expected local %d, got %d", local, l)
			}
		}
		cells := ter.CellsAtChunk(chunk)
		for local, gi := range cells {
			if gi != ter.GridIndex(chunk, local) {
				t.Fatalf("CellsAtChunk mismatch at chunk %d local %d", chunk, local)
			}
		}
	}
	if len(seen) != ter.NumCells() {
		t.Errorf("Expected %d distinct cells, got %d", ter.NumCells(), len(seen))
	}
}

func TestWorldPositionMapping(t *testing.T) {
	// 2x2 chunks of 4 cells, cell size 2: world spans [-8,8) on X and Z
	ter := newTestTerrain(t, 2, 2, 4, 2)
	if ter.Origin.X != -8 || ter.Origin.Z != -8 {
		t.Fatalf("Expected centered origin (-8,-8), got (%v,%v)", ter.Origin.X, ter.Origin.Z)
	}

	cases := []struct {
		pos          vmath.Vec3F
		chunk, local int
	}{
		{vmath.Vec3F{X: -8, Z: -8}, 0, 0},
		{vmath.Vec3F{X: -0.5, Z: -0.5}, 0, 15},
		{vmath.Vec3F{X: 0, Z: -8}, 1, 0},
		{vmath.Vec3F{X: -8, Y: 42, Z: 0}, 2, 0},
		{vmath.Vec3F{X: 7.9, Z: 7.9}, 3, 15},
	}
	for _, tc := range cases {
		if got := ter.ChunkIndexFromWorldPosition(tc.pos); got != tc.chunk {
			t.Errorf("pos %+v: expected chunk %d, got %d", tc.pos, tc.chunk, got)
		}
		if got := ter.LocalIndexFromWorldPosition(tc.pos); got != tc.local {
			t.Errorf("pos %+v: expected local %d, got %d", tc.pos, tc.local, got)
		}
	}

	if ter.ContainsWorldPosition(vmath.Vec3F{X: 8, Z: 0}) {
		t.Error("max edge must be outside the terrain")
	}
	mustPanicOutOfBounds(t, "outside world", func() { ter.CellIndexFromWorldPosition(vmath.Vec3F{X: -9}) })

	// Every cell center maps back to its own cell
	for gi := 0; gi < ter.NumCells(); gi++ {
		c := ter.Cell(gi, nil)
		if got := ter.CellIndexFromWorldPosition(c.Center); got != gi {
			t.Fatalf("center of cell %d maps to %d", gi, got)
		}
	}
}

func TestChunkNeighbors(t *testing.T) {
	ter := newTestTerrain(t, 3, 3, 2, 1)
	center := ter.ChunkIndex(1, 1)
	want := map[Side]int{SideTop: 7, SideRight: 5, SideBottom: 1, SideLeft: 3}
	for s, n := range want {
		if got := ter.ChunkNeighbor(center, s); got != n {
			t.Errorf("side %v: expected %d, got %d", s, n, got)
		}
		side, ok := ter.SideToward(center, n)
		if !ok || side != s {
			t.Errorf("SideToward(%d,%d): expected %v, got %v", center, n, s, side)
		}
	}
	if got := ter.ChunkNeighbor(0, SideLeft); got != NoNeighbor {
		t.Errorf("Expected perimeter NoNeighbor, got %d", got)
	}
	if _, ok := ter.SideToward(0, 8); ok {
		t.Error("Expected no side between non-adjacent chunks")
	}
	mustPanicOutOfBounds(t, "chunk coord", func() { ter.ChunkIndex(0, 3) })
}

func TestCellGeometry(t *testing.T) {
	ter := newTestTerrain(t, 1, 1, 2, 1)
	slope := func(x, z float64) float64 { return x + z }
	c := ter.Cell(3, slope)
	if c.Coord != (Point{1, 1}) {
		t.Fatalf("Expected coord (1,1), got %v", c.Coord)
	}
	// Origin is (-1,-1); cell (1,1) spans [0,1]x[0,1]
	want := [4]vmath.Vec3F{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 1},
		{X: 1, Y: 2, Z: 1},
	}
	for i := range want {
		if c.Corners[i] != want[i] {
			t.Errorf("corner %d: expected %+v, got %+v", i, want[i], c.Corners[i])
		}
	}
	if c.Center.X != 0.5 || c.Center.Z != 0.5 || c.Center.Y != 1 {
		t.Errorf("Expected center (0.5,1,0.5), got %s", fmt.Sprintf("%+v", c.Center))
	}
	if cells := ter.ChunkCells(0, nil); len(cells) != 4 || cells[2].Index != 2 {
		t.Errorf("unexpected chunk cells %+v", cells)
	}
}
