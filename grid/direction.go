package grid

import (
	"fmt"

	"github.com/lixenwraith/chunkflow/vmath"
)

// Direction is a compact per-cell steering code
// The zero value is reserved for "unset"; computed fields never contain it
type Direction uint8

const (
	DirNone   Direction = 0
	DirTop    Direction = 1
	DirRight  Direction = 2
	DirBottom Direction = 3
	DirLeft   Direction = 4
)

// Cell deltas matching DirTop..DirLeft, index = code-1
var dirDeltas = [4][2]int{
	{0, 1}, {1, 0}, {0, -1}, {-1, 0},
}

var dirGlyphs = [4]rune{'↑', '→', '↓', '←'}

// DirectionOf returns the direction pointing through side s
func DirectionOf(s Side) Direction {
	return Direction(s) + 1
}

// DirectionFromDelta converts a unit cardinal cell delta into a direction
// Panics on anything else: callers only pass deltas between adjacent cells
func DirectionFromDelta(dx, dy int) Direction {
	for i, d := range dirDeltas {
		if d[0] == dx && d[1] == dy {
			return Direction(i + 1)
		}
	}
	panic(fmt.Sprintf("grid: delta (%d,%d) is not a cardinal step", dx, dy))
}

// Valid reports whether d is one of the four cardinal codes
func (d Direction) Valid() bool {
	return d >= DirTop && d <= DirLeft
}

// Side returns the chunk side this direction points through
func (d Direction) Side() Side {
	return Side(d - 1)
}

// Delta returns the cell step, (0,0) for DirNone
func (d Direction) Delta() (dx, dy int) {
	if !d.Valid() {
		return 0, 0
	}
	v := dirDeltas[d-1]
	return v[0], v[1]
}

// Vector returns the ground-plane unit vector; grid y maps to world Z
func (d Direction) Vector() vmath.Vec3F {
	dx, dy := d.Delta()
	return vmath.Vec3F{X: float64(dx), Z: float64(dy)}
}

// Glyph returns an arrow rune for display
func (d Direction) Glyph() rune {
	if !d.Valid() {
		return '·'
	}
	return dirGlyphs[d-1]
}

func (d Direction) String() string {
	if !d.Valid() {
		return "none"
	}
	return d.Side().String()
}
