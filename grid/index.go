// Package grid maps between linear cell indices, 2D coordinates, chunks and world positions.
//
// Every function is row-major (index = y*width + x) and pure. Inputs outside the grid are
// contract violations and panic with an error wrapping ErrOutOfBounds; nothing is clamped.
package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is wrapped by every bounds violation
var ErrOutOfBounds = errors.New("grid: out of bounds")

// Point is an integer 2D coordinate
type Point struct {
	X, Y int
}

func outOfBounds(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrOutOfBounds}, args...)...)
}

// LinearIndex returns y*width + x
func LinearIndex(x, y, width int) int {
	if width <= 0 || x < 0 || y < 0 || x >= width {
		panic(outOfBounds("coord (%d,%d) with width %d", x, y, width))
	}
	return y*width + x
}

// Coord is the inverse of LinearIndex
func Coord(index, width int) Point {
	if width <= 0 || index < 0 {
		panic(outOfBounds("index %d with width %d", index, width))
	}
	y := index / width
	return Point{X: index - y*width, Y: y}
}
