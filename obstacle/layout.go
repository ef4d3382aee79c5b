// Package obstacle generates per-chunk obstacle masks for a terrain
package obstacle

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lixenwraith/chunkflow/grid"
)

// Mode selects the obstacle generator
type Mode string

const (
	ModeOpen    Mode = "open"
	ModeScatter Mode = "scatter"
	ModeMaze    Mode = "maze"
)

// ParseMode accepts a mode name case-insensitively
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOpen, ModeScatter, ModeMaze:
		return m, nil
	case "":
		return ModeOpen, nil
	}
	return "", fmt.Errorf("obstacle: unknown mode %q", s)
}

type Config struct {
	Mode Mode

	// Density is the blocked fraction of cells in scatter mode
	Density float64

	// Braiding: 0.0 (tree) to 1.0 (no dead ends) in maze mode
	Braiding float64

	// Sealed chunks are fully blocked regardless of mode
	Sealed []int

	Seed int64 // 0 = time based
}

// Setter receives chunk masks; satisfied by *navigation.Navigator
type Setter interface {
	SetObstacles(chunk int, mask []bool) (uint64, error)
}

// Layout is a generated obstacle mask per chunk, in chunk-local row-major order
type Layout struct {
	Terrain grid.Terrain
	Masks   [][]bool
}

// Generate builds a layout for the terrain
func Generate(t grid.Terrain, cfg Config) (Layout, error) {
	if err := t.Validate(); err != nil {
		return Layout{}, err
	}
	if cfg.Density < 0 || cfg.Density > 1 {
		return Layout{}, fmt.Errorf("obstacle: density %.2f outside [0,1]", cfg.Density)
	}
	if cfg.Braiding < 0 || cfg.Braiding > 1 {
		return Layout{}, fmt.Errorf("obstacle: braiding %.2f outside [0,1]", cfg.Braiding)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	p := newPlane(t.CellsX(), t.CellsY(), false)
	switch cfg.Mode {
	case ModeOpen, "":
	case ModeScatter:
		for i := range p.cells {
			p.cells[i] = rng.Float64() < cfg.Density
		}
	case ModeMaze:
		carveMaze(p, cfg.Braiding, rng)
	default:
		return Layout{}, fmt.Errorf("obstacle: unknown mode %q", cfg.Mode)
	}

	l := Layout{Terrain: t, Masks: make([][]bool, t.NumChunks())}
	for chunk := range l.Masks {
		mask := make([]bool, t.CellsPerChunk())
		for local, gi := range t.CellsAtChunk(chunk) {
			mask[local] = p.cells[gi]
		}
		l.Masks[chunk] = mask
	}

	for _, chunk := range cfg.Sealed {
		if !t.ValidChunk(chunk) {
			return Layout{}, fmt.Errorf("%w: sealed chunk %d", grid.ErrOutOfBounds, chunk)
		}
		Seal(l.Masks[chunk])
	}
	return l, nil
}

// Seal marks every cell of mask as blocked
func Seal(mask []bool) {
	for i := range mask {
		mask[i] = Wall
	}
}

// Apply pushes every chunk mask to dst
func (l Layout) Apply(dst Setter) error {
	for chunk, mask := range l.Masks {
		if _, err := dst.SetObstacles(chunk, mask); err != nil {
			return fmt.Errorf("obstacle: chunk %d: %w", chunk, err)
		}
	}
	return nil
}

// Blocked reports whether a global cell is an obstacle
func (l Layout) Blocked(gridIndex int) bool {
	chunk := l.Terrain.ChunkIndexFromGridIndex(gridIndex)
	return l.Masks[chunk][l.Terrain.LocalIndexFromGridIndex(gridIndex)]
}

// BlockedCount returns the number of obstacle cells
func (l Layout) BlockedCount() int {
	n := 0
	for _, mask := range l.Masks {
		for _, b := range mask {
			if b {
				n++
			}
		}
	}
	return n
}
