package obstacle

import (
	"math/rand"
)

// Cell types
const (
	Wall    = true
	Passage = false
)

// plane is a flat row-major occupancy grid over the whole terrain
type plane struct {
	w, h  int
	cells []bool
}

func newPlane(w, h int, fill bool) *plane {
	p := &plane{w: w, h: h, cells: make([]bool, w*h)}
	if fill {
		for i := range p.cells {
			p.cells[i] = Wall
		}
	}
	return p
}

func (p *plane) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < p.w && y < p.h
}

// at treats out-of-bounds as Wall
func (p *plane) at(x, y int) bool {
	if !p.in(x, y) {
		return Wall
	}
	return p.cells[y*p.w+x]
}

func (p *plane) set(x, y int, v bool) {
	p.cells[y*p.w+x] = v
}

type step struct {
	dx, dy int
}

var (
	orthoSteps = [4]step{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	jumpSteps  = [4]step{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}
)

// carveMaze fills the plane with a braided maze whose outer ring is open
// Rooms sit on odd coordinates; an even trailing row or column stays open
func carveMaze(p *plane, braiding float64, rng *rand.Rand) {
	rows := oddFloor(p.h)
	cols := oddFloor(p.w)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			p.set(x, y, x < cols && y < rows)
		}
	}
	if rows < 3 || cols < 3 {
		for i := range p.cells {
			p.cells[i] = Passage
		}
		return
	}

	backtrack(p, cols, rows, rng)
	openRing(p, cols, rows)
	if braiding > 0 {
		braid(p, cols, rows, braiding, rng)
	}
}

// backtrack carves a uniform spanning tree with the recursive backtracker
func backtrack(p *plane, cols, rows int, rng *rand.Rand) {
	type room struct{ x, y int }
	start := room{1, 1}
	stack := []room{start}
	p.set(start.x, start.y, Passage)

	candidates := make([]step, 0, 4)
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		candidates = candidates[:0]

		for _, d := range jumpSteps {
			nx, ny := curr.x+d.dx, curr.y+d.dy
			// Leave 1 cell border for walls
			if nx > 0 && nx < cols-1 && ny > 0 && ny < rows-1 && p.at(nx, ny) == Wall {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		d := candidates[rng.Intn(len(candidates))]
		p.set(curr.x+d.dx/2, curr.y+d.dy/2, Passage)
		next := room{curr.x + d.dx, curr.y + d.dy}
		p.set(next.x, next.y, Passage)
		stack = append(stack, next)
	}
}

// openRing clears the outer ring so chunk boundaries along the terrain edge stay connected
func openRing(p *plane, cols, rows int) {
	for x := 0; x < cols; x++ {
		p.set(x, 0, Passage)
		p.set(x, rows-1, Passage)
	}
	for y := 0; y < rows; y++ {
		p.set(0, y, Passage)
		p.set(cols-1, y, Passage)
	}
}

// braid opens a wall next to dead ends with the given probability, adding cycles
func braid(p *plane, cols, rows int, probability float64, rng *rand.Rand) {
	candidates := make([]step, 0, 4)
	for y := 1; y < rows-1; y += 2 {
		for x := 1; x < cols-1; x += 2 {
			if p.at(x, y) == Wall {
				continue
			}

			exits := 0
			for _, d := range orthoSteps {
				if p.at(x+d.dx, y+d.dy) == Passage {
					exits++
				}
			}
			if exits != 1 || rng.Float64() >= probability {
				continue
			}

			candidates = candidates[:0]
			for _, d := range jumpSteps {
				nx, ny := x+d.dx, y+d.dy
				wx, wy := x+d.dx/2, y+d.dy/2
				if p.in(nx, ny) && p.at(nx, ny) == Passage && p.at(wx, wy) == Wall && canOpen(p, wx, wy) {
					candidates = append(candidates, step{wx, wy})
				}
			}
			if len(candidates) > 0 {
				c := candidates[rng.Intn(len(candidates))]
				p.set(c.dx, c.dy, Passage)
			}
		}
	}
}

// canOpen reports whether turning (x,y) into a passage avoids 2x2 open plazas and isolated pillars
func canOpen(p *plane, x, y int) bool {
	open := func(tx, ty int) bool {
		return p.in(tx, ty) && p.at(tx, ty) == Passage
	}

	// Plazas: any 2x2 quadrant around (x,y) already three-quarters open
	if open(x-1, y-1) && open(x, y-1) && open(x-1, y) {
		return false
	}
	if open(x, y-1) && open(x+1, y-1) && open(x+1, y) {
		return false
	}
	if open(x-1, y) && open(x-1, y+1) && open(x, y+1) {
		return false
	}
	if open(x+1, y) && open(x, y+1) && open(x+1, y+1) {
		return false
	}

	// Pillars: a neighboring wall left with no other wall neighbor
	for _, d := range orthoSteps {
		nx, ny := x+d.dx, y+d.dy
		if !p.in(nx, ny) || p.at(nx, ny) != Wall {
			continue
		}
		links := 0
		for _, d2 := range orthoSteps {
			ax, ay := nx+d2.dx, ny+d2.dy
			if ax == x && ay == y {
				continue
			}
			if p.in(ax, ay) && p.at(ax, ay) == Wall {
				links++
			}
		}
		if links == 0 {
			return false
		}
	}
	return true
}

func oddFloor(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}
