package obstacle

// CellPath returns a shortest 4-connected path of global cell indices between two passable cells
// Nil when either end is blocked or no path exists
func (l Layout) CellPath(from, to int) []int {
	t := l.Terrain
	if from < 0 || to < 0 || from >= t.NumCells() || to >= t.NumCells() {
		return nil
	}
	if l.Blocked(from) || l.Blocked(to) {
		return nil
	}

	w, h := t.CellsX(), t.CellsY()
	cameFrom := make([]int, t.NumCells())
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	cameFrom[from] = from

	queue := []int{from}
	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		if curr == to {
			path := []int{}
			for curr != from {
				path = append(path, curr)
				curr = cameFrom[curr]
			}
			path = append(path, from)
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		x, y := curr%w, curr/w
		for _, d := range orthoSteps {
			nx, ny := x+d.dx, y+d.dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			next := ny*w + nx
			if cameFrom[next] == -1 && !l.Blocked(next) {
				cameFrom[next] = curr
				queue = append(queue, next)
			}
		}
	}
	return nil
}
