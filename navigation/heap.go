package navigation

// --- Min-heap for chunk A* ---

type heapEntry struct {
	chunk int
	g     int // Cost from start
	f     int // g + heuristic
	seq   int // Insertion order, breaks f ties first-in-first-out
}

type minHeap []heapEntry

func (h minHeap) less(a, b int) bool {
	if h[a].f != h[b].f {
		return h[a].f < h[b].f
	}
	return h[a].seq < h[b].seq
}

func (h *minHeap) push(e heapEntry) {
	*h = append(*h, e)
	// Sift up
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *minHeap) pop() heapEntry {
	old := *h
	n := len(old)
	e := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]

	// Sift down
	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, i) {
			break
		}
		(*h)[i], (*h)[smallest] = (*h)[smallest], (*h)[i]
		i = smallest
	}
	return e
}
