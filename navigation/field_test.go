package navigation

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/parameter"
)

func TestCostField(t *testing.T) {
	cost := BuildCostField([]bool{false, true, false})
	if cost[0] != parameter.CostDefault || cost[1] != parameter.CostImpassable || cost[2] != parameter.CostDefault {
		t.Errorf("Expected [1 255 1], got %v", cost)
	}

	weighted := BuildWeightedCostField([]bool{false, false, false, true}, []byte{0, 7, 255, 3})
	want := []byte{parameter.CostDefault, 7, parameter.CostMaxPassable, parameter.CostImpassable}
	if !bytes.Equal(weighted, want) {
		t.Errorf("Expected %v, got %v", want, weighted)
	}
}

// referenceIntegration relaxes until no value changes
func referenceIntegration(width int, cost []byte, gateways []Gateway) []int32 {
	ref := make([]int32, len(cost))
	for i := range ref {
		ref[i] = parameter.IntegrationUnreachable
	}
	for _, g := range gateways {
		if Passable(cost[g.Index]) {
			ref[g.Index] = 0
		}
	}
	for changed := true; changed; {
		changed = false
		for i := range ref {
			if !Passable(cost[i]) {
				continue
			}
			p := grid.Coord(i, width)
			for _, adj := range grid.CardinalOrder {
				n := grid.Neighbor(i, adj, p, width)
				if n == grid.NoNeighbor || ref[n] == parameter.IntegrationUnreachable {
					continue
				}
				if v := ref[n] + int32(cost[i]); v < ref[i] {
					ref[i] = v
					changed = true
				}
			}
		}
	}
	return ref
}

func randomChunk(rng *rand.Rand, cells int, density float64) ([]bool, []byte) {
	mask := make([]bool, cells)
	weights := make([]byte, cells)
	for i := range mask {
		mask[i] = rng.Float64() < density
		weights[i] = byte(1 + rng.Intn(9))
	}
	return mask, weights
}

func TestIntegrationMatchesReference(t *testing.T) {
	const size = 8
	ter := newTestTerrain(t, 2, 2, size)
	c := newTestCatalog(t, ter)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		mask, weights := randomChunk(rng, size*size, 0.3)
		side := grid.Sides[trial%2] // chunk 0 has Top and Right neighbors
		gates := c.GatewaysAt(0, side)

		cost := BuildWeightedCostField(mask, weights)
		before := append([]byte(nil), cost...)
		got := BuildIntegrationField(size, cost, gates)
		want := referenceIntegration(size, cost, gates)

		if !bytes.Equal(cost, before) {
			t.Fatal("integration mutated its cost field")
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("trial %d cell %d: expected %d, got %d\n%s", trial, i, want[i], got[i], spew.Sdump(mask))
			}
		}
		for _, g := range gates {
			if mask[g.Index] && got[g.Index] == 0 {
				t.Errorf("impassable gateway %v was seeded", g)
			}
			if !mask[g.Index] && got[g.Index] != 0 {
				t.Errorf("passable gateway %v expected 0, got %d", g, got[g.Index])
			}
		}
	}
}

func TestDirectionFieldProperties(t *testing.T) {
	const size = 8
	ter := newTestTerrain(t, 2, 2, size)
	c := newTestCatalog(t, ter)
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 20; trial++ {
		mask, _ := randomChunk(rng, size*size, 0.35)
		side := grid.Sides[trial%2]
		f := ComputeDirectionField(0, side, size, mask, nil, c.GatewaysAt(0, side))

		for i, d := range f.Directions {
			if !d.Valid() {
				t.Fatalf("cell %d: invalid direction %d", i, d)
			}
			v := f.Integration[i]
			switch {
			case v == parameter.IntegrationUnreachable:
				if d != grid.DirectionOf(side.Opposite()) {
					t.Errorf("unreached cell %d: expected %v, got %v", i, side.Opposite(), d)
				}
			case v == 0:
				if d != grid.DirectionOf(side) {
					t.Errorf("seed %d: expected %v, got %v", i, side, d)
				}
			default:
				dx, dy := d.Delta()
				p := grid.Coord(i, size)
				n := grid.LinearIndex(p.X+dx, p.Y+dy, size)
				if f.Integration[n] >= v {
					t.Errorf("cell %d (%d) points %v to %d (%d), not downhill", i, v, d, n, f.Integration[n])
				}
			}
		}
	}
}

func TestDirectionTieBreak(t *testing.T) {
	const big = 9
	// 3x3, center 4 with value 5
	field := []int32{big, 2, big, 2, 5, 2, big, 2, big}
	dirs := BuildDirectionField(3, field, grid.SideTop)
	if dirs[4] != grid.DirLeft {
		t.Errorf("equal neighbors: expected Left, got %v", dirs[4])
	}

	field = []int32{big, 2, big, 3, 5, 2, big, 2, big}
	dirs = BuildDirectionField(3, field, grid.SideTop)
	if dirs[4] != grid.DirRight {
		t.Errorf("Expected first strictly better neighbor Right, got %v", dirs[4])
	}
}

func TestAllObstacleField(t *testing.T) {
	const size = 4
	c := newTestCatalog(t, newTestTerrain(t, 2, 1, size))
	mask := make([]bool, size*size)
	for i := range mask {
		mask[i] = true
	}
	f := ComputeDirectionField(0, grid.SideRight, size, mask, nil, c.GatewaysAt(0, grid.SideRight))
	for i := range f.Directions {
		if f.Reachable(i) {
			t.Errorf("cell %d reachable in sealed chunk", i)
		}
		if f.Directions[i] != grid.DirLeft {
			t.Errorf("cell %d: expected Left, got %v", i, f.Directions[i])
		}
	}
}

func TestOpenChunkFlowsToSide(t *testing.T) {
	const size = 4
	c := newTestCatalog(t, newTestTerrain(t, 2, 1, size))
	f := ComputeDirectionField(0, grid.SideRight, size, make([]bool, size*size), nil, c.GatewaysAt(0, grid.SideRight))
	for i, d := range f.Directions {
		if d != grid.DirRight {
			t.Errorf("cell %d: expected Right, got %v", i, d)
		}
		if want := int32(size - 1 - i%size); f.Integration[i] != want {
			t.Errorf("cell %d: expected integration %d, got %d", i, want, f.Integration[i])
		}
	}
}

func TestDirectionFieldDeterministic(t *testing.T) {
	const size = 16
	c := newTestCatalog(t, newTestTerrain(t, 2, 2, size))
	mask, weights := randomChunk(rand.New(rand.NewSource(3)), size*size, 0.25)
	gates := c.GatewaysAt(0, grid.SideTop)

	base := ComputeDirectionField(0, grid.SideTop, size, mask, weights, gates)

	var wg sync.WaitGroup
	results := make([]*DirectionField, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = ComputeDirectionField(0, grid.SideTop, size, mask, weights, gates)
		}()
	}
	wg.Wait()

	for i, r := range results {
		for j := range base.Directions {
			if r.Directions[j] != base.Directions[j] || r.Integration[j] != base.Integration[j] {
				t.Fatalf("run %d differs at cell %d", i, j)
			}
		}
	}
}

// TestIntegrationBoundFitsInt32 checks that a path through every cell of the largest chunk at the highest
// passable cost stays below the unreachable sentinel
func TestIntegrationBoundFitsInt32(t *testing.T) {
	worst := int64(grid.MaxChunkSize) * int64(grid.MaxChunkSize) * int64(parameter.CostMaxPassable)
	if worst >= int64(parameter.IntegrationUnreachable) {
		t.Errorf("Expected worst integration %d below %d", worst, parameter.IntegrationUnreachable)
	}
	if _, err := grid.NewTerrain(1, 1, grid.MaxChunkSize+1, 1); err == nil {
		t.Error("Expected oversized chunk to be rejected")
	}
}
