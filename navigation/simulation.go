package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/vmath"
)

// AgentSnapshot is the observable state of one agent
type AgentSnapshot struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	State string  `json:"state"`
	Chunk int     `json:"chunk"`
	Route []int   `json:"route,omitempty"`
}

// Snapshot is the state of every agent after a tick
type Snapshot struct {
	Tick   uint64          `json:"tick"`
	Agents []AgentSnapshot `json:"agents"`
}

// ArrivalFunc is invoked after a tick with the agents that became idle during it
type ArrivalFunc func(ids []int)

// Simulation moves a population of agents over a navigator
type Simulation struct {
	nav   *Navigator
	speed float64
	log   logrus.FieldLogger

	mu       sync.Mutex
	agents   []*Agent
	nextID   int
	tick     uint64
	onArrive ArrivalFunc
}

// NewSimulation creates an empty simulation moving agents at speed world units per second
func NewSimulation(nav *Navigator, speed float64, log logrus.FieldLogger) *Simulation {
	if log == nil {
		log = nav.log
	}
	return &Simulation{
		nav:   nav,
		speed: speed,
		log:   log.WithField("component", "simulation"),
	}
}

// OnArrive registers a callback for agents reaching their destination
func (s *Simulation) OnArrive(fn ArrivalFunc) {
	s.mu.Lock()
	s.onArrive = fn
	s.mu.Unlock()
}

// Spawn places up to count idle agents on the passable cell centers of chunk in local order
func (s *Simulation) Spawn(chunk, count int) ([]int, error) {
	mask, err := s.nav.Obstacles(chunk)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("simulation: spawn count %d must be positive", count)
	}

	t := s.nav.Terrain()
	cells := t.CellsAtChunk(chunk)

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, count)
	for local, gi := range cells {
		if len(ids) == count {
			break
		}
		if mask[local] {
			continue
		}
		a := &Agent{ID: s.nextID, Position: t.Cell(gi, nil).Center, DestChunk: -1}
		s.nextID++
		s.agents = append(s.agents, a)
		ids = append(ids, a.ID)
	}

	s.log.WithFields(logrus.Fields{"chunk": chunk, "spawned": len(ids)}).Info("Agents spawned")
	return ids, nil
}

// Command sends every agent toward dest
func (s *Simulation) Command(ctx context.Context, dest vmath.Vec3F) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.AssignDestination(ctx, s.agents, dest)
}

// Tick advances every following agent by dt and returns the resulting snapshot
// A step that would leave the terrain is not taken
func (s *Simulation) Tick(dt time.Duration) Snapshot {
	s.mu.Lock()

	step := s.speed * dt.Seconds()
	t := s.nav.Terrain()
	var arrived []int
	for _, a := range s.agents {
		if a.State != AgentFollowing {
			continue
		}
		v, err := s.nav.Steer(a)
		if err != nil {
			s.log.WithField("agent", a.ID).WithError(err).Warn("Steering failed")
			continue
		}
		if a.State == AgentIdle {
			arrived = append(arrived, a.ID)
			continue
		}
		next := vmath.V3FAdd(a.Position, vmath.V3FScale(v, step))
		// Do not overshoot the destination
		if t.ChunkIndexFromWorldPosition(a.Position) == a.DestChunk {
			if rem := vmath.V3FDistXZ(a.Position, a.Destination); rem < step {
				next = vmath.V3FAdd(a.Position, vmath.V3FScale(v, rem))
			}
		}
		if t.ContainsWorldPosition(next) {
			a.Position = next
		}
	}
	s.tick++
	snap := s.snapshotLocked()
	cb := s.onArrive
	s.mu.Unlock()

	if cb != nil && len(arrived) > 0 {
		cb(arrived)
	}
	return snap
}

// Snapshot returns the current agent states without advancing time
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	t := s.nav.Terrain()
	snap := Snapshot{Tick: s.tick, Agents: make([]AgentSnapshot, len(s.agents))}
	for i, a := range s.agents {
		chunk := -1
		if t.ContainsWorldPosition(a.Position) {
			chunk = t.ChunkIndexFromWorldPosition(a.Position)
		}
		snap.Agents[i] = AgentSnapshot{
			ID:    a.ID,
			X:     a.Position.X,
			Y:     a.Position.Y,
			Z:     a.Position.Z,
			State: a.State.String(),
			Chunk: chunk,
			Route: append([]int(nil), a.Route...),
		}
	}
	return snap
}

// Clear removes every agent
func (s *Simulation) Clear() {
	s.mu.Lock()
	s.agents = nil
	s.mu.Unlock()
}

// Len returns the number of agents
func (s *Simulation) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}

// Terrain exposes the navigator's terrain for callers placing agents
func (s *Simulation) Terrain() grid.Terrain {
	return s.nav.Terrain()
}

// Navigator returns the navigator the simulation steers with
func (s *Simulation) Navigator() *Navigator {
	return s.nav
}
