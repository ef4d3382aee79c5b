package navigation

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/chunkflow/parameter"
	"github.com/lixenwraith/chunkflow/vmath"
)

// AgentState is the steering phase of an agent
type AgentState uint8

const (
	AgentIdle AgentState = iota
	AgentRouting
	AgentFollowing
)

func (s AgentState) String() string {
	switch s {
	case AgentIdle:
		return "idle"
	case AgentRouting:
		return "routing"
	case AgentFollowing:
		return "following"
	}
	return "unknown"
}

// Agent is a moving unit steered by direction fields
type Agent struct {
	ID       int
	Position vmath.Vec3F
	State    AgentState

	Destination vmath.Vec3F
	DestChunk   int
	Route       ChunkRoute
}

// AssignDestination routes agents toward dest, sharing one route per start chunk
// Agents outside the terrain or without a path are left idle; on error no agent is left routing
func (n *Navigator) AssignDestination(ctx context.Context, agents []*Agent, dest vmath.Vec3F) (err error) {
	destChunk, err := n.ChunkIndexFromWorldPosition(dest)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		for _, a := range agents {
			if a.State == AgentRouting {
				a.State, a.Route = AgentIdle, nil
			}
		}
	}()

	var starts []int
	groups := make(map[int][]*Agent)
	for _, a := range agents {
		start, err := n.ChunkIndexFromWorldPosition(a.Position)
		if err != nil {
			n.log.WithField("agent", a.ID).WithError(err).Warn("Agent outside terrain")
			a.State, a.Route = AgentIdle, nil
			continue
		}
		a.State = AgentRouting
		if _, ok := groups[start]; !ok {
			starts = append(starts, start)
		}
		groups[start] = append(groups[start], a)
	}

	for _, start := range starts {
		group := groups[start]
		route, err := n.ComputeChunkRoute(start, destChunk)
		if errors.Is(err, ErrNoPathFound) {
			n.log.WithFields(logrus.Fields{"start": start, "dest": destChunk, "agents": len(group)}).Info("No path for group")
			for _, a := range group {
				a.State, a.Route = AgentIdle, nil
			}
			continue
		}
		if err != nil {
			return err
		}
		if _, err := n.PrepareRoute(ctx, route); err != nil {
			return err
		}
		for _, a := range group {
			a.Route = route
			a.Destination = dest
			a.DestChunk = destChunk
			a.State = AgentFollowing
		}
	}
	return nil
}

// Steer returns the unit ground-plane velocity of an agent, zero when it should not move
// An agent found off its route is re-routed from its current chunk
func (n *Navigator) Steer(a *Agent) (vmath.Vec3F, error) {
	if a.State != AgentFollowing {
		return vmath.Vec3F{}, nil
	}

	chunk, err := n.ChunkIndexFromWorldPosition(a.Position)
	if err != nil {
		a.State, a.Route = AgentIdle, nil
		return vmath.Vec3F{}, err
	}

	if chunk == a.DestChunk {
		delta := vmath.V3FFlat(vmath.V3FSub(a.Destination, a.Position))
		if vmath.V3FMag(delta) <= parameter.AgentArrivalRadius {
			a.State, a.Route = AgentIdle, nil
			return vmath.Vec3F{}, nil
		}
		return vmath.V3FNormalize(delta), nil
	}

	i := a.Route.IndexOf(chunk)
	if i < 0 || i+1 >= len(a.Route) {
		route, err := n.ComputeChunkRoute(chunk, a.DestChunk)
		if err != nil {
			a.State, a.Route = AgentIdle, nil
			if errors.Is(err, ErrNoPathFound) {
				return vmath.Vec3F{}, nil
			}
			return vmath.Vec3F{}, err
		}
		n.log.WithFields(logrus.Fields{"agent": a.ID, "chunk": chunk}).Debug("Agent re-routed")
		a.Route = route
		i = 0
	}

	side, ok := n.terrain.SideToward(a.Route[i], a.Route[i+1])
	if !ok {
		a.State, a.Route = AgentIdle, nil
		return vmath.Vec3F{}, nil
	}
	field, err := n.GetDirectionField(chunk, side)
	if err != nil {
		return vmath.Vec3F{}, err
	}
	return field.At(n.terrain.LocalIndexFromWorldPosition(a.Position)).Vector(), nil
}
