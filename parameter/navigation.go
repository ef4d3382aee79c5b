package parameter

import (
	"math"
	"time"
)

// Navigation - Cost Field
const (
	// CostDefault is the flat traversal cost of a passable cell
	CostDefault byte = 1

	// CostMaxPassable is the highest cost a passable cell may carry
	CostMaxPassable byte = 254

	// CostImpassable marks a cell that is never expanded into
	CostImpassable byte = 255
)

// Navigation - Integration Field
const (
	// IntegrationUnreachable is the integration value of a cell no gateway reaches
	// grid.MaxChunkSize keeps every reachable value below it at CostMaxPassable per cell
	IntegrationUnreachable int32 = math.MaxInt32
)

// Navigation - Chunk Router
const (
	// RouteEdgeCost is the cost of crossing one cardinal chunk edge
	RouteEdgeCost = 10
)

// Navigation - Field Cache
const (
	// FieldCacheNumCounters is the ristretto admission counter count (~10x expected entries)
	FieldCacheNumCounters = 1 << 16

	// FieldCacheMaxCost bounds cached direction fields by total cell count
	FieldCacheMaxCost = 1 << 24

	// FieldCacheBufferItems is the ristretto Get buffer size
	FieldCacheBufferItems = 64
)

// Navigation - Agents
const (
	// AgentSpeed is the default agent speed in world units per second
	AgentSpeed = 4.0

	// AgentArrivalRadius is the distance under which an agent counts as arrived
	AgentArrivalRadius = 0.5

	// SimulationTick is the default simulation step interval
	SimulationTick = 100 * time.Millisecond
)
