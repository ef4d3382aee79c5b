package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/parameter"
	"github.com/lixenwraith/chunkflow/vmath"
)

// Options tunes a Navigator
type Options struct {
	// Workers bounds concurrent field computation in PrepareRoute
	Workers int

	CacheCounters    int64
	CacheMaxCost     int64
	CacheBufferItems int64
	CacheTTL         time.Duration

	// BlockSealedChunks keeps the router out of chunks whose every cell is an obstacle
	BlockSealedChunks bool
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Workers:           4,
		CacheCounters:     parameter.FieldCacheNumCounters,
		CacheMaxCost:      parameter.FieldCacheMaxCost,
		CacheBufferItems:  parameter.FieldCacheBufferItems,
		BlockSealedChunks: true,
	}
}

// Navigator owns per-chunk obstacle state and serves chunk routes and direction fields
// All methods are safe for concurrent use
type Navigator struct {
	terrain grid.Terrain
	catalog *GatewayCatalog
	router  *ChunkRouter
	cache   *FieldCache
	opts    Options
	log     logrus.FieldLogger

	mu sync.RWMutex
	// Masks and weights are replaced, never mutated, so snapshots can be read without the lock
	obstacles [][]bool
	weights   [][]byte
	versions  []uint64
	sealed    []bool
}

// NewNavigator builds the gateway catalog and field cache for a terrain
func NewNavigator(t grid.Terrain, opts Options, log logrus.FieldLogger) (*Navigator, error) {
	catalog, err := NewGatewayCatalog(t)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	cache, err := NewFieldCache(opts.CacheCounters, opts.CacheMaxCost, opts.CacheBufferItems, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("navigation: field cache: %w", err)
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}

	n := &Navigator{
		terrain:   t,
		catalog:   catalog,
		router:    NewChunkRouter(t),
		cache:     cache,
		opts:      opts,
		log:       log.WithField("component", "navigator"),
		obstacles: make([][]bool, t.NumChunks()),
		weights:   make([][]byte, t.NumChunks()),
		versions:  make([]uint64, t.NumChunks()),
		sealed:    make([]bool, t.NumChunks()),
	}
	empty := make([]bool, t.CellsPerChunk())
	for i := range n.obstacles {
		n.obstacles[i] = empty
	}

	n.log.WithFields(logrus.Fields{
		"chunks":   fmt.Sprintf("%dx%d", t.NumChunksX, t.NumChunksY),
		"size":     t.ChunkSize,
		"gateways": catalog.Len(),
	}).Info("Navigator ready")
	return n, nil
}

// Close releases the field cache
func (n *Navigator) Close() {
	n.cache.Close()
}

func (n *Navigator) Terrain() grid.Terrain     { return n.terrain }
func (n *Navigator) Catalog() *GatewayCatalog { return n.catalog }

func (n *Navigator) checkChunk(chunk int) error {
	if !n.terrain.ValidChunk(chunk) {
		return fmt.Errorf("%w: chunk %d of %d", grid.ErrOutOfBounds, chunk, n.terrain.NumChunks())
	}
	return nil
}

// SetObstacles replaces the obstacle mask of a chunk and returns its new version
// Fields of the chunk and its cardinal neighbors are invalidated since gateway usability spans the boundary
func (n *Navigator) SetObstacles(chunk int, mask []bool) (uint64, error) {
	if err := n.checkChunk(chunk); err != nil {
		return 0, err
	}
	if len(mask) != n.terrain.CellsPerChunk() {
		return 0, fmt.Errorf("%w: mask of %d cells for chunk of %d", grid.ErrOutOfBounds, len(mask), n.terrain.CellsPerChunk())
	}

	owned := make([]bool, len(mask))
	copy(owned, mask)
	sealed := true
	for _, blocked := range owned {
		if !blocked {
			sealed = false
			break
		}
	}

	n.mu.Lock()
	n.obstacles[chunk] = owned
	n.sealed[chunk] = sealed
	version := n.bumpLocked(chunk)
	n.mu.Unlock()

	n.log.WithFields(logrus.Fields{"chunk": chunk, "version": version, "sealed": sealed}).Debug("Obstacles updated")
	return version, nil
}

// SetTerrainCost replaces the per-cell weights of a chunk; nil restores flat cost
func (n *Navigator) SetTerrainCost(chunk int, weights []byte) (uint64, error) {
	if err := n.checkChunk(chunk); err != nil {
		return 0, err
	}
	var owned []byte
	if weights != nil {
		if len(weights) != n.terrain.CellsPerChunk() {
			return 0, fmt.Errorf("%w: %d weights for chunk of %d", grid.ErrOutOfBounds, len(weights), n.terrain.CellsPerChunk())
		}
		owned = make([]byte, len(weights))
		copy(owned, weights)
	}

	n.mu.Lock()
	n.weights[chunk] = owned
	version := n.bumpLocked(chunk)
	n.mu.Unlock()

	n.log.WithFields(logrus.Fields{"chunk": chunk, "version": version}).Debug("Terrain cost updated")
	return version, nil
}

// bumpLocked advances the version of chunk and its neighbors, releasing their old fields
func (n *Navigator) bumpLocked(chunk int) uint64 {
	touched := [1 + grid.SideCount]int{chunk, -1, -1, -1, -1}
	for i, side := range grid.Sides {
		touched[i+1] = n.terrain.ChunkNeighbor(chunk, side)
	}
	for _, c := range touched {
		if c == grid.NoNeighbor {
			continue
		}
		n.cache.Forget(c, n.versions[c])
		n.versions[c]++
	}
	return n.versions[chunk]
}

// Version returns the obstacle version of a chunk
func (n *Navigator) Version(chunk int) uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.versions[chunk]
}

// Obstacles returns a copy of a chunk's obstacle mask
func (n *Navigator) Obstacles(chunk int) ([]bool, error) {
	if err := n.checkChunk(chunk); err != nil {
		return nil, err
	}
	n.mu.RLock()
	mask := n.obstacles[chunk]
	n.mu.RUnlock()
	out := make([]bool, len(mask))
	copy(out, mask)
	return out, nil
}

// Sealed reports whether every cell of chunk is an obstacle
func (n *Navigator) Sealed(chunk int) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sealed[chunk]
}

// ComputeChunkRoute returns the chunk route from start to dest
func (n *Navigator) ComputeChunkRoute(start, dest int) (ChunkRoute, error) {
	var blocked BlockedFunc
	if n.opts.BlockSealedChunks {
		blocked = func(chunk int) bool {
			return chunk != start && n.Sealed(chunk)
		}
	}
	route, err := n.router.Route(start, dest, blocked)
	if err != nil {
		n.log.WithFields(logrus.Fields{"start": start, "dest": dest}).WithError(err).Debug("Route failed")
		return nil, err
	}
	return route, nil
}

type chunkSnapshot struct {
	version   uint64
	obstacles []bool
	weights   []byte
	gateways  []Gateway
}

// snapshot captures everything a field computation of chunk/side reads
func (n *Navigator) snapshot(chunk int, side grid.Side) chunkSnapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	s := chunkSnapshot{
		version:   n.versions[chunk],
		obstacles: n.obstacles[chunk],
		weights:   n.weights[chunk],
	}
	all := n.catalog.GatewaysAt(chunk, side)
	if len(all) == 0 {
		return s
	}
	across := n.obstacles[all[0].AdjacentChunk]
	s.gateways = make([]Gateway, 0, len(all))
	for _, g := range all {
		if s.obstacles[g.Index] || across[g.AdjacentIndex] {
			continue
		}
		s.gateways = append(s.gateways, g)
	}
	return s
}

// GetDirectionField returns the field steering chunk toward side, computing and caching on miss
func (n *Navigator) GetDirectionField(chunk int, side grid.Side) (*DirectionField, error) {
	if err := n.checkChunk(chunk); err != nil {
		return nil, err
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%w: side %d", grid.ErrOutOfBounds, side)
	}

	n.mu.RLock()
	version := n.versions[chunk]
	n.mu.RUnlock()
	if f, ok := n.cache.Get(chunk, side, version); ok {
		return f, nil
	}

	snap := n.snapshot(chunk, side)
	f := ComputeDirectionField(chunk, side, n.terrain.ChunkSize, snap.obstacles, snap.weights, snap.gateways)
	f.Version = snap.version
	n.cache.Set(f)

	n.log.WithFields(logrus.Fields{
		"chunk":    chunk,
		"side":     side.String(),
		"version":  snap.version,
		"gateways": len(snap.gateways),
	}).Debug("Direction field computed")
	return f, nil
}

// PrepareRoute computes the direction field of every leg of route concurrently
// Fields are returned in route order; the destination chunk has none
func (n *Navigator) PrepareRoute(ctx context.Context, route ChunkRoute) ([]*DirectionField, error) {
	legs, err := route.Legs(n.terrain)
	if err != nil {
		return nil, err
	}

	fields := make([]*DirectionField, len(legs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.opts.Workers)
	for i, leg := range legs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := n.GetDirectionField(leg.Chunk, leg.Side)
			if err != nil {
				return err
			}
			fields[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fields, nil
}

// ChunkIndexFromWorldPosition returns the chunk under pos
func (n *Navigator) ChunkIndexFromWorldPosition(pos vmath.Vec3F) (int, error) {
	if !n.terrain.ContainsWorldPosition(pos) {
		return 0, fmt.Errorf("%w: world position (%.3f,%.3f)", grid.ErrOutOfBounds, pos.X, pos.Z)
	}
	return n.terrain.ChunkIndexFromWorldPosition(pos), nil
}

// CellIndexFromWorldPosition returns the global cell under pos
func (n *Navigator) CellIndexFromWorldPosition(pos vmath.Vec3F) (int, error) {
	if !n.terrain.ContainsWorldPosition(pos) {
		return 0, fmt.Errorf("%w: world position (%.3f,%.3f)", grid.ErrOutOfBounds, pos.X, pos.Z)
	}
	return n.terrain.CellIndexFromWorldPosition(pos), nil
}
