package navigation

import (
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/lixenwraith/chunkflow/grid"
)

// FieldCache memoizes direction fields by (chunk, side, obstacle version)
// A version bump makes older entries unreachable; Forget releases them early
type FieldCache struct {
	cache *ristretto.Cache[string, *DirectionField]
	ttl   time.Duration
}

// NewFieldCache creates a cache bounded by total cached cell count
// ttl of zero keeps entries until evicted
func NewFieldCache(numCounters, maxCost int64, bufferItems int64, ttl time.Duration) (*FieldCache, error) {
	cache, err := ristretto.NewCache[string, *DirectionField](&ristretto.Config[string, *DirectionField]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &FieldCache{cache: cache, ttl: ttl}, nil
}

func fieldKey(chunk int, side grid.Side, version uint64) string {
	return strconv.Itoa(chunk) + "|" + side.String() + "|" + strconv.FormatUint(version, 10)
}

// Get returns the cached field of chunk/side computed at version
func (c *FieldCache) Get(chunk int, side grid.Side, version uint64) (*DirectionField, bool) {
	return c.cache.Get(fieldKey(chunk, side, version))
}

// Set stores a field under its own chunk, side and version
// Admission is best effort; a dropped field is recomputed on the next request
func (c *FieldCache) Set(f *DirectionField) {
	if f == nil {
		return
	}
	key := fieldKey(f.Chunk, f.Side, f.Version)
	cost := int64(len(f.Directions))
	if cost == 0 {
		cost = 1
	}
	if c.ttl > 0 {
		c.cache.SetWithTTL(key, f, cost, c.ttl)
	} else {
		c.cache.Set(key, f, cost)
	}
	c.cache.Wait()
}

// Forget drops every side of chunk cached at version
func (c *FieldCache) Forget(chunk int, version uint64) {
	for _, side := range grid.Sides {
		c.cache.Del(fieldKey(chunk, side, version))
	}
}

// Clear drops all entries
func (c *FieldCache) Clear() {
	c.cache.Clear()
}

// Close stops the cache's background goroutines
func (c *FieldCache) Close() {
	c.cache.Close()
}
