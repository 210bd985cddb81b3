package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/bikenearby/backend-go/internal/config"
	"github.com/bikenearby/backend-go/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// NearbyKey identifies one radius query against one snapshot version.
type NearbyKey struct {
	Version  uint64
	Lat      float64
	Lon      float64
	RadiusKm float64
}

func (k NearbyKey) String() string {
	return fmt.Sprintf("v%d:%f,%f:%f", k.Version, k.Lat, k.Lon, k.RadiusKm)
}

// NearbyCacheEntry wraps the cached result with metadata
type NearbyCacheEntry struct {
	Data      []models.NearbyStation
	ExpiresAt time.Time
}

// NearbyCache memoizes sorted query results. Keys embed the snapshot version,
// so a stale entry can never answer for a newer snapshot; Purge on publish
// only reclaims memory.
type NearbyCache struct {
	lru    *lru.Cache[NearbyKey, *NearbyCacheEntry]
	ttl    time.Duration
	clock  clock
	mu     sync.Mutex
	hits   uint64
	misses uint64
}

func NewNearbyCache(cfg *config.CacheConfig) (*NearbyCache, error) {
	lruCache, err := lru.New[NearbyKey, *NearbyCacheEntry](cfg.NearbyLRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &NearbyCache{
		lru:   lruCache,
		ttl:   cfg.GetNearbyLRUTTL(),
		clock: systemClock{},
	}, nil
}

// Get returns a copy of the cached result for key.
func (c *NearbyCache) Get(key NearbyKey) ([]models.NearbyStation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if ok && c.ttl > 0 && c.clock.Now().After(entry.ExpiresAt) {
		c.lru.Remove(key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	result := make([]models.NearbyStation, len(entry.Data))
	copy(result, entry.Data)
	return result, true
}

func (c *NearbyCache) Add(key NearbyKey, stations []models.NearbyStation) {
	data := make([]models.NearbyStation, len(stations))
	copy(data, stations)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, &NearbyCacheEntry{
		Data:      data,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
}

// Purge removes all entries
func (c *NearbyCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

func (c *NearbyCache) Len() int {
	return c.lru.Len()
}

// GetCacheStats returns statistics about cache hits and misses
func (c *NearbyCache) GetCacheStats() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]uint64{
		"nearby_hits":   c.hits,
		"nearby_misses": c.misses,
	}
}
