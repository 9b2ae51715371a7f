package api

import (
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/the2dl/friendly-ad/internal/models"
	"github.com/the2dl/friendly-ad/internal/prometheus"
)

// searchCache holds serialized /search responses keyed by the full request
// tuple. Disabled entirely when NO_CACHE is set.
type searchCache struct {
	cache   *gocache.Cache
	enabled bool
}

func newSearchCache(ttl time.Duration, enabled bool) *searchCache {
	var c *gocache.Cache
	if enabled {
		c = gocache.New(ttl, ttl)
	}
	return &searchCache{cache: c, enabled: enabled}
}

// cacheKey serializes the full request tuple. JSON keeps field boundaries
// intact, so a delimiter character inside the query cannot collide with a
// different tuple.
func cacheKey(q models.SearchQuery) string {
	key, _ := json.Marshal(q)
	return string(key)
}

// get returns a cached response body, if present.
func (c *searchCache) get(q models.SearchQuery) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	value, found := c.cache.Get(cacheKey(q))
	if !found {
		prometheus.CacheMissesTotal.Inc()
		return nil, false
	}
	prometheus.CacheHitsTotal.Inc()
	return value.([]byte), true
}

func (c *searchCache) set(q models.SearchQuery, body []byte) {
	if !c.enabled {
		return
	}
	c.cache.SetDefault(cacheKey(q), body)
}
