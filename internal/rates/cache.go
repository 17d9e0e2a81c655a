package rates

import (
	"strconv"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/ratetable"
)

// DefaultCacheSize bounds the number of memoized coefficients.
const DefaultCacheSize = 4096

type cacheKey struct {
	reaction   string
	te, tg, ev string
}

// Cached memoizes a Rater. Plasma parameters are rounded to 12 significant
// digits before keying. Safe for concurrent use.
type Cached struct {
	inner Rater

	mu     sync.Mutex
	cache  *lru.Cache
	hits   int
	misses int
}

func NewCached(inner Rater, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cached{inner: inner, cache: lru.New(size)}
}

func (c *Cached) Rate(reaction string, s plasma.State) float64 {
	key := cacheKey{
		reaction: ratetable.Normalize(reaction),
		te:       round(s.Te),
		tg:       round(s.Tg),
		ev:       round(s.Ev),
	}

	c.mu.Lock()
	if v, ok := c.cache.Get(key); ok {
		c.hits++
		c.mu.Unlock()
		return v.(float64)
	}
	c.misses++
	c.mu.Unlock()

	v := c.inner.Rate(reaction, s)

	c.mu.Lock()
	c.cache.Add(key, v)
	c.mu.Unlock()
	return v
}

// Stats reports cache hits and misses.
func (c *Cached) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func round(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}
