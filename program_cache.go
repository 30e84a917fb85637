package params

import (
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ProgramCache stores compiled expression programs keyed by engine and
// expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramTTL is used by NewTTLProgramCache when ttl is not positive.
const DefaultProgramTTL = 10 * time.Minute

// TTLProgramCache is a ProgramCache whose entries expire after a fixed TTL.
type TTLProgramCache struct {
	cache *ttlcache.Cache[string, any]
	once  sync.Once
}

// NewTTLProgramCache builds a bounded, expiring program cache. A zero capacity
// means unbounded. Call Close to stop the expiry loop.
func NewTTLProgramCache(ttl time.Duration, capacity uint64) *TTLProgramCache {
	if ttl <= 0 {
		ttl = DefaultProgramTTL
	}
	opts := []ttlcache.Option[string, any]{
		ttlcache.WithTTL[string, any](ttl),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, any](capacity))
	}
	cache := ttlcache.New(opts...)
	go cache.Start()
	return &TTLProgramCache{cache: cache}
}

func (c *TTLProgramCache) Get(key string) (any, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	item := c.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *TTLProgramCache) Set(key string, value any) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Set(key, value, ttlcache.DefaultTTL)
}

// Len reports the number of live entries.
func (c *TTLProgramCache) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Close stops the background expiry loop.
func (c *TTLProgramCache) Close() {
	if c == nil || c.cache == nil {
		return
	}
	c.once.Do(c.cache.Stop)
}

// WithProgramCache shares a program cache between evaluations.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *optionsConfig) {
		cfg.programCache = cache
	}
}

// programKey names a compiled program in a ProgramCache. CEL programs are
// tied to the variables they were declared with, so the key set is part of
// their name.
func programKey(engine, expression string, keys ...string) string {
	if engine == EngineCEL {
		return engine + ":" + strings.Join(keys, ",") + ":" + expression
	}
	return engine + ":" + expression
}

// cachedProgram returns the program stored under key, compiling and storing
// it on a miss. Entries of another type are treated as misses.
func cachedProgram[P any](cache ProgramCache, key string, compile func() (P, error)) (P, error) {
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		return program, err
	}
	if cache != nil {
		cache.Set(key, program)
	}
	return program, nil
}
