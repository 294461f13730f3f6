package directives

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache stores compiled display rules. Evaluators prefix keys with
// their engine name.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramCacheSize is used by NewLRUProgramCache for non-positive sizes.
const DefaultProgramCacheSize = 256

type lruProgramCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUProgramCache returns a bounded ProgramCache safe for concurrent
// renders. Page catalogs reuse a small set of rules, so the least recently
// used programs are evicted first.
func NewLRUProgramCache(size int) ProgramCache {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		panic(err)
	}
	return &lruProgramCache{cache: cache}
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}

// Len reports the number of cached programs.
func (c *lruProgramCache) Len() int {
	return c.cache.Len()
}
