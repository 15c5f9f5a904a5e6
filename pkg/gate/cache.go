package gate

import "sync"

// MemoryCache is an unbounded ProgramCache. Rule sets are small and fixed at
// startup, so there is no eviction.
type MemoryCache struct {
	programs sync.Map
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get implements ProgramCache.
func (c *MemoryCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set implements ProgramCache.
func (c *MemoryCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
