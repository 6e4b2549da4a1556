package formula

// CacheStats tracks cache statistics
type CacheStats struct {
	Hits   int64 // lookups answered from the cache
	Misses int64 // lookups that fell through to the record values
	Size   int   // number of cached derived metrics
}

// Cache holds the derived metric answers already computed for one
// scouting record, so later formulas can reference them by id.
//
// A Cache belongs to a single Engine and is not safe for concurrent use.
type Cache struct {
	items map[string]float64
	order []string // insertion order of ids
	stats CacheStats
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{items: make(map[string]float64)}
}

// Get retrieves a derived metric answer
func (c *Cache) Get(id string) (float64, bool) {
	v, ok := c.items[id]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return v, ok
}

// Set stores or replaces a derived metric answer
func (c *Cache) Set(id string, value float64) {
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = value
}

// Len returns the number of cached answers
func (c *Cache) Len() int {
	return len(c.items)
}

// Keys returns cached ids in the order they were first stored
func (c *Cache) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	s := c.stats
	s.Size = len(c.items)
	return s
}

