package formula

import "testing"

func TestCache(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set("b", 2)
	c.Set("a", 1)
	c.Set("b", 3)

	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Errorf("Get(b) = %v, %v, want 3, true", v, ok)
	}
	if keys := c.Keys(); !equalStrings(keys, []string{"b", "a"}) {
		t.Errorf("Keys() = %v, want [b a]", keys)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 2 {
		t.Errorf("Stats() = %+v", stats)
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
