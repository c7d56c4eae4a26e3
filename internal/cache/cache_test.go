package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(maxEntries int) (*Cache, clock.FakeClock) {
	clk := clock.NewFake()
	c := New(Config{TTL: time.Minute, MaxEntries: maxEntries}, clk)
	return c, clk
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(10)
	defer c.Close()

	key := Key(PrefixReminders, "2024-01-01", "2024-01-08")
	_, found := c.Get(key)
	assert.False(t, found)

	c.Set(key, 3)
	v, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, 3, v)
}

func TestCache_TTLExpiration(t *testing.T) {
	c, clk := newTestCache(10)
	defer c.Close()

	c.Set("reminders:a", "x")
	clk.Add(59 * time.Second)
	_, found := c.Get("reminders:a")
	assert.True(t, found)

	clk.Add(2 * time.Minute)
	_, found = c.Get("reminders:a")
	assert.False(t, found)
	assert.Equal(t, 0, c.Stats().TotalEntries)
}

func TestKey(t *testing.T) {
	a := Key(PrefixReminders, "a", "bc")
	b := Key(PrefixReminders, "ab", "c")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key(PrefixReminders, "a", "bc"))
	assert.True(t, len(a) > len(PrefixReminders))
	assert.Contains(t, a, PrefixReminders)
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c, _ := newTestCache(10)
	defer c.Close()

	c.Set(Key(PrefixReminders, "week"), 1)
	c.Set(Key(PrefixReminders, "inbox"), 2)
	c.Set(Key(PrefixInsights, "30d"), 3)
	c.Set(Key(PrefixGroups, "all"), 4)

	assert.Equal(t, 3, c.InvalidatePrefix(PrefixReminders, PrefixInsights))
	assert.Equal(t, 1, c.Stats().TotalEntries)
	_, found := c.Get(Key(PrefixGroups, "all"))
	assert.True(t, found)
}

func TestCache_SnapshotRestore(t *testing.T) {
	c, _ := newTestCache(10)
	defer c.Close()

	week := Key(PrefixReminders, "week")
	c.Set(week, []string{"a", "b"})
	c.Set(Key(PrefixGroups, "all"), "groups")

	snap := c.Snapshot(PrefixReminders)
	c.Update(PrefixReminders, func(v any) any {
		return append(append([]string(nil), v.([]string)...), "c")
	})
	c.Set(Key(PrefixReminders, "added"), "new")

	v, _ := c.Get(week)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	c.Restore(snap)
	v, found := c.Get(week)
	require.True(t, found)
	assert.Equal(t, []string{"a", "b"}, v)
	_, found = c.Get(Key(PrefixReminders, "added"))
	assert.False(t, found)
	_, found = c.Get(Key(PrefixGroups, "all"))
	assert.True(t, found, "other prefixes are untouched")
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, clk := newTestCache(3)
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clk.Add(time.Second)
	}
	c.Get("k0")
	clk.Add(time.Second)
	c.Set("k3", 3)

	_, found := c.Get("k1")
	assert.False(t, found)
	for _, k := range []string{"k0", "k2", "k3"} {
		_, found := c.Get(k)
		assert.True(t, found, k)
	}
}

func TestCache_Concurrency(t *testing.T) {
	c := New(Config{TTL: time.Minute, MaxEntries: 50, CleanupInterval: 10 * time.Millisecond}, clock.New())
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := Key(PrefixReminders, fmt.Sprint(g), fmt.Sprint(i%20))
				c.Set(key, i)
				c.Get(key)
				if i%25 == 0 {
					c.InvalidatePrefix(PrefixReminders)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().TotalEntries, 50)
}
