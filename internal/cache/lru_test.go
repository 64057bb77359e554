package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[[]string](10, 30*time.Minute).WithClock(clock.now)

	c.Set("a", []string{"x"})
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"x"}, got)

	clock.t = clock.t.Add(30 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCleanExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](10, time.Minute).WithClock(clock.now)
	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)

	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	c.Delete("long")
	assert.Equal(t, 0, c.Size())
}

func TestManagerCleansRegistered(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](10, time.Minute).WithClock(clock.now)
	c.Set("a", 1)

	calls := 0
	m := NewManager(nil)
	m.Register(c)
	m.Register(CleanerFunc(func() int { calls++; return 2 }))

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, 3, m.CleanOnce())
	assert.Equal(t, 1, calls)

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}
