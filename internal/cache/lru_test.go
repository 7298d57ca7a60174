package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	// "b" is now least recently used.
	c.Set("c", "3")
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute, WithClock(clock.Now))

	c.Set("x", 1)
	c.Set("y", 2)
	clock.now = clock.now.Add(30 * time.Second)
	c.Set("z", 3)

	clock.now = clock.now.Add(45 * time.Second)
	_, ok := c.Get("x")
	assert.False(t, ok, "x expired")
	assert.Equal(t, 1, c.CleanExpired(), "y expired, z still fresh")

	v, ok := c.Get("z")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	assert.Equal(t, 1, c.Size())

	c.Purge()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("b")
	assert.False(t, ok)

	c.Set("c", 3)
	assert.Equal(t, 1, c.Size())
}

func TestManager(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Second, WithClock(clock.Now))
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	clock.now = clock.now.Add(2 * time.Second)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
}
