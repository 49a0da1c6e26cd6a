package dedup

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookup_MissThenHit(t *testing.T) {
	c := NewCache(time.Minute)

	_, ok := c.Lookup("h1")
	assert.False(t, ok)

	c.Seed("h1", "n1")
	id, ok := c.Lookup("h1")
	assert.True(t, ok)
	assert.Equal(t, "n1", id)
}

func TestLookup_ExpiredEntryEvicted(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	c.Seed("h1", "n1")

	time.Sleep(50 * time.Millisecond)

	_, ok := c.Lookup("h1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSeed_RefreshesEntry(t *testing.T) {
	c := NewCache(60 * time.Millisecond)
	c.Seed("h1", "n1")

	time.Sleep(40 * time.Millisecond)
	c.Seed("h1", "n1")
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first seed but only 40ms after the refresh.
	id, ok := c.Lookup("h1")
	assert.True(t, ok)
	assert.Equal(t, "n1", id)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := fmt.Sprintf("h%d", i%10)
			c.Seed(h, "n")
			c.Lookup(h)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}
