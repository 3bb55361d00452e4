package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type class struct {
	kind uint8
	n    int
}

func TestClassLRU_TakeMostRecentOfClass(t *testing.T) {
	c := NewClassLRU[class, string](100, nil)

	require.True(t, c.Put(class{1, 4}, "a", 10))
	require.True(t, c.Put(class{1, 4}, "b", 10))
	require.True(t, c.Put(class{2, 4}, "c", 10))

	v, ok := c.Take(class{1, 4})
	require.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = c.Take(class{1, 4})
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.Take(class{1, 4})
	assert.False(t, ok)

	assert.Equal(t, int64(10), c.Size())
	assert.Equal(t, 1, c.Len())

	hits, misses, _ := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestClassLRU_EvictsGloballyOldestFirst(t *testing.T) {
	var evicted []string
	c := NewClassLRU[class, string](30, func(v string) { evicted = append(evicted, v) })

	c.Put(class{1, 1}, "old", 10)
	c.Put(class{2, 1}, "mid", 10)
	c.Put(class{1, 1}, "new", 10)
	c.Put(class{3, 1}, "big", 20)

	assert.Equal(t, []string{"old", "mid"}, evicted)
	assert.Equal(t, int64(30), c.Size())
	assert.LessOrEqual(t, c.Size(), c.Capacity())

	_, _, evictions := c.Stats()
	assert.Equal(t, int64(2), evictions)
}

func TestClassLRU_RejectsOversized(t *testing.T) {
	c := NewClassLRU[class, int](8, nil)
	assert.False(t, c.Put(class{1, 1}, 1, 9))
	assert.Zero(t, c.Len())
}

func TestClassLRU_Drain(t *testing.T) {
	c := NewClassLRU[class, int](100, nil)
	for i := range 5 {
		c.Put(class{uint8(i % 2), 1}, i, 1)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, c.Drain())
	assert.Zero(t, c.Size())
	_, ok := c.Take(class{0, 1})
	assert.False(t, ok)
}

func TestClassLRU_Concurrent(t *testing.T) {
	c := NewClassLRU[class, int](64, nil)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				k := class{uint8(g % 3), i % 4}
				c.Put(k, i, 4)
				c.Take(k)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), int64(64))
}
