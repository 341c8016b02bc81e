package concurrentMap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentSetAndDelete(t *testing.T) {
	m := NewConcurrentMap[int, string]()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set(i, "v")
		}()
	}
	wg.Wait()
	assert.Equal(t, 64, m.Len())

	m.Delete(3)
	_, ok := m.Get(3)
	assert.False(t, ok)
	v, ok := m.Get(4)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestDrainEmptiesMap(t *testing.T) {
	m := NewConcurrentMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	seen := map[string]int{}
	m.Drain(func(k string, v int) { seen[k] = v })

	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
	assert.Zero(t, m.Len())
}
