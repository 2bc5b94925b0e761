package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()

	_, ok := m.Get("missing")
	assert.False(t, ok)

	require.NoError(t, m.Set("k", "v"))
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	// Overwrite wins.
	require.NoError(t, m.Set("k", "v2"))
	v, _ = m.Get("k")
	assert.Equal(t, "v2", v)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			m.Set(key, "v")
			m.Get(key)
		}(i)
	}
	wg.Wait()

	_, ok := m.Get("k0")
	assert.True(t, ok)
}
