package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator_Sequence(t *testing.T) {
	g := NewSequentialIDGenerator("")
	assert.Equal(t, "run-0001", g.Generate())
	assert.Equal(t, "run-0002", g.Generate())

	g.Reset()
	assert.Equal(t, "run-0001", g.Generate())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	g := NewSequentialIDGenerator("c")
	const n = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			id := g.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.True(t, seen["c-0050"])
}
