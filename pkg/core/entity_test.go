package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDCounter_StartsAtStart(t *testing.T) {
	c := NewIDCounter(5000)
	assert.Equal(t, EntityID(5000), c.NextEntityID())
	assert.Equal(t, EntityID(5001), c.NextEntityID())
}

func TestIDCounter_ConcurrentUnique(t *testing.T) {
	c := NewIDCounter(1)
	var mu sync.Mutex
	seen := make(map[EntityID]bool)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := c.NextEntityID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 800)
}

func TestIDOf_Nil(t *testing.T) {
	assert.Equal(t, NoEntity, IDOf(nil))
}
