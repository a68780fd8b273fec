package core_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anggasct/stoplight/pkg/core"
)

func TestAtomicFlag(t *testing.T) {
	t.Run("zero value is free", func(t *testing.T) {
		var f core.AtomicFlag
		assert.False(t, f.IsSet())
	})

	t.Run("test and set returns the previous state", func(t *testing.T) {
		var f core.AtomicFlag
		assert.False(t, f.TestAndSet(true))
		assert.True(t, f.IsSet())
		assert.True(t, f.TestAndSet(true))
		assert.True(t, f.TestAndSet(false))
		assert.False(t, f.IsSet())
	})

	t.Run("compare and set", func(t *testing.T) {
		var f core.AtomicFlag
		assert.False(t, f.CompareAndSet(true, false))
		assert.True(t, f.CompareAndSet(false, true))
		assert.True(t, f.IsSet())
		f.Clear()
		assert.False(t, f.IsSet())
	})

	t.Run("only one concurrent setter wins", func(t *testing.T) {
		var f core.AtomicFlag
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0

		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !f.TestAndSet(true) {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, winners)
	})
}

func TestAtomicSection(t *testing.T) {
	section := core.NewAtomicSection()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			section.Do(func() {
				v := counter
				counter = v + 1
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)

	exit := section.Enter()
	exit()
	section.Do(func() {})
}
