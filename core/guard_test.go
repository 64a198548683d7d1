package core

import (
	"sync"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestCallGuard_RejectsWhileHeld(t *testing.T) {
	var g callGuard

	check.True(t, g.enter())
	// Re-entry fails instead of blocking.
	check.True(t, !g.enter())

	g.leave()
	check.True(t, g.enter())
	g.leave()
}

func TestCallGuard_SingleWinnerUnderContention(t *testing.T) {
	var g callGuard
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.enter() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	check.Equal(t, 1, winners)
}
