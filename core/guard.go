package core

import "sync/atomic"

// callGuard is the per-auction mutual-exclusion flag held for the duration
// of one logical command, external transfer calls included. It never blocks:
// a call arriving while the flag is set — which includes a nested call
// triggered synchronously by a transfer collaborator — fails loudly with
// ErrReentrantCall instead of waiting on itself.
type callGuard struct {
	locked uint32
}

// enter attempts to acquire the guard. It returns false when a command is
// already executing against the same auction.
func (g *callGuard) enter() bool {
	return atomic.CompareAndSwapUint32(&g.locked, 0, 1)
}

// leave releases the guard. Callers release on every exit path, error paths
// included.
func (g *callGuard) leave() {
	atomic.StoreUint32(&g.locked, 0)
}
