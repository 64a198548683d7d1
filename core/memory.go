package core

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// In-memory reference implementations of the two transfer collaborators.
// The daemon wires them for bring-up and demos; the tests use them directly.
// Real deployments substitute transports backed by an actual registry and
// payment rail.

// MemoryAssetBook is an asset registry with ERC-721-style owner and
// per-operator authorization semantics.
type MemoryAssetBook struct {
	mu        sync.Mutex
	owners    map[AssetRef]string
	operators map[AssetRef]map[string]bool
	failures  int // pending injected Transfer failures
}

func NewMemoryAssetBook() *MemoryAssetBook {
	return &MemoryAssetBook{
		owners:    make(map[AssetRef]string),
		operators: make(map[AssetRef]map[string]bool),
	}
}

// Mint registers an asset under an owner.
func (b *MemoryAssetBook) Mint(ref AssetRef, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owners[ref] = owner
}

// Authorize allows operator to move the asset on the owner's behalf.
// Authorization survives ownership changes, matching an operator approval
// granted per token rather than per holder.
func (b *MemoryAssetBook) Authorize(ref AssetRef, operator string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops, ok := b.operators[ref]
	if !ok {
		ops = make(map[string]bool)
		b.operators[ref] = ops
	}
	ops[operator] = true
}

// FailNextTransfers makes the next n Transfer calls report failure without
// moving the asset.
func (b *MemoryAssetBook) FailNextTransfers(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = n
}

func (b *MemoryAssetBook) OwnerOf(ref AssetRef) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	owner, ok := b.owners[ref]
	if !ok {
		return "", fmt.Errorf("unknown asset %s", ref)
	}
	return owner, nil
}

func (b *MemoryAssetBook) IsAuthorizedFor(operator string, ref AssetRef) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.owners[ref]; !ok {
		return false, fmt.Errorf("unknown asset %s", ref)
	}
	return b.operators[ref][operator], nil
}

func (b *MemoryAssetBook) Transfer(ref AssetRef, from, to string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return fmt.Errorf("injected custody failure for %s", ref)
	}
	owner, ok := b.owners[ref]
	if !ok {
		return fmt.Errorf("unknown asset %s", ref)
	}
	if owner != from {
		return fmt.Errorf("asset %s held by %s, not %s", ref, owner, from)
	}
	b.owners[ref] = to
	return nil
}

// MemoryBank is an account-balance book implementing ValueTransfer. Send
// credits the recipient; the engine's own float is not modeled, matching
// the one-way transport the engine requires.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal

	// SendHook, when set, runs before a send is applied; a returned error
	// fails the send without moving value. Tests use it for failure
	// injection and for transfer callbacks that re-enter the engine.
	SendHook func(to string, amount decimal.Decimal) error
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[string]decimal.Decimal)}
}

// Deposit seeds an account balance.
func (b *MemoryBank) Deposit(account string, amount decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

// BalanceOf returns the current balance, zero for unknown accounts.
func (b *MemoryBank) BalanceOf(account string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

func (b *MemoryBank) Send(to string, amount decimal.Decimal) error {
	// Hook runs outside the balance lock: a hook may legitimately call back
	// into the engine, which may query balances.
	if hook := b.SendHook; hook != nil {
		if err := hook(to, amount); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}
