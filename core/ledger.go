package core

import (
	"sync"

	"github.com/shopspring/decimal"
)

// bidLedger tracks, per auction, the amount currently held on each bidder's
// behalf. It is a separate keyed store scoped by auction id rather than a
// map nested inside the Auction record.
//
// The ledger has its own lock so queries never race with command execution,
// but atomicity across an auction record and its ledger entries is the call
// guard's job, not the ledger's.
type bidLedger struct {
	mu   sync.RWMutex
	held map[uint64]map[string]decimal.Decimal
}

func newBidLedger() *bidLedger {
	return &bidLedger{held: make(map[uint64]map[string]decimal.Decimal)}
}

// amount returns the held amount for bidder, zero if they never bid.
func (l *bidLedger) amount(auctionID uint64, bidder string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.held[auctionID][bidder]
}

// set records the held amount for bidder.
func (l *bidLedger) set(auctionID uint64, bidder string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, ok := l.held[auctionID]
	if !ok {
		entries = make(map[string]decimal.Decimal)
		l.held[auctionID] = entries
	}
	entries[bidder] = amount
}

// clear zeroes bidder's entry and returns the amount that was held.
func (l *bidLedger) clear(auctionID uint64, bidder string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, ok := l.held[auctionID]
	if !ok {
		return decimal.Zero
	}
	amount := entries[bidder]
	delete(entries, bidder)
	return amount
}

// entries returns a copy of all non-zero entries for an auction.
func (l *bidLedger) entries(auctionID uint64) map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(l.held[auctionID]))
	for bidder, amount := range l.held[auctionID] {
		if !amount.IsZero() {
			out[bidder] = amount
		}
	}
	return out
}
