package core

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Engine is the sealed-custody auction engine. It exclusively owns the
// auction table for its lifetime; a boundary layer (wire server, CLI) drives
// it by reference.
//
// Every command follows the same discipline: acquire the auction's call
// guard, validate preconditions, mutate the stored record, and only then
// invoke the external transfer collaborators. A transfer call may
// synchronously re-enter the engine, so the stored state must already be
// consistent when the call is made; re-entry against the same auction fails
// with ErrReentrantCall while the guard is held.
type Engine struct {
	cfg     Config
	custody AssetCustody
	bank    ValueTransfer

	mu       sync.RWMutex
	auctions map[uint64]*record
	nextID   uint64

	ledger *bidLedger

	now func() time.Time
}

// record pairs an auction with its call guard. The guard lives outside the
// Auction value so snapshot copies never carry lock state.
type record struct {
	Auction
	guard callGuard
}

// NewEngine constructs an engine around the two transfer collaborators.
// Zero-value Config fields fall back to the reference constants.
func NewEngine(custody AssetCustody, bank ValueTransfer, cfg Config) *Engine {
	return &Engine{
		cfg:      cfg.withDefaults(),
		custody:  custody,
		bank:     bank,
		auctions: make(map[uint64]*record),
		ledger:   newBidLedger(),
		now:      time.Now,
	}
}

func (e *Engine) lookup(auctionID uint64) (*record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.auctions[auctionID]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	return rec, nil
}

// CreateAuction escrows the asset and opens an auction for it. The custody
// pull happens before the record is inserted, so a failed pull leaves zero
// engine state behind.
func (e *Engine) CreateAuction(seller string, asset AssetRef, startingPrice decimal.Decimal, duration time.Duration) (uint64, error) {
	if duration < e.cfg.MinDuration {
		return 0, ErrInvalidDuration
	}
	if !startingPrice.IsPositive() {
		return 0, ErrInvalidStartingPrice
	}

	owner, err := e.custody.OwnerOf(asset)
	if err != nil {
		// An asset the custody transport cannot resolve is not the seller's.
		return 0, fmt.Errorf("%w: %v", ErrNotAssetOwner, err)
	}
	if owner != seller {
		return 0, ErrNotAssetOwner
	}
	authorized, err := e.custody.IsAuthorizedFor(e.cfg.CustodyAccount, asset)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCustodyNotAuthorized, err)
	}
	if !authorized {
		return 0, ErrCustodyNotAuthorized
	}

	if err := e.custody.Transfer(asset, seller, e.cfg.CustodyAccount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCustodyTransferFailed, err)
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	rec := &record{Auction: Auction{
		ID:            id,
		Seller:        seller,
		Asset:         asset,
		StartingPrice: startingPrice,
		HighestAmount: startingPrice,
		HighestBidder: NoBidder,
		Deadline:      e.now().Add(duration),
		Phase:         PhaseActive,
	}}
	e.auctions[id] = rec
	snap := rec.Auction
	e.mu.Unlock()

	log.Printf("INFO: auction %d created: asset=%s seller=%s floor=%s deadline=%s",
		id, asset, seller, startingPrice, snap.Deadline.Format(time.RFC3339))
	e.emit(EventAuctionCreated, &snap, seller, NoBidder, startingPrice)
	return id, nil
}

// PlaceBid accepts a bid that strictly exceeds the current highest amount,
// refunding the displaced leader. All record and ledger mutation commits
// before the refund is sent, so a nested call triggered by the refund sees
// the new leader and a zeroed old entry. A failed refund rolls the whole
// bid back: the engine never holds new money against an undeliverable debt.
func (e *Engine) PlaceBid(auctionID uint64, bidder string, amount decimal.Decimal) error {
	rec, err := e.lookup(auctionID)
	if err != nil {
		return err
	}
	if !rec.guard.enter() {
		return ErrReentrantCall
	}
	defer rec.guard.leave()

	e.mu.Lock()
	a := &rec.Auction
	switch {
	case a.Phase.Terminal():
		e.mu.Unlock()
		return ErrAuctionEnded
	case !e.now().Before(a.Deadline):
		e.mu.Unlock()
		return ErrAuctionExpired
	case amount.Cmp(a.HighestAmount) <= 0:
		e.mu.Unlock()
		return ErrBidTooLow
	case bidder == a.Seller:
		e.mu.Unlock()
		return ErrSellerCannotBid
	}

	prev := *a
	displaced := a.HighestBidder
	refund := decimal.Zero
	if displaced != NoBidder {
		refund = e.ledger.clear(auctionID, displaced)
	}
	e.ledger.set(auctionID, bidder, amount)
	a.HighestAmount = amount
	a.HighestBidder = bidder
	now := e.now()
	if a.Deadline.Sub(now) < e.cfg.ExtensionWindow {
		a.Deadline = now.Add(e.cfg.ExtensionWindow)
	}
	snap := *a
	e.mu.Unlock()

	if displaced != NoBidder && refund.IsPositive() {
		if err := e.bank.Send(displaced, refund); err != nil {
			e.mu.Lock()
			rec.Auction = prev
			e.ledger.clear(auctionID, bidder)
			e.ledger.set(auctionID, displaced, refund)
			e.mu.Unlock()
			log.Printf("ERROR: auction %d: refund of %s to %s failed, bid by %s rolled back: %v",
				auctionID, refund, displaced, bidder, err)
			return fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
	}

	log.Printf("INFO: auction %d: bid accepted: bidder=%s amount=%s deadline=%s",
		auctionID, bidder, amount, snap.Deadline.Format(time.RFC3339))
	e.emit(EventBidAccepted, &snap, bidder, NoBidder, amount)
	return nil
}

// WithdrawBid pays out a non-leading ledger entry. The entry is zeroed
// before the outbound send, same ordering discipline as refunds; a failed
// send restores the entry. Withdrawal carries no phase restriction: a
// non-winning bidder's funds stay claimable before and after finalization.
func (e *Engine) WithdrawBid(auctionID uint64, bidder string) (decimal.Decimal, error) {
	rec, err := e.lookup(auctionID)
	if err != nil {
		return decimal.Zero, err
	}
	if !rec.guard.enter() {
		return decimal.Zero, ErrReentrantCall
	}
	defer rec.guard.leave()

	e.mu.RLock()
	leader := rec.Auction.HighestBidder
	e.mu.RUnlock()
	if leader != NoBidder && bidder == leader {
		return decimal.Zero, ErrHighestBidderCannotWithdraw
	}

	amount := e.ledger.clear(auctionID, bidder)
	if amount.IsZero() {
		return decimal.Zero, ErrNoBidToWithdraw
	}

	if err := e.bank.Send(bidder, amount); err != nil {
		e.ledger.set(auctionID, bidder, amount)
		log.Printf("ERROR: auction %d: withdrawal of %s by %s failed and was restored: %v",
			auctionID, amount, bidder, err)
		return decimal.Zero, fmt.Errorf("%w: %v", ErrWithdrawFailed, err)
	}

	log.Printf("INFO: auction %d: withdrawal paid: bidder=%s amount=%s", auctionID, bidder, amount)
	return amount, nil
}

// EndAuction finalizes an expired auction: asset to the winner and proceeds
// to the seller, or asset back to the seller when no bid ever landed.
//
// Phase commits to Ended before any transfer and stays Ended even when a
// transfer fails; the error propagates so the surrounding system can settle
// the stuck transfer out of band, and retrying EndAuction reports
// ErrAuctionEnded rather than repeating a payout.
func (e *Engine) EndAuction(auctionID uint64) (Settlement, error) {
	rec, err := e.lookup(auctionID)
	if err != nil {
		return Settlement{}, err
	}
	if !rec.guard.enter() {
		return Settlement{}, ErrReentrantCall
	}
	defer rec.guard.leave()

	e.mu.Lock()
	a := &rec.Auction
	switch a.Phase {
	case PhaseCreated:
		e.mu.Unlock()
		return Settlement{}, ErrAuctionNotStarted
	case PhaseEnded, PhaseCancelled:
		e.mu.Unlock()
		return Settlement{}, ErrAuctionEnded
	}
	now := e.now()
	if now.Before(a.Deadline) {
		e.mu.Unlock()
		return Settlement{}, ErrAuctionNotYetEnded
	}
	a.Phase = PhaseEnded
	snap := *a
	e.mu.Unlock()

	st := Settlement{
		AuctionID: snap.ID,
		Asset:     snap.Asset,
		Seller:    snap.Seller,
		Winner:    snap.HighestBidder,
		Amount:    decimal.Zero,
		Timestamp: now,
	}
	if snap.HighestBidder != NoBidder {
		st.Amount = snap.HighestAmount
		if err := e.custody.Transfer(snap.Asset, e.cfg.CustodyAccount, snap.HighestBidder); err != nil {
			log.Printf("ERROR: auction %d ended but asset transfer to winner %s failed: %v",
				auctionID, snap.HighestBidder, err)
			return st, fmt.Errorf("%w: %v", ErrCustodyTransferFailed, err)
		}
		if err := e.bank.Send(snap.Seller, snap.HighestAmount); err != nil {
			log.Printf("ERROR: auction %d ended but proceeds of %s to seller %s failed: %v",
				auctionID, snap.HighestAmount, snap.Seller, err)
			return st, fmt.Errorf("%w: %v", ErrProceedsTransferFailed, err)
		}
	} else {
		if err := e.custody.Transfer(snap.Asset, e.cfg.CustodyAccount, snap.Seller); err != nil {
			log.Printf("ERROR: auction %d ended but asset return to seller %s failed: %v",
				auctionID, snap.Seller, err)
			return st, fmt.Errorf("%w: %v", ErrCustodyTransferFailed, err)
		}
	}

	log.Printf("INFO: auction %d ended: winner=%s amount=%s", auctionID, winnerLabel(st.Winner), st.Amount)
	e.emit(EventAuctionEnded, &snap, snap.Seller, st.Winner, st.Amount)
	return st, nil
}

// CancelAuction reverses an auction that never attracted a real bid: the
// asset goes back to the seller and the record turns terminal. A failed
// asset return rolls the phase back to Active so the cancellation can be
// retried once the custody transport recovers.
func (e *Engine) CancelAuction(auctionID uint64, caller string) (Settlement, error) {
	rec, err := e.lookup(auctionID)
	if err != nil {
		return Settlement{}, err
	}
	if !rec.guard.enter() {
		return Settlement{}, ErrReentrantCall
	}
	defer rec.guard.leave()

	e.mu.Lock()
	a := &rec.Auction
	switch {
	case caller != a.Seller:
		e.mu.Unlock()
		return Settlement{}, ErrOnlySellerCanCancel
	case a.Phase.Terminal():
		e.mu.Unlock()
		return Settlement{}, ErrAuctionNotActive
	case a.HighestBidder != NoBidder:
		e.mu.Unlock()
		return Settlement{}, ErrBidsAlreadyPlaced
	}
	a.Phase = PhaseCancelled
	snap := *a
	e.mu.Unlock()

	if err := e.custody.Transfer(snap.Asset, e.cfg.CustodyAccount, snap.Seller); err != nil {
		e.mu.Lock()
		rec.Auction.Phase = PhaseActive
		e.mu.Unlock()
		log.Printf("ERROR: auction %d: cancel failed, asset return to %s did not complete: %v",
			auctionID, snap.Seller, err)
		return Settlement{}, fmt.Errorf("%w: %v", ErrCustodyTransferFailed, err)
	}

	st := Settlement{
		AuctionID: snap.ID,
		Asset:     snap.Asset,
		Seller:    snap.Seller,
		Winner:    NoBidder,
		Amount:    decimal.Zero,
		Cancelled: true,
		Timestamp: e.now(),
	}
	log.Printf("INFO: auction %d cancelled by seller %s", auctionID, snap.Seller)
	e.emit(EventAuctionCancelled, &snap, snap.Seller, NoBidder, decimal.Zero)
	return st, nil
}

// GetAuction returns a snapshot copy of the auction record.
func (e *Engine) GetAuction(auctionID uint64) (Auction, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.auctions[auctionID]
	if !ok {
		return Auction{}, ErrAuctionNotFound
	}
	return rec.Auction, nil
}

// GetBid returns the amount currently held for bidder, zero (not an error)
// for a party that never bid.
func (e *Engine) GetBid(auctionID uint64, bidder string) (decimal.Decimal, error) {
	if _, err := e.lookup(auctionID); err != nil {
		return decimal.Zero, err
	}
	return e.ledger.amount(auctionID, bidder), nil
}

func winnerLabel(winner string) string {
	if winner == NoBidder {
		return "none"
	}
	return winner
}
