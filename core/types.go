package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoBidder is the sentinel identity used while an auction has no real bid.
const NoBidder = ""

// Phase is the lifecycle state of an auction.
type Phase string

const (
	// PhaseCreated exists for completeness: custody transfer is synchronous
	// and unconditional, so a stored record is never observed in this phase.
	PhaseCreated   Phase = "created"
	PhaseActive    Phase = "active"
	PhaseEnded     Phase = "ended"
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether no further state-mutating operation may succeed.
func (p Phase) Terminal() bool {
	return p == PhaseEnded || p == PhaseCancelled
}

// AssetRef identifies the escrowed item: a collection plus a token id.
// The engine does not interpret it beyond passing it to the custody
// collaborator.
type AssetRef struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
}

func (r AssetRef) String() string {
	return r.Collection + "/" + r.TokenID
}

// Auction is one escrowed asset-sale. The per-bidder ledger lives in a
// separate keyed store scoped by auction id, not in this record.
type Auction struct {
	ID            uint64          `json:"id"`
	Seller        string          `json:"seller"`
	Asset         AssetRef        `json:"asset"`
	StartingPrice decimal.Decimal `json:"starting_price"`

	// HighestAmount starts equal to StartingPrice. Until a real bid lands it
	// is a floor, not a bid: HighestBidder stays NoBidder and every bid must
	// strictly exceed it, so a bid equal to the starting price is rejected.
	HighestAmount decimal.Decimal `json:"highest_amount"`
	HighestBidder string          `json:"highest_bidder,omitempty"`

	Deadline time.Time `json:"deadline"`
	Phase    Phase     `json:"phase"`
}

// Settlement is the outcome of a finalized auction, reported by EndAuction
// and CancelAuction so the boundary layer can produce a signed receipt.
// Winner is NoBidder when the auction ended without bids or was cancelled.
type Settlement struct {
	AuctionID uint64          `json:"auction_id"`
	Asset     AssetRef        `json:"asset"`
	Seller    string          `json:"seller"`
	Winner    string          `json:"winner,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Cancelled bool            `json:"cancelled,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// AssetCustody is the asset transport the engine requires. Implementations
// report failure as a value and never panic, so the engine can make atomic
// rollback decisions.
type AssetCustody interface {
	// OwnerOf returns the current owner of the asset.
	OwnerOf(ref AssetRef) (string, error)

	// IsAuthorizedFor reports whether operator may move the asset on the
	// owner's behalf.
	IsAuthorizedFor(operator string, ref AssetRef) (bool, error)

	// Transfer moves the asset from one holder to another. A returned error
	// means the asset did not move.
	Transfer(ref AssetRef, from, to string) error
}

// ValueTransfer is the outbound money transport. A returned error means no
// value moved.
type ValueTransfer interface {
	Send(to string, amount decimal.Decimal) error
}

// Reference values from the source system.
const (
	DefaultMinDuration     = time.Hour
	DefaultExtensionWindow = 15 * time.Minute
	DefaultCustodyAccount  = "escrow-engine"
)

// Config carries the constants fixed at engine construction.
type Config struct {
	// MinDuration is the anti-degenerate-auction floor on auction duration.
	MinDuration time.Duration

	// ExtensionWindow is the anti-sniping window: a bid landing with less
	// than this much time remaining pushes the deadline to now+window.
	ExtensionWindow time.Duration

	// CustodyAccount is the identity under which the engine holds escrowed
	// assets in the custody transport.
	CustodyAccount string

	// Notifier receives creation/bid/settlement events. nil means log-backed.
	Notifier Notifier
}

func (c Config) withDefaults() Config {
	if c.MinDuration == 0 {
		c.MinDuration = DefaultMinDuration
	}
	if c.ExtensionWindow == 0 {
		c.ExtensionWindow = DefaultExtensionWindow
	}
	if c.CustodyAccount == "" {
		c.CustodyAccount = DefaultCustodyAccount
	}
	if c.Notifier == nil {
		c.Notifier = LogNotifier{}
	}
	return c
}
