package core

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind names the notification emitted by a successful command.
type EventKind string

const (
	EventAuctionCreated   EventKind = "auction_created"
	EventBidAccepted      EventKind = "bid_accepted"
	EventAuctionEnded     EventKind = "auction_ended"
	EventAuctionCancelled EventKind = "auction_cancelled"
)

// Event is a notification about a committed state transition. It is emitted
// after the transition and its transfers have completed, never before.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Kind      EventKind       `json:"kind"`
	AuctionID uint64          `json:"auction_id"`
	Asset     AssetRef        `json:"asset"`
	Actor     string          `json:"actor,omitempty"`  // seller or bidder, depending on Kind
	Winner    string          `json:"winner,omitempty"` // auction_ended only
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notifier receives engine events. Delivery is synchronous and best-effort;
// a Notifier must not call back into the engine (the call guard is still
// held and would reject the call).
type Notifier interface {
	Notify(ev Event)
}

// LogNotifier is the default sink: one log line per event.
type LogNotifier struct{}

func (LogNotifier) Notify(ev Event) {
	log.Printf("INFO: event %s: auction=%d asset=%s actor=%s winner=%s amount=%s",
		ev.Kind, ev.AuctionID, ev.Asset, ev.Actor, ev.Winner, ev.Amount)
}

func (e *Engine) emit(kind EventKind, a *Auction, actor, winner string, amount decimal.Decimal) {
	e.cfg.Notifier.Notify(Event{
		ID:        uuid.New(),
		Kind:      kind,
		AuctionID: a.ID,
		Asset:     a.Asset,
		Actor:     actor,
		Winner:    winner,
		Amount:    amount,
		Timestamp: e.now(),
	})
}
