package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func TestEvents_CarryCommandOutcome(t *testing.T) {
	f := newFixture()
	id := f.openAuction(t, "alice", artwork, "1", 2*time.Hour)
	check.Nil(t, f.engine.PlaceBid(id, "bob", dec("2")))
	f.clock.advance(3 * time.Hour)
	_, err := f.engine.EndAuction(id)
	check.Nil(t, err)

	check.Equal(t, 3, len(f.events.events))

	created := f.events.events[0]
	check.Equal(t, EventAuctionCreated, created.Kind)
	check.Equal(t, id, created.AuctionID)
	check.Equal(t, artwork, created.Asset)
	check.Equal(t, "alice", created.Actor)
	check.True(t, created.Amount.Equal(dec("1")))
	check.NotEqual(t, uuid.Nil, created.ID)

	bid := f.events.events[1]
	check.Equal(t, EventBidAccepted, bid.Kind)
	check.Equal(t, "bob", bid.Actor)
	check.True(t, bid.Amount.Equal(dec("2")))

	ended := f.events.events[2]
	check.Equal(t, EventAuctionEnded, ended.Kind)
	check.Equal(t, "bob", ended.Winner)
	check.True(t, ended.Amount.Equal(dec("2")))

	// Every event gets its own id.
	check.NotEqual(t, created.ID, bid.ID)
}

func TestEvents_CancelledAuction(t *testing.T) {
	f := newFixture()
	id := f.openAuction(t, "alice", artwork, "1", 2*time.Hour)
	_, err := f.engine.CancelAuction(id, "alice")
	check.Nil(t, err)

	check.Equal(t, []EventKind{EventAuctionCreated, EventAuctionCancelled}, f.events.kinds())
	cancelled := f.events.events[1]
	check.Equal(t, "alice", cancelled.Actor)
	check.Equal(t, NoBidder, cancelled.Winner)
}
