package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestBidLedger_AmountDefaultsToZero(t *testing.T) {
	l := newBidLedger()
	check.True(t, l.amount(1, "bob").IsZero())
	check.True(t, l.clear(1, "bob").IsZero())
}

func TestBidLedger_SetAndClear(t *testing.T) {
	l := newBidLedger()
	l.set(1, "bob", dec("2"))
	l.set(1, "carol", dec("3"))
	l.set(2, "bob", dec("7"))

	check.True(t, l.amount(1, "bob").Equal(dec("2")))
	check.True(t, l.amount(2, "bob").Equal(dec("7")))

	// clear returns the held amount and zeroes the entry; auctions do not
	// share entries.
	cleared := l.clear(1, "bob")
	check.True(t, cleared.Equal(dec("2")))
	check.True(t, l.amount(1, "bob").IsZero())
	check.True(t, l.amount(2, "bob").Equal(dec("7")))
	check.True(t, l.amount(1, "carol").Equal(dec("3")))
}

func TestBidLedger_Entries(t *testing.T) {
	l := newBidLedger()
	check.Equal(t, 0, len(l.entries(1)))

	l.set(1, "bob", dec("2"))
	l.set(1, "carol", dec("3"))
	l.set(1, "dave", dec("0"))

	entries := l.entries(1)
	check.Equal(t, 2, len(entries))
	check.True(t, entries["bob"].Equal(dec("2")))
	check.True(t, entries["carol"].Equal(dec("3")))

	// The copy is detached from the store.
	entries["bob"] = dec("99")
	check.True(t, l.amount(1, "bob").Equal(dec("2")))
}
