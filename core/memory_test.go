package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestMemoryAssetBook_OwnershipAndAuthorization(t *testing.T) {
	b := NewMemoryAssetBook()
	ref := AssetRef{Collection: "art", TokenID: "42"}

	_, err := b.OwnerOf(ref)
	check.NotNil(t, err)
	_, err = b.IsAuthorizedFor("escrow-engine", ref)
	check.NotNil(t, err)

	b.Mint(ref, "alice")
	owner, err := b.OwnerOf(ref)
	check.Nil(t, err)
	check.Equal(t, "alice", owner)

	ok, err := b.IsAuthorizedFor("escrow-engine", ref)
	check.Nil(t, err)
	check.True(t, !ok)

	b.Authorize(ref, "escrow-engine")
	ok, err = b.IsAuthorizedFor("escrow-engine", ref)
	check.Nil(t, err)
	check.True(t, ok)
}

func TestMemoryAssetBook_Transfer(t *testing.T) {
	b := NewMemoryAssetBook()
	ref := AssetRef{Collection: "art", TokenID: "42"}
	b.Mint(ref, "alice")

	// Only the current holder can be the transfer source.
	err := b.Transfer(ref, "bob", "carol")
	check.NotNil(t, err)
	owner, err := b.OwnerOf(ref)
	check.Nil(t, err)
	check.Equal(t, "alice", owner)

	check.Nil(t, b.Transfer(ref, "alice", "bob"))
	owner, err = b.OwnerOf(ref)
	check.Nil(t, err)
	check.Equal(t, "bob", owner)

	// Injected failures report an error without moving the asset, then
	// clear.
	b.FailNextTransfers(1)
	err = b.Transfer(ref, "bob", "carol")
	check.NotNil(t, err)
	owner, err = b.OwnerOf(ref)
	check.Nil(t, err)
	check.Equal(t, "bob", owner)
	check.Nil(t, b.Transfer(ref, "bob", "carol"))
}

func TestMemoryBank_DepositAndSend(t *testing.T) {
	b := NewMemoryBank()
	check.True(t, b.BalanceOf("alice").IsZero())

	b.Deposit("alice", dec("10"))
	b.Deposit("alice", dec("2.5"))
	check.True(t, b.BalanceOf("alice").Equal(dec("12.5")))

	check.Nil(t, b.Send("bob", dec("3")))
	check.True(t, b.BalanceOf("bob").Equal(dec("3")))
}

func TestMemoryBank_SendHook(t *testing.T) {
	b := NewMemoryBank()
	hookErr := errors.New("rail down")
	var seen []string
	b.SendHook = func(to string, amount decimal.Decimal) error {
		seen = append(seen, to)
		if to == "bob" {
			return hookErr
		}
		return nil
	}

	err := b.Send("bob", dec("3"))
	check.True(t, errors.Is(err, hookErr))
	check.True(t, b.BalanceOf("bob").IsZero())

	check.Nil(t, b.Send("carol", dec("3")))
	check.True(t, b.BalanceOf("carol").Equal(dec("3")))
	check.Equal(t, []string{"bob", "carol"}, seen)
}
