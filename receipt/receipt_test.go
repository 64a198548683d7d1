package receipt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/escrowauction/core"
)

func saleSettlement() core.Settlement {
	return core.Settlement{
		AuctionID: 7,
		Asset:     core.AssetRef{Collection: "art", TokenID: "42"},
		Seller:    "alice",
		Winner:    "bob",
		Amount:    decimal.RequireFromString("3.5"),
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	coseBytes, err := signer.Sign(saleSettlement())
	check.Nil(t, err)

	payload, err := Verify(coseBytes, signer.PublicKey())
	check.Nil(t, err)
	check.Equal(t, uint64(7), payload.AuctionID)
	check.Equal(t, KindSale, payload.Kind)
	check.Equal(t, "alice", payload.Seller)
	check.Equal(t, "bob", payload.Winner)
	check.Equal(t, "3.5", payload.Amount)
	check.Equal(t, AssetDigest(core.AssetRef{Collection: "art", TokenID: "42"}), payload.AssetDigest)
	check.True(t, payload.Timestamp.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	_, err = uuid.Parse(payload.ReceiptID)
	check.Nil(t, err)
}

func TestSign_SettlementKinds(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)

	tests := []struct {
		name string
		st   core.Settlement
		want Kind
	}{
		{"ended with winner", saleSettlement(), KindSale},
		{
			"ended without bids",
			core.Settlement{AuctionID: 8, Seller: "alice", Winner: core.NoBidder, Amount: decimal.Zero},
			KindNoSale,
		},
		{
			"cancelled",
			core.Settlement{AuctionID: 9, Seller: "alice", Cancelled: true, Amount: decimal.Zero},
			KindCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coseBytes, err := signer.Sign(tt.st)
			check.Nil(t, err)
			payload, err := Verify(coseBytes, signer.PublicKey())
			check.Nil(t, err)
			check.Equal(t, tt.want, payload.Kind)
		})
	}
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)
	coseBytes, err := signer.Sign(saleSettlement())
	check.Nil(t, err)

	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	check.Nil(t, err)

	_, err = Verify(coseBytes, otherPub)
	check.NotNil(t, err)
}

func TestVerify_RejectsTamperedEnvelope(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)
	coseBytes, err := signer.Sign(saleSettlement())
	check.Nil(t, err)

	tampered := make([]byte, len(coseBytes))
	copy(tampered, coseBytes)
	tampered[len(tampered)-1] ^= 0x01 // flip a signature bit

	_, err = Verify(tampered, signer.PublicKey())
	check.NotNil(t, err)
}

func TestExtractPayload_NoKeyNeeded(t *testing.T) {
	signer, err := NewSigner()
	check.Nil(t, err)
	coseBytes, err := signer.Sign(saleSettlement())
	check.Nil(t, err)

	payload, err := ExtractPayload(coseBytes)
	check.Nil(t, err)
	check.Equal(t, uint64(7), payload.AuctionID)
	check.Equal(t, "bob", payload.Winner)

	_, err = ExtractPayload([]byte("not cbor"))
	check.NotNil(t, err)
}

func TestAssetDigest(t *testing.T) {
	a := core.AssetRef{Collection: "art", TokenID: "42"}
	b := core.AssetRef{Collection: "art", TokenID: "43"}

	check.Equal(t, AssetDigest(a), AssetDigest(a))
	check.NotEqual(t, AssetDigest(a), AssetDigest(b))
	check.Equal(t, 64, len(AssetDigest(a))) // hex-encoded SHA-256

	// The separator matters: collection/token boundaries must not collide.
	c := core.AssetRef{Collection: "art4", TokenID: "2"}
	check.NotEqual(t, AssetDigest(a), AssetDigest(c))
}

func TestNewSignerFromKey_Deterministic(t *testing.T) {
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	check.Nil(t, err)

	signer, err := NewSignerFromKey(key)
	check.Nil(t, err)
	check.Equal(t, pub, signer.PublicKey())

	coseBytes, err := signer.Sign(saleSettlement())
	check.Nil(t, err)
	_, err = Verify(coseBytes, pub)
	check.Nil(t, err)
}
