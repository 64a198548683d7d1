// Package receipt produces and verifies signed settlement receipts for
// finalized auctions. A receipt is a CBOR-encoded payload wrapped in a
// COSE_Sign1 envelope signed with an engine-held Ed25519 key, so any party
// holding the engine's public key can check an auction outcome offline.
//
// Receipts are evidence, not state: settlement truth lives in the engine's
// auction table, and a failure to sign never undoes a settlement.
package receipt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/escrowauction/core"
)

// Kind distinguishes the three settlement outcomes.
type Kind string

const (
	KindSale      Kind = "sale"      // ended with a winner
	KindNoSale    Kind = "no_sale"   // ended with no bids, asset returned
	KindCancelled Kind = "cancelled" // cancelled by the seller before any bid
)

// Payload is the signed content of a settlement receipt.
type Payload struct {
	ReceiptID   string    `cbor:"receipt_id"`
	AuctionID   uint64    `cbor:"auction_id"`
	Kind        Kind      `cbor:"kind"`
	AssetDigest string    `cbor:"asset_digest"`
	Seller      string    `cbor:"seller"`
	Winner      string    `cbor:"winner,omitempty"`
	Amount      string    `cbor:"amount"`
	Timestamp   time.Time `cbor:"timestamp"`
}

// AssetDigest computes the stable digest of an asset reference carried in
// receipts.
//
// Formula: SHA256(collection + "|" + token_id)
func AssetDigest(ref core.AssetRef) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", ref.Collection, ref.TokenID)))
	return fmt.Sprintf("%x", hash)
}

// Signer signs settlement receipts with an Ed25519 key held by the engine
// process.
type Signer struct {
	key    ed25519.PrivateKey
	signer cose.Signer
}

// NewSigner generates a fresh Ed25519 key pair and returns a Signer around
// it.
func NewSigner() (*Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate receipt key: %w", err)
	}
	return NewSignerFromKey(key)
}

// NewSignerFromKey wraps an existing Ed25519 private key.
func NewSignerFromKey(key ed25519.PrivateKey) (*Signer, error) {
	coseSigner, err := cose.NewSigner(cose.AlgorithmEdDSA, key)
	if err != nil {
		return nil, fmt.Errorf("create COSE signer: %w", err)
	}
	return &Signer{key: key, signer: coseSigner}, nil
}

// PublicKey returns the verification key for receipts produced by this
// Signer.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Sign builds the receipt payload for a settlement and returns the
// serialized COSE_Sign1 envelope.
func (s *Signer) Sign(st core.Settlement) ([]byte, error) {
	payload := Payload{
		ReceiptID:   uuid.NewString(),
		AuctionID:   st.AuctionID,
		Kind:        settlementKind(st),
		AssetDigest: AssetDigest(st.Asset),
		Seller:      st.Seller,
		Winner:      st.Winner,
		Amount:      st.Amount.String(),
		Timestamp:   st.Timestamp,
	}

	payloadBytes, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode receipt payload: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmEdDSA)
	msg.Payload = payloadBytes
	if err := msg.Sign(rand.Reader, nil, s.signer); err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	coseBytes, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("encode receipt envelope: %w", err)
	}
	return coseBytes, nil
}

func settlementKind(st core.Settlement) Kind {
	switch {
	case st.Cancelled:
		return KindCancelled
	case st.Winner == core.NoBidder:
		return KindNoSale
	default:
		return KindSale
	}
}
