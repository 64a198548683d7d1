package receipt

import (
	"crypto/ed25519"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

// Verify checks a serialized receipt against the engine's public key and
// returns the decoded payload.
func Verify(coseBytes []byte, pub ed25519.PublicKey) (*Payload, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse receipt envelope: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmEdDSA, pub)
	if err != nil {
		return nil, fmt.Errorf("create COSE verifier: %w", err)
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("verify receipt signature: %w", err)
	}

	var payload Payload
	if err := cbor.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &payload, nil
}

// ExtractPayload decodes a receipt payload without checking the signature.
// COSE_Sign1 structure: [protected, unprotected, payload, signature];
// the payload is element 2. Useful for display tooling; authoritative
// consumers call Verify.
func ExtractPayload(coseBytes []byte) (*Payload, error) {
	var coseArray []any
	if err := cbor.Unmarshal(coseBytes, &coseArray); err != nil {
		return nil, fmt.Errorf("parse COSE array: %w", err)
	}
	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE_Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}
	payloadBytes, ok := coseArray[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid payload in COSE structure")
	}

	var payload Payload
	if err := cbor.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &payload, nil
}
