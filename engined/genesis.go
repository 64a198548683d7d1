package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/escrowauction/core"
)

// Genesis seeding for bring-up and demo runs: the in-memory collaborators
// start empty, so assets and balances come from the environment.
//
//	ENGINE_GENESIS_ASSETS   = "art/42=alice;art/43=bob"
//	ENGINE_GENESIS_BALANCES = "alice=100;bob=250.50"
//
// Seeded assets are pre-authorized for the engine's custody account; a real
// custody transport would require the owner to grant that approval itself.
func (s *EngineServer) seedGenesis() error {
	for _, entry := range splitList(os.Getenv("ENGINE_GENESIS_ASSETS")) {
		refSpec, owner, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("invalid genesis asset entry %q (want collection/token=owner)", entry)
		}
		collection, tokenID, ok := strings.Cut(refSpec, "/")
		if !ok {
			return fmt.Errorf("invalid genesis asset ref %q (want collection/token)", refSpec)
		}
		ref := core.AssetRef{Collection: collection, TokenID: tokenID}
		s.assets.Mint(ref, owner)
		s.assets.Authorize(ref, s.custodyAccount)
		log.Printf("INFO: genesis asset %s minted to %s", ref, owner)
	}

	for _, entry := range splitList(os.Getenv("ENGINE_GENESIS_BALANCES")) {
		account, amountSpec, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("invalid genesis balance entry %q (want account=amount)", entry)
		}
		amount, err := decimal.NewFromString(amountSpec)
		if err != nil {
			return fmt.Errorf("invalid genesis balance for %s: %w", account, err)
		}
		s.bank.Deposit(account, amount)
		log.Printf("INFO: genesis balance %s credited to %s", amount, account)
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var entries []string
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}
