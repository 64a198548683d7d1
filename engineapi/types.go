// Package engineapi defines the JSON wire types for the engine's command
// surface. Every request carries a "type" field the server dispatches on;
// every response reports success, a human-readable message, and the
// command's payload.
package engineapi

import (
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/escrowauction/core"
)

// Request type values.
const (
	TypePing          = "ping"
	TypeCreateAuction = "create_auction"
	TypeBid           = "bid"
	TypeWithdrawBid   = "withdraw_bid"
	TypeEndAuction    = "end_auction"
	TypeCancelAuction = "cancel_auction"
	TypeGetAuction    = "get_auction"
	TypeGetBid        = "get_bid"
)

// CreateAuctionRequest opens an auction for an asset the seller owns.
type CreateAuctionRequest struct {
	Type            string          `json:"type"`
	Seller          string          `json:"seller"`
	Asset           core.AssetRef   `json:"asset"`
	StartingPrice   decimal.Decimal `json:"starting_price"`
	DurationSeconds int64           `json:"duration_seconds"`
}

type CreateAuctionResponse struct {
	Type           string `json:"type"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	AuctionID      uint64 `json:"auction_id,omitempty"`
	ProcessingTime int64  `json:"processing_time_ms"`
}

// BidRequest places a bid that must strictly exceed the current highest
// amount.
type BidRequest struct {
	Type      string          `json:"type"`
	AuctionID uint64          `json:"auction_id"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	Type           string    `json:"type"`
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	AuctionID      uint64    `json:"auction_id"`
	Deadline       time.Time `json:"deadline,omitempty"` // post-bid deadline, reflects anti-sniping extension
	ProcessingTime int64     `json:"processing_time_ms"`
}

// WithdrawBidRequest reclaims a non-leading held amount.
type WithdrawBidRequest struct {
	Type      string `json:"type"`
	AuctionID uint64 `json:"auction_id"`
	Bidder    string `json:"bidder"`
}

type WithdrawBidResponse struct {
	Type           string          `json:"type"`
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	AuctionID      uint64          `json:"auction_id"`
	Amount         decimal.Decimal `json:"amount"` // refunded amount
	ProcessingTime int64           `json:"processing_time_ms"`
}

// EndAuctionRequest finalizes an expired auction.
type EndAuctionRequest struct {
	Type      string `json:"type"`
	AuctionID uint64 `json:"auction_id"`
}

type EndAuctionResponse struct {
	Type           string            `json:"type"`
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
	AuctionID      uint64            `json:"auction_id"`
	Winner         string            `json:"winner,omitempty"` // empty when no bid landed
	Amount         decimal.Decimal   `json:"amount"`
	Receipt        ReceiptCOSEBase64 `json:"receipt_cose_base64,omitempty"`
	ProcessingTime int64             `json:"processing_time_ms"`
}

// CancelAuctionRequest reverses a bid-free auction; seller only.
type CancelAuctionRequest struct {
	Type      string `json:"type"`
	AuctionID uint64 `json:"auction_id"`
	Caller    string `json:"caller"`
}

type CancelAuctionResponse struct {
	Type           string            `json:"type"`
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
	AuctionID      uint64            `json:"auction_id"`
	Receipt        ReceiptCOSEBase64 `json:"receipt_cose_base64,omitempty"`
	ProcessingTime int64             `json:"processing_time_ms"`
}

// GetAuctionRequest fetches a full record snapshot.
type GetAuctionRequest struct {
	Type      string `json:"type"`
	AuctionID uint64 `json:"auction_id"`
}

type GetAuctionResponse struct {
	Type           string        `json:"type"`
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Auction        *core.Auction `json:"auction,omitempty"`
	ProcessingTime int64         `json:"processing_time_ms"`
}

// GetBidRequest fetches the amount held for one bidder (zero if none).
type GetBidRequest struct {
	Type      string `json:"type"`
	AuctionID uint64 `json:"auction_id"`
	Bidder    string `json:"bidder"`
}

type GetBidResponse struct {
	Type           string          `json:"type"`
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	AuctionID      uint64          `json:"auction_id"`
	Bidder         string          `json:"bidder"`
	Amount         decimal.Decimal `json:"amount"`
	ProcessingTime int64           `json:"processing_time_ms"`
}

// ReceiptCOSE holds raw serialized COSE_Sign1 receipt bytes.
type ReceiptCOSE []byte

// EncodeBase64 encodes receipt bytes for JSON transport.
func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

// ReceiptCOSEBase64 is a base64-encoded COSE receipt as carried on the wire.
type ReceiptCOSEBase64 string

// Decode returns the raw COSE bytes.
func (r ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(r))
	if err != nil {
		return nil, err
	}
	return ReceiptCOSE(data), nil
}

func (r ReceiptCOSEBase64) String() string {
	return string(r)
}
