package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cloudx-io/escrowauction/core"
	"github.com/cloudx-io/escrowauction/engineapi"
)

func (s *EngineServer) dispatch(reqType string, raw []byte) any {
	switch reqType {
	case engineapi.TypePing:
		log.Printf("INFO: Responding to ping with pong")
		return map[string]any{
			"type":      "pong",
			"message":   "engine server is healthy",
			"timestamp": time.Now().Unix(),
		}
	case engineapi.TypeCreateAuction:
		return s.handleCreateAuction(raw)
	case engineapi.TypeBid:
		return s.handleBid(raw)
	case engineapi.TypeWithdrawBid:
		return s.handleWithdrawBid(raw)
	case engineapi.TypeEndAuction:
		return s.handleEndAuction(raw)
	case engineapi.TypeCancelAuction:
		return s.handleCancelAuction(raw)
	case engineapi.TypeGetAuction:
		return s.handleGetAuction(raw)
	case engineapi.TypeGetBid:
		return s.handleGetBid(raw)
	default:
		return map[string]any{
			"type":    "error",
			"message": fmt.Sprintf("Unknown request type: %s", reqType),
		}
	}
}

func (s *EngineServer) handleCreateAuction(raw []byte) any {
	start := time.Now()
	var req engineapi.CreateAuctionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.CreateAuctionResponse{
			Type:           "create_auction_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	duration := time.Duration(req.DurationSeconds) * time.Second
	id, err := s.engine.CreateAuction(req.Seller, req.Asset, req.StartingPrice, duration)
	if err != nil {
		return engineapi.CreateAuctionResponse{
			Type:           "create_auction_response",
			Message:        err.Error(),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}
	return engineapi.CreateAuctionResponse{
		Type:           "create_auction_response",
		Success:        true,
		Message:        fmt.Sprintf("auction %d created for %s", id, req.Asset),
		AuctionID:      id,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}

func (s *EngineServer) handleBid(raw []byte) any {
	start := time.Now()
	var req engineapi.BidRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.BidResponse{
			Type:           "bid_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	if err := s.engine.PlaceBid(req.AuctionID, req.Bidder, req.Amount); err != nil {
		return engineapi.BidResponse{
			Type:           "bid_response",
			Message:        err.Error(),
			AuctionID:      req.AuctionID,
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	resp := engineapi.BidResponse{
		Type:           "bid_response",
		Success:        true,
		Message:        fmt.Sprintf("bid of %s accepted", req.Amount),
		AuctionID:      req.AuctionID,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
	// Report the post-bid deadline so callers see anti-sniping extensions.
	if a, err := s.engine.GetAuction(req.AuctionID); err == nil {
		resp.Deadline = a.Deadline
	}
	return resp
}

func (s *EngineServer) handleWithdrawBid(raw []byte) any {
	start := time.Now()
	var req engineapi.WithdrawBidRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.WithdrawBidResponse{
			Type:           "withdraw_bid_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	amount, err := s.engine.WithdrawBid(req.AuctionID, req.Bidder)
	if err != nil {
		return engineapi.WithdrawBidResponse{
			Type:           "withdraw_bid_response",
			Message:        err.Error(),
			AuctionID:      req.AuctionID,
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}
	return engineapi.WithdrawBidResponse{
		Type:           "withdraw_bid_response",
		Success:        true,
		Message:        fmt.Sprintf("refunded %s to %s", amount, req.Bidder),
		AuctionID:      req.AuctionID,
		Amount:         amount,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}

func (s *EngineServer) handleEndAuction(raw []byte) any {
	start := time.Now()
	var req engineapi.EndAuctionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.EndAuctionResponse{
			Type:           "end_auction_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	st, err := s.engine.EndAuction(req.AuctionID)
	if err != nil {
		return engineapi.EndAuctionResponse{
			Type:           "end_auction_response",
			Message:        err.Error(),
			AuctionID:      req.AuctionID,
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}
	return engineapi.EndAuctionResponse{
		Type:           "end_auction_response",
		Success:        true,
		Message:        fmt.Sprintf("auction %d settled", req.AuctionID),
		AuctionID:      req.AuctionID,
		Winner:         st.Winner,
		Amount:         st.Amount,
		Receipt:        s.signReceipt(st),
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}

func (s *EngineServer) handleCancelAuction(raw []byte) any {
	start := time.Now()
	var req engineapi.CancelAuctionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.CancelAuctionResponse{
			Type:           "cancel_auction_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	st, err := s.engine.CancelAuction(req.AuctionID, req.Caller)
	if err != nil {
		return engineapi.CancelAuctionResponse{
			Type:           "cancel_auction_response",
			Message:        err.Error(),
			AuctionID:      req.AuctionID,
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}
	return engineapi.CancelAuctionResponse{
		Type:           "cancel_auction_response",
		Success:        true,
		Message:        fmt.Sprintf("auction %d cancelled", req.AuctionID),
		AuctionID:      req.AuctionID,
		Receipt:        s.signReceipt(st),
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}

func (s *EngineServer) handleGetAuction(raw []byte) any {
	start := time.Now()
	var req engineapi.GetAuctionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.GetAuctionResponse{
			Type:           "get_auction_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	a, err := s.engine.GetAuction(req.AuctionID)
	if err != nil {
		return engineapi.GetAuctionResponse{
			Type:           "get_auction_response",
			Message:        err.Error(),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}
	return engineapi.GetAuctionResponse{
		Type:           "get_auction_response",
		Success:        true,
		Message:        fmt.Sprintf("auction %d", a.ID),
		Auction:        &a,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}

func (s *EngineServer) handleGetBid(raw []byte) any {
	start := time.Now()
	var req engineapi.GetBidRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return engineapi.GetBidResponse{
			Type:           "get_bid_response",
			Message:        fmt.Sprintf("Failed to decode request: %v", err),
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}

	amount, err := s.engine.GetBid(req.AuctionID, req.Bidder)
	if err != nil {
		return engineapi.GetBidResponse{
			Type:           "get_bid_response",
			Message:        err.Error(),
			AuctionID:      req.AuctionID,
			Bidder:         req.Bidder,
			ProcessingTime: time.Since(start).Milliseconds(),
		}
	}
	return engineapi.GetBidResponse{
		Type:           "get_bid_response",
		Success:        true,
		Message:        "ok",
		AuctionID:      req.AuctionID,
		Bidder:         req.Bidder,
		Amount:         amount,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}

// signReceipt produces the settlement receipt for a finalized auction. A
// signing failure is logged and reported as an absent receipt; settlement
// truth lives in the auction table, not the receipt.
func (s *EngineServer) signReceipt(st core.Settlement) engineapi.ReceiptCOSEBase64 {
	coseBytes, err := s.signer.Sign(st)
	if err != nil {
		log.Printf("ERROR: Failed to sign settlement receipt for auction %d: %v", st.AuctionID, err)
		return ""
	}
	return engineapi.ReceiptCOSE(coseBytes).EncodeBase64()
}
