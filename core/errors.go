package core

import "errors"

// Every failure an engine command can report, one named reason each. All are
// local and recoverable by the caller; none are fatal to the engine's own
// integrity. Callers match with errors.Is since transfer failures arrive
// wrapped with the collaborator's reported cause.
var (
	// Not-found.
	ErrAuctionNotFound = errors.New("auction not found")

	// Creation preconditions.
	ErrInvalidDuration      = errors.New("auction duration below minimum")
	ErrInvalidStartingPrice = errors.New("starting price must be positive")
	ErrNotAssetOwner        = errors.New("caller does not own the asset")
	ErrCustodyNotAuthorized = errors.New("engine not authorized to move the asset")

	// Bidding preconditions.
	ErrAuctionEnded    = errors.New("auction already ended")
	ErrAuctionExpired  = errors.New("auction deadline has passed")
	ErrBidTooLow       = errors.New("bid does not exceed current highest amount")
	ErrSellerCannotBid = errors.New("seller cannot bid on own auction")

	// Withdrawal preconditions.
	ErrHighestBidderCannotWithdraw = errors.New("highest bidder cannot withdraw the leading bid")
	ErrNoBidToWithdraw             = errors.New("no withdrawable bid")

	// Finalization preconditions.
	ErrAuctionNotStarted   = errors.New("auction has not started")
	ErrAuctionNotYetEnded  = errors.New("auction deadline has not passed")
	ErrOnlySellerCanCancel = errors.New("only the seller can cancel")
	ErrAuctionNotActive    = errors.New("auction is not active")
	ErrBidsAlreadyPlaced   = errors.New("auction already has bids")

	// Transfer failures. State is rolled back to the pre-call snapshot,
	// except after EndAuction's phase transition (documented there).
	ErrRefundFailed           = errors.New("refund to displaced bidder failed")
	ErrWithdrawFailed         = errors.New("withdrawal transfer failed")
	ErrCustodyTransferFailed  = errors.New("asset custody transfer failed")
	ErrProceedsTransferFailed = errors.New("proceeds transfer to seller failed")

	// Concurrency.
	ErrReentrantCall = errors.New("reentrant call rejected")
)
