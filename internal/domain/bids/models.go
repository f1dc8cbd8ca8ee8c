package bids

import (
	"time"
)

// Bid is one accepted entry in an auction's append-only ledger. Bids are
// never mutated or deleted once accepted.
type Bid struct {
	ID        int64
	AuctionID int64
	BidderID  int64
	Amount    int64
	// FirstName and LastName are the bidder's, joined in on reads.
	FirstName string
	LastName  string
	Timestamp time.Time
}

// AuctionRef is the slice of the auction row PlaceBid needs while holding the
// row lock.
type AuctionRef struct {
	ID       int64
	SellerID int64
	EndDate  time.Time
}

// Closed reports whether the auction's deadline has passed.
func (a *AuctionRef) Closed(now time.Time) bool {
	return !now.Before(a.EndDate)
}
