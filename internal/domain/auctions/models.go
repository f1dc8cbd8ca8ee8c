package auctions

import (
	"time"
)

// Auction is a sellable listing with a closing deadline and a reserve price.
// NumBids and HighestBid are aggregated live from the bid ledger on every
// read; they are never stored on the auction row. HighestBid is nil while the
// auction has no bids.
type Auction struct {
	ID              int64
	Title           string
	Description     string
	CategoryID      int64
	SellerID        int64
	SellerFirstName string
	SellerLastName  string
	Reserve         int64
	NumBids         int64
	HighestBid      *int64
	EndDate         time.Time
	ImageFilename   *string
}

// Closed reports whether the auction's deadline has passed. Closed is derived
// from the clock, never stored.
func (a *Auction) Closed(now time.Time) bool {
	return !now.Before(a.EndDate)
}

// HasBids reports whether at least one bid has been accepted.
func (a *Auction) HasBids() bool {
	return a.NumBids > 0
}

// IsOwnedBy reports whether userID is the seller.
func (a *Auction) IsOwnedBy(userID int64) bool {
	return a.SellerID == userID
}

// Mutable reports whether the auction can still be edited or deleted: only
// while open and bid-free. Once a bid lands, title/description/reserve/
// endDate/category are frozen and deletion is blocked.
func (a *Auction) Mutable(now time.Time) bool {
	return !a.HasBids() && !a.Closed(now)
}

// Category is referenced, never owned, by auctions. There is no create or
// update path; the set is seeded by migration.
type Category struct {
	ID   int64
	Name string
}

// Filter is one repository listing pass. CategoryID is a single optional id:
// multi-category requests run one pass per id and concatenate (see
// Service.List).
type Filter struct {
	SearchTerm string
	CategoryID *int64
	SellerID   *int64
	BidderID   *int64
}
