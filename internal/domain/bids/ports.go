package bids

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jdmccork/auctionhouse/pkg/events"
)

// Repository is the persistence interface for the bid ledger. Inserts only
// happen inside PlaceBid's transaction; there is no update or delete.
type Repository interface {
	// ListBids returns an auction's bids with bidder names, sorted by amount
	// descending, ties by timestamp ascending.
	ListBids(ctx context.Context, auctionID int64) ([]Bid, error)

	// InsertBid appends to the ledger within tx and fills in the new id.
	InsertBid(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// HighestAmount returns the current maximum bid amount within tx, or nil
	// when the auction has no bids. Must be called with the auction row
	// locked so the value cannot move before the insert.
	HighestAmount(ctx context.Context, tx pgx.Tx, auctionID int64) (*int64, error)
}

// AuctionRepository locks the target auction row for the duration of a bid
// transaction, serializing concurrent bids per auction. Returns nil when the
// auction does not exist.
type AuctionRepository interface {
	GetAuctionForUpdate(ctx context.Context, tx pgx.Tx, auctionID int64) (*AuctionRef, error)
}

// OutboxRepository stores the bid.placed event in the bid's transaction.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
