package bids

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/database"
	"github.com/jdmccork/auctionhouse/pkg/events"
)

var (
	ErrAuctionNotFound  = fmt.Errorf("auction %w", apperrors.ErrNotFound)
	ErrSellerCannotBid  = apperrors.Forbiddenf("seller cannot bid on their own auction")
	ErrAuctionClosed    = apperrors.Forbiddenf("auction has closed")
	ErrInvalidBidAmount = apperrors.Forbiddenf("bid amount must be positive")
	ErrBidTooLow        = apperrors.Forbiddenf("bid must exceed the current highest bid")
	ErrBidContention    = apperrors.Conflictf("bid lost a concurrent race, retry with fresh data")
)

// PlaceBidCommand is the bid placement call contract.
type PlaceBidCommand struct {
	AuctionID int64
	BidderID  int64
	Amount    int64
	Timestamp time.Time
}

// Service is the bid ledger: it accepts strictly increasing bids per auction
// and serves the ledger back in rank order.
type Service struct {
	txManager   database.TransactionManager
	bidRepo     Repository
	auctionRepo AuctionRepository
	outboxRepo  OutboxRepository

	// allowAfterClose restores the legacy behavior of accepting bids past
	// the end date.
	allowAfterClose bool
}

func NewService(
	txManager database.TransactionManager,
	bidRepo Repository,
	auctionRepo AuctionRepository,
	outboxRepo OutboxRepository,
	allowAfterClose bool,
) *Service {
	return &Service{
		txManager:       txManager,
		bidRepo:         bidRepo,
		auctionRepo:     auctionRepo,
		outboxRepo:      outboxRepo,
		allowAfterClose: allowAfterClose,
	}
}

// ListBids returns an auction's ledger, highest amount first, ties broken by
// earliest timestamp. An unknown auction yields an empty ledger.
func (s *Service) ListBids(ctx context.Context, auctionID int64) ([]Bid, error) {
	ledger, err := s.bidRepo.ListBids(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list bids for auction %d: %w", auctionID, err)
	}
	return ledger, nil
}

// PlaceBid appends a bid to the ledger if it beats the current highest bid.
//
// The read-compare-insert sequence runs with the auction row locked
// (SELECT ... FOR UPDATE), so concurrent bids on one auction serialize: the
// loser of the race observes the winner's amount when it acquires the lock
// and fails the monotonicity check. The accepted bid stream is therefore
// strictly increasing per auction. A lock wait that exceeds the transaction
// manager's timeout surfaces as a retryable conflict.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	auction, err := s.auctionRepo.GetAuctionForUpdate(ctx, tx, cmd.AuctionID)
	if err != nil {
		if database.IsLockTimeout(err) {
			return nil, ErrBidContention
		}
		return nil, fmt.Errorf("lock auction %d: %w", cmd.AuctionID, err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}

	if auction.SellerID == cmd.BidderID {
		return nil, ErrSellerCannotBid
	}

	if !s.allowAfterClose && auction.Closed(time.Now()) {
		return nil, ErrAuctionClosed
	}

	if cmd.Amount <= 0 {
		return nil, ErrInvalidBidAmount
	}
	highest, err := s.bidRepo.HighestAmount(ctx, tx, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("read highest bid: %w", err)
	}
	if highest != nil && cmd.Amount <= *highest {
		return nil, ErrBidTooLow
	}

	bid := &Bid{
		AuctionID: cmd.AuctionID,
		BidderID:  cmd.BidderID,
		Amount:    cmd.Amount,
		Timestamp: cmd.Timestamp,
	}
	if err := s.bidRepo.InsertBid(ctx, tx, bid); err != nil {
		return nil, fmt.Errorf("failed to insert bid: %w", err)
	}

	payload, err := json.Marshal(events.BidPlaced{
		BidID:     bid.ID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		Timestamp: bid.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, events.NewOutboxEvent(events.TypeBidPlaced, payload)); err != nil {
		return nil, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bid, nil
}
