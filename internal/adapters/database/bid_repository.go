package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdmccork/auctionhouse/internal/domain/bids"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// PostgresBidRepository implements bids.Repository using pgx. The ledger is
// append-only: there is no update or delete statement in this file.
type PostgresBidRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// ListBids returns an auction's bids with bidder names, amount descending,
// ties by earliest timestamp then insertion order.
func (r *PostgresBidRepository) ListBids(ctx context.Context, auctionID int64) ([]bids.Bid, error) {
	query := `
		SELECT b.id, b.auction_id, b.user_id, b.amount, u.first_name, u.last_name, b.ts
		FROM auction_bid b
		JOIN users u ON u.id = b.user_id
		WHERE b.auction_id = $1
		ORDER BY b.amount DESC, b.ts ASC, b.id ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, apperrors.Storage("list bids", err)
	}
	defer rows.Close()

	var ledger []bids.Bid
	for rows.Next() {
		var b bids.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.FirstName, &b.LastName, &b.Timestamp); err != nil {
			return nil, apperrors.Storage("scan bid", err)
		}
		ledger = append(ledger, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate bids", err)
	}
	return ledger, nil
}

// InsertBid appends to the ledger within tx and fills in the generated id.
func (r *PostgresBidRepository) InsertBid(ctx context.Context, tx pgx.Tx, bid *bids.Bid) error {
	query := `
		INSERT INTO auction_bid (auction_id, user_id, amount, ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query, bid.AuctionID, bid.BidderID, bid.Amount, bid.Timestamp).Scan(&bid.ID)
	if err != nil {
		return apperrors.Storage("insert bid", err)
	}
	return nil
}

// HighestAmount returns MAX(amount) for the auction within tx, nil when the
// ledger is empty. Callers must hold the auction row lock.
func (r *PostgresBidRepository) HighestAmount(ctx context.Context, tx pgx.Tx, auctionID int64) (*int64, error) {
	var highest *int64
	err := tx.QueryRow(ctx, `SELECT MAX(amount) FROM auction_bid WHERE auction_id = $1`, auctionID).Scan(&highest)
	if err != nil {
		return nil, apperrors.Storage("max bid amount", err)
	}
	return highest, nil
}
